package planstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fdg312/nomnom/internal/kvstore"
	"github.com/fdg312/nomnom/internal/mealplan"
)

func planWith(dateISO string, slot mealplan.Slot, ids ...int64) mealplan.Plan {
	day := mealplan.EmptyDay()
	for _, id := range ids {
		day[slot] = append(day[slot], mealplan.RecipeRef{ID: id, Title: "r", Category: "Other"})
	}
	return mealplan.Plan{dateISO: day}
}

func waitForKey(t *testing.T, kv *kvstore.MemoryStore, key string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if raw, err := kv.Get(context.Background(), key); err == nil {
			return raw
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("key %s never written", key)
	return nil
}

func TestKey(t *testing.T) {
	if got := Key(42); got != "@nomnom_mealplan_u42" {
		t.Fatalf("Key(42) = %q", got)
	}
	if got := Key(0); got != "@nomnom_mealplan_guest" {
		t.Fatalf("Key(0) = %q", got)
	}
	if got := Key(-1); got != "@nomnom_mealplan_guest" {
		t.Fatalf("Key(-1) = %q", got)
	}
}

func TestLoadAbsentReturnsEmptyPlan(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := New(kv)
	defer s.Close()

	plan := s.Load(context.Background(), 7)
	if plan == nil {
		t.Fatal("Load returned nil plan")
	}
	if len(plan) != 0 {
		t.Fatalf("want empty plan, got %d days", len(plan))
	}
}

func TestLoadCorruptRecordReturnsEmptyPlan(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	ctx := context.Background()
	if err := kv.Set(ctx, Key(7), []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := New(kv)
	defer s.Close()
	plan := s.Load(ctx, 7)
	if len(plan) != 0 {
		t.Fatalf("corrupt record: want empty plan, got %d days", len(plan))
	}
}

func TestLoadNormalizesDays(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	ctx := context.Background()
	raw := []byte(`{"2024-03-12":{"Breakfast":[{"id":1,"title":"Eggs","category":"Breakfast"}],"Lunch":"bogus"}}`)
	if err := kv.Set(ctx, Key(3), raw); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := New(kv)
	defer s.Close()
	plan := s.Load(ctx, 3)
	day, ok := plan["2024-03-12"]
	if !ok {
		t.Fatal("day missing after load")
	}
	for _, slot := range mealplan.Slots() {
		if day[slot] == nil {
			t.Fatalf("slot %s is nil after normalization", slot)
		}
	}
	if len(day[mealplan.SlotBreakfast]) != 1 || day[mealplan.SlotBreakfast][0].ID != 1 {
		t.Fatalf("breakfast not preserved: %+v", day[mealplan.SlotBreakfast])
	}
	if len(day[mealplan.SlotLunch]) != 0 {
		t.Fatalf("malformed lunch should be empty, got %+v", day[mealplan.SlotLunch])
	}
}

func TestPutDebounceCollapsesBurst(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := NewWithDebounce(kv, 30*time.Millisecond)
	defer s.Close()

	// Three rapid writes; only the last value should land.
	s.Put(5, planWith("2024-03-12", mealplan.SlotLunch, 1))
	s.Put(5, planWith("2024-03-12", mealplan.SlotLunch, 1, 2))
	s.Put(5, planWith("2024-03-12", mealplan.SlotLunch, 1, 2, 3))

	raw := waitForKey(t, kv, Key(5))
	var decoded map[string]map[string][]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("stored record not JSON: %v", err)
	}
	if n := len(decoded["2024-03-12"]["Lunch"]); n != 3 {
		t.Fatalf("want last write with 3 lunch entries, got %d", n)
	}
}

func TestPutIdentitySwitchKeepsBothWrites(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := NewWithDebounce(kv, time.Hour)
	defer s.Close()

	// Two identities inside one debounce window: the first pending write
	// must be flushed, not dropped by the reschedule.
	s.Put(5, planWith("2024-03-12", mealplan.SlotLunch, 1))
	s.Put(6, planWith("2024-03-12", mealplan.SlotDinner, 2))
	s.Flush()

	waitForKey(t, kv, Key(5))
	waitForKey(t, kv, Key(6))
}

func TestPutDoesNotWriteBeforeDebounce(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := NewWithDebounce(kv, 200*time.Millisecond)
	defer s.Close()

	s.Put(5, planWith("2024-03-12", mealplan.SlotDinner, 9))
	time.Sleep(30 * time.Millisecond)
	if _, err := kv.Get(context.Background(), Key(5)); err != kvstore.ErrNotFound {
		t.Fatalf("write landed before debounce elapsed: %v", err)
	}
}

func TestCloseFlushesPendingWrite(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := NewWithDebounce(kv, time.Minute)

	s.Put(8, planWith("2024-03-12", mealplan.SlotSnacks, 4))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := kv.Get(context.Background(), Key(8))
	if err != nil {
		t.Fatalf("pending write lost on close: %v", err)
	}
	plan, err := mealplan.DecodePlan(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := plan["2024-03-12"][mealplan.SlotSnacks]; len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("flushed plan wrong: %+v", got)
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := NewWithDebounce(kv, time.Minute)
	defer s.Close()

	s.Put(2, planWith("2024-03-13", mealplan.SlotBreakfast, 11))
	s.Flush()

	if _, err := kv.Get(context.Background(), Key(2)); err != nil {
		t.Fatalf("Flush did not write: %v", err)
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	kv.FailWrites = true
	s := NewWithDebounce(kv, 10*time.Millisecond)

	s.Put(1, planWith("2024-03-12", mealplan.SlotLunch, 1))
	s.Flush()

	// The session plan stays authoritative; a later successful write wins.
	kv.FailWrites = false
	s.Put(1, planWith("2024-03-12", mealplan.SlotLunch, 1, 2))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	raw, err := kv.Get(context.Background(), Key(1))
	if err != nil {
		t.Fatalf("recovered write missing: %v", err)
	}
	plan, err := mealplan.DecodePlan(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n := len(plan["2024-03-12"][mealplan.SlotLunch]); n != 2 {
		t.Fatalf("want 2 lunch entries after recovery, got %d", n)
	}
}

func TestPutAfterCloseIsNoop(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	defer kv.Close()
	s := NewWithDebounce(kv, 10*time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s.Put(9, planWith("2024-03-12", mealplan.SlotLunch, 1))
	time.Sleep(50 * time.Millisecond)
	if _, err := kv.Get(context.Background(), Key(9)); err != kvstore.ErrNotFound {
		t.Fatalf("write after close landed: %v", err)
	}
}
