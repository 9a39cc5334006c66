package kvstore

import (
	"context"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("Get missing key: want ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, "a", []byte("one")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "one" {
		t.Fatalf("Get: want %q, got %q", "one", got)
	}

	if err := s.Set(ctx, "a", []byte("two")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err = s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("overwrite: want %q, got %q", "two", got)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); err != ErrNotFound {
		t.Fatalf("Get after delete: want ErrNotFound, got %v", err)
	}

	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s)
}

func TestMemoryStoreLen(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if s.Len() != 0 {
		t.Fatalf("new store: want 0 entries, got %d", s.Len())
	}
	if err := s.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := s.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatalf("Set b: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("after two sets: want 2 entries, got %d", s.Len())
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("after delete: want 1 entry, got %d", s.Len())
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	src := []byte("original")
	if err := s.Set(ctx, "k", src); err != nil {
		t.Fatalf("Set: %v", err)
	}
	src[0] = 'X'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliases caller slice: got %q", got)
	}

	got[0] = 'Y'
	again, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if string(again) != "original" {
		t.Fatalf("returned value aliases stored slice: got %q", again)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("durable")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "durable" {
		t.Fatalf("want %q, got %q", "durable", got)
	}
}
