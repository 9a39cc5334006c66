// Package planstore persists the local meal plan per user identity. Reads are
// total (absent or corrupt records load as an empty plan); writes are
// debounced and best-effort, with the in-memory plan staying authoritative for
// the running session.
package planstore

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fdg312/nomnom/internal/kvstore"
	"github.com/fdg312/nomnom/internal/mealplan"
)

const (
	// DefaultDebounce collapses bursts of mutations into a single write.
	DefaultDebounce = 250 * time.Millisecond

	guestKey      = "@nomnom_mealplan_guest"
	userKeyFormat = "@nomnom_mealplan_u%d"

	writeTimeout = 5 * time.Second
)

// Key derives the persistence key for a user id. Non-positive ids map to the
// fixed guest key, so signed-out sessions never touch a user's record.
func Key(userID int64) string {
	if userID <= 0 {
		return guestKey
	}
	return fmt.Sprintf(userKeyFormat, userID)
}

type pendingWrite struct {
	key  string
	data []byte
}

// Store schedules debounced plan writes against a key-value store.
type Store struct {
	kv       kvstore.Store
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *pendingWrite
	wg      sync.WaitGroup
	closed  bool
}

// New creates a Store with the default debounce window.
func New(kv kvstore.Store) *Store {
	return NewWithDebounce(kv, DefaultDebounce)
}

// NewWithDebounce creates a Store with an explicit debounce window; tests use
// a short one.
func NewWithDebounce(kv kvstore.Store, debounce time.Duration) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{kv: kv, debounce: debounce}
}

// Load reads and normalizes the plan for the identity. Absent or unparsable
// records yield an empty plan; Load never returns an error to the caller.
func (s *Store) Load(ctx context.Context, userID int64) mealplan.Plan {
	raw, err := s.kv.Get(ctx, Key(userID))
	if err != nil {
		if err != kvstore.ErrNotFound {
			log.Printf("WARN planstore: load failed for %s: %v", Key(userID), err)
		}
		return mealplan.Plan{}
	}

	plan, err := mealplan.DecodePlan(raw)
	if err != nil {
		log.Printf("WARN planstore: corrupt record for %s, starting empty: %v", Key(userID), err)
		return mealplan.Plan{}
	}
	return plan
}

// Put schedules a debounced write of plan under the identity's key. Each call
// captures the current value and resets the timer, so the write that finally
// fires always carries the most recent plan. Serialization failures and write
// failures are logged and swallowed.
func (s *Store) Put(userID int64, plan mealplan.Plan) {
	data, err := mealplan.EncodePlan(plan)
	if err != nil {
		log.Printf("WARN planstore: encode failed for %s: %v", Key(userID), err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	key := Key(userID)
	if s.pending != nil && s.pending.key != key {
		// A pending write under another identity's key must not be lost
		// to the reschedule; write it out now.
		old := s.pending
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.write(old)
		}()
	}

	s.pending = &pendingWrite{key: key, data: data}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fireTimer)
}

func (s *Store) fireTimer() {
	s.mu.Lock()
	pw := s.pending
	s.pending = nil
	s.timer = nil
	if pw != nil {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if pw == nil {
		return
	}
	defer s.wg.Done()
	s.write(pw)
}

func (s *Store) write(pw *pendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.kv.Set(ctx, pw.key, pw.data); err != nil {
		log.Printf("WARN planstore: write failed for %s: %v", pw.key, err)
	}
}

// Flush writes any pending plan immediately, cancelling the timer.
func (s *Store) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pw := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pw != nil {
		s.write(pw)
	}
	s.wg.Wait()
}

// Close flushes any pending write and stops the store. The last mutation is
// never lost to an in-flight debounce window.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Flush()
	return nil
}

// Delete removes the identity's persisted record (used by tests and account
// removal); best-effort like Put.
func (s *Store) Delete(ctx context.Context, userID int64) {
	if err := s.kv.Delete(ctx, Key(userID)); err != nil {
		log.Printf("WARN planstore: delete failed for %s: %v", Key(userID), err)
	}
}
