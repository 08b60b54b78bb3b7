package utils

import (
	"sync"
	"testing"
)

// fakeCounterStore models the Redis counter shared by several portal
// instances. seedLock stands in for the cross-instance redis lock.
type fakeCounterStore struct {
	mu       sync.Mutex
	vals     map[string]int64
	seeded   map[string]bool
	seedLock sync.Mutex
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{vals: map[string]int64{}, seeded: map[string]bool{}}
}

func (s *fakeCounterStore) exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded[key]
}

func (s *fakeCounterStore) set(key string, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = v
	s.seeded[key] = true
}

func (s *fakeCounterStore) incr(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key]++
	s.seeded[key] = true
	return s.vals[key]
}

func (s *fakeCounterStore) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals = map[string]int64{}
	s.seeded = map[string]bool{}
}

// nextSeq mirrors GetSequence's reseed protocol: a missing key is seeded to
// the database maximum under the shared lock before anything increments it.
func nextSeq(s *fakeCounterStore, key string, dbMax int64) int64 {
	if !s.exists(key) {
		s.seedLock.Lock()
		if !s.exists(key) {
			s.set(key, dbMax)
		}
		s.seedLock.Unlock()
	}
	return s.incr(key)
}

func TestSequenceColdReseedContinuesFromDatabase(t *testing.T) {
	s := newFakeCounterStore()
	if got := nextSeq(s, "biz-1-payment_seq", 57); got != 58 {
		t.Fatalf("cold counter handed out %d, want 58", got)
	}
	if got := nextSeq(s, "biz-1-payment_seq", 57); got != 59 {
		t.Fatalf("warm counter handed out %d, want 59", got)
	}
}

func TestSequenceConcurrentColdReseedNoDuplicates(t *testing.T) {
	const callers = 20
	for run := 0; run < 100; run++ {
		s := newFakeCounterStore()
		s.flush()

		var wg sync.WaitGroup
		got := make([]int64, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i] = nextSeq(s, "biz-1-invoice_seq", 57)
			}(i)
		}
		wg.Wait()

		seen := map[int64]bool{}
		for _, n := range got {
			if n <= 57 {
				t.Fatalf("run=%d handed out %d, already used in the database", run, n)
			}
			if seen[n] {
				t.Fatalf("run=%d duplicate sequence number %d", run, n)
			}
			seen[n] = true
		}
	}
}
