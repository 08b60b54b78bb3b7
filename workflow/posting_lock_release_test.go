package workflow

import (
	"errors"
	"testing"
)

// fakeSession models one pooled MySQL connection. The advisory lock is
// connection-scoped: releasing after the transaction has finished is a
// silent no-op and the lock stays attached to the connection.
type fakeSession struct {
	txOpen   bool
	lockHeld bool
	events   []string
}

func (s *fakeSession) begin() {
	s.txOpen = true
	s.events = append(s.events, "begin")
}

func (s *fakeSession) acquireLock() bool {
	if s.lockHeld {
		return false
	}
	s.lockHeld = true
	s.events = append(s.events, "acquire")
	return true
}

func (s *fakeSession) releaseLock() {
	s.events = append(s.events, "release")
	if !s.txOpen {
		return
	}
	s.lockHeld = false
}

func (s *fakeSession) commit() {
	s.txOpen = false
	s.events = append(s.events, "commit")
}

func (s *fakeSession) rollback() {
	s.txOpen = false
	s.events = append(s.events, "rollback")
}

// post mirrors decidePayment's lock handling: acquire after begin, release
// on the still-open transaction before commit, deferred release for the
// error paths.
func (s *fakeSession) post(fail bool) error {
	s.begin()
	defer s.rollback()

	if !s.acquireLock() {
		return errors.New("lock busy")
	}
	held := true
	defer func() {
		if held {
			s.releaseLock()
		}
	}()

	if fail {
		return errors.New("posting failed")
	}

	s.releaseLock()
	held = false
	s.commit()
	return nil
}

func TestPostingLock_ReleasedBeforeCommit(t *testing.T) {
	s := &fakeSession{}
	if err := s.post(false); err != nil {
		t.Fatal(err)
	}
	if s.lockHeld {
		t.Fatal("posting lock still attached to the connection after commit")
	}

	release, commit := -1, -1
	for i, e := range s.events {
		switch e {
		case "release":
			release = i
		case "commit":
			commit = i
		}
	}
	if release == -1 || commit == -1 || release > commit {
		t.Fatalf("expected release before commit, got events %v", s.events)
	}
}

func TestPostingLock_ReleasedOnFailure(t *testing.T) {
	s := &fakeSession{}
	if err := s.post(true); err == nil {
		t.Fatal("expected posting to fail")
	}
	if s.lockHeld {
		t.Fatal("posting lock still held after rollback")
	}
}

func TestPostingLock_NextPosterNotBlocked(t *testing.T) {
	s := &fakeSession{}
	if err := s.post(false); err != nil {
		t.Fatal(err)
	}
	if err := s.post(false); err != nil {
		t.Fatalf("second posting on the pooled connection blocked: %v", err)
	}
}
