package workflow

import (
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/billing_portal/models"
)

// NOTE: These tests are intentionally DB-free. They validate the intended
// payment posting semantics:
// - Verified and Rejected are terminal: a decided payment is never re-posted
// - per-business serialization means concurrent verify attempts apply the
//   allocations exactly once
//
// Full DB integration tests should be added in an environment that can run
// MySQL + Redis.

type fakePoster struct {
	muByBiz map[string]*sync.Mutex
	mu      sync.Mutex
	status  map[int]models.PaymentStatus
	posts   int
}

func newFakePoster() *fakePoster {
	return &fakePoster{
		muByBiz: map[string]*sync.Mutex{},
		status:  map[int]models.PaymentStatus{},
	}
}

func (p *fakePoster) seed(paymentID int, status models.PaymentStatus) {
	p.status[paymentID] = status
}

// decide mirrors decidePayment: serialize per business (AcquireBusinessPostingLock),
// then refuse terminal payments before posting.
func (p *fakePoster) decide(businessID string, paymentID int, next models.PaymentStatus) bool {
	p.mu.Lock()
	bm := p.muByBiz[businessID]
	if bm == nil {
		bm = &sync.Mutex{}
		p.muByBiz[businessID] = bm
	}
	p.mu.Unlock()

	bm.Lock()
	defer bm.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status[paymentID].IsTerminal() {
		return false
	}
	p.status[paymentID] = next
	if next == models.PaymentStatusVerified {
		p.posts++
	}
	return true
}

func TestPaymentDecision_TerminalStatusConflicts(t *testing.T) {
	cases := []struct {
		name    string
		current models.PaymentStatus
		next    models.PaymentStatus
	}{
		{"verify a verified payment", models.PaymentStatusVerified, models.PaymentStatusVerified},
		{"reject a verified payment", models.PaymentStatusVerified, models.PaymentStatusRejected},
		{"verify a rejected payment", models.PaymentStatusRejected, models.PaymentStatusVerified},
		{"reject a rejected payment", models.PaymentStatusRejected, models.PaymentStatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newFakePoster()
			p.seed(1, tc.current)
			if p.decide("biz-1", 1, tc.next) {
				t.Fatal("expected decided payment to conflict")
			}
			if p.status[1] != tc.current {
				t.Fatalf("status changed from %s to %s", tc.current, p.status[1])
			}
		})
	}
}

func TestPaymentDecision_ConcurrentVerify_PostsOnce(t *testing.T) {
	for run := 0; run < 100; run++ {
		p := newFakePoster()
		p.seed(1, models.PaymentStatusPendingVerification)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.decide("biz-1", 1, models.PaymentStatusVerified)
			}()
		}
		wg.Wait()

		if p.posts != 1 {
			t.Fatalf("run=%d expected allocations posted exactly once, got %d", run, p.posts)
		}
		if p.status[1] != models.PaymentStatusVerified {
			t.Fatalf("run=%d expected payment Verified, got %s", run, p.status[1])
		}
	}
}

func TestPaymentDecision_VerifyRejectRace_FirstDecisionWins(t *testing.T) {
	for run := 0; run < 100; run++ {
		p := newFakePoster()
		p.seed(1, models.PaymentStatusPendingVerification)

		var wg sync.WaitGroup
		wins := make([]bool, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			wins[0] = p.decide("biz-1", 1, models.PaymentStatusVerified)
		}()
		go func() {
			defer wg.Done()
			wins[1] = p.decide("biz-1", 1, models.PaymentStatusRejected)
		}()
		wg.Wait()

		if wins[0] == wins[1] {
			t.Fatalf("run=%d expected exactly one decision to win, got verify=%v reject=%v",
				run, wins[0], wins[1])
		}
		if wins[0] && p.status[1] != models.PaymentStatusVerified {
			t.Fatalf("run=%d verify won but status is %s", run, p.status[1])
		}
		if wins[1] && p.status[1] != models.PaymentStatusRejected {
			t.Fatalf("run=%d reject won but status is %s", run, p.status[1])
		}
	}
}
