package settlement

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
)

func TestFullRoundEmitsEventsInOrder(t *testing.T) {
	h, _ := settledRound(t)
	if _, err := h.engine.CreateRewardPot(h.ctx, authority, Ref(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.MintRewards(h.ctx, authority, Ref(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.CalculateEntitlements(h.ctx, authority, Ref(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.ClaimReward(h.ctx, bob, Ref(0)); err != nil {
		t.Fatal(err)
	}

	want := []string{
		EventCurrencyInitialized, EventConfigInitialized,
		EventDeposit, EventDeposit,
		EventRoundStarted, EventWagerPlaced, EventWagerPlaced, EventWagerPlaced,
		EventRoundFinalized, EventPayoutClaimed,
		EventRewardPotCreated, EventRewardsMinted, EventEntitlementsCalculated, EventRewardClaimed,
	}
	if got := h.events.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("events =\n%v\nwant\n%v", got, want)
	}
}

func TestRejectedOperationEmitsNothing(t *testing.T) {
	h := newHarness(t)
	h.setup()
	before := len(h.events.types())

	_, _ = h.engine.Withdraw(h.ctx, alice, 1)
	_, _ = h.engine.UpdateHouseFee(h.ctx, mallory, 1)

	if got := len(h.events.types()); got != before {
		t.Errorf("rejected operations emitted %d events", got-before)
	}
}

func TestConsecutiveRounds(t *testing.T) {
	h := newHarness(t)
	h.setup()
	h.deposit(alice, 1_000_000_000)
	h.deposit(bob, 1_000_000_000)

	for id := uint64(0); id < 3; id++ {
		seed := seedOf(byte(id + 1))
		h.start(id, seed)
		h.wager(alice, id, 30_000_000)
		h.wager(bob, id, 10_000_000)
		r, err := h.engine.FinalizeRound(h.ctx, authority, Ref(id), seed)
		if err != nil {
			t.Fatal(err)
		}
		if r.HouseFeeAmount != 40_000 {
			t.Errorf("round %d fee = %d", id, r.HouseFeeAmount)
		}
		if _, err := h.engine.ClaimPayout(h.ctx, r.WinnerAddress, Ref(id)); err != nil {
			t.Fatal(err)
		}
	}

	cfg, _ := h.engine.Config(h.ctx)
	if cfg.RoundCounter != 3 {
		t.Errorf("RoundCounter = %d, want 3", cfg.RoundCounter)
	}
	total := h.escrow(alice) + h.escrow(bob) + h.native(house)
	if total != 2_000_000_000 {
		t.Errorf("funds not conserved: %d", total)
	}
}

func TestConcurrentWagers(t *testing.T) {
	h := newHarness(t)
	h.setup()
	players := []ledger.Address{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	for _, p := range players {
		h.deposit(p, 1_000_000_000)
	}
	h.start(0, seedOf(1))

	var wg sync.WaitGroup
	for _, p := range players {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(p ledger.Address) {
				defer wg.Done()
				if _, err := h.engine.PlaceWager(context.Background(), p, Ref(0), 10_000_000); err != nil {
					t.Errorf("PlaceWager(%s): %v", p, err)
				}
			}(p)
		}
	}
	wg.Wait()

	r, err := h.engine.Round(h.ctx, Ref(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Participants) != len(players) {
		t.Fatalf("participants = %d, want %d", len(r.Participants), len(players))
	}
	var sum uint64
	for _, p := range r.Participants {
		if p.Amount != 50_000_000 {
			t.Errorf("%s amount = %d, want 50000000", p.Address, p.Amount)
		}
		sum += p.Amount
	}
	if sum != r.TotalWagerPot || sum != 400_000_000 {
		t.Errorf("pot = %d, sum = %d", r.TotalWagerPot, sum)
	}
}

// stalledNotifier simula um broker fora do ar: só retorna quando o contexto expira
type stalledNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *stalledNotifier) Publish(ctx context.Context, ev Event) error {
	<-ctx.Done()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, ctx.Err())
	return ctx.Err()
}

func TestStalledNotifierDoesNotHoldOperation(t *testing.T) {
	stalled := &stalledNotifier{}
	eng := NewEngine(ledger.NewMemory(), Options{Notifier: stalled, PublishTimeout: 50 * time.Millisecond})

	start := time.Now()
	esc, err := eng.Deposit(context.Background(), alice, 100_000_000)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Deposit took %s with a stalled notifier", elapsed)
	}
	if esc.Balance != 100_000_000 {
		t.Fatalf("balance = %d", esc.Balance)
	}

	stalled.mu.Lock()
	defer stalled.mu.Unlock()
	if len(stalled.errs) != 1 || !errors.Is(stalled.errs[0], context.DeadlineExceeded) {
		t.Fatalf("publish errors = %v", stalled.errs)
	}
}

func TestPublishSurvivesCallerCancellation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	n := &cancelOnPublish{cancel: cancel}
	h.engine = NewEngine(h.store, Options{Notifier: n, Clock: h.clock.Now})

	if _, err := h.engine.Deposit(ctx, alice, 100_000_000); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := h.engine.Deposit(context.Background(), alice, 1); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if n.calls != 2 || n.sawCanceled {
		t.Fatalf("calls=%d sawCanceled=%v", n.calls, n.sawCanceled)
	}
}

// cancelOnPublish cancela o contexto do chamador na primeira publicação
type cancelOnPublish struct {
	cancel      context.CancelFunc
	calls       int
	sawCanceled bool
}

func (n *cancelOnPublish) Publish(ctx context.Context, ev Event) error {
	n.calls++
	n.cancel()
	if ctx.Err() != nil {
		n.sawCanceled = true
	}
	return nil
}
