package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/spin-wheel-settlement/internal/settlement"
)

func sampleRound() settlement.Round {
	seed, _ := settlement.ParseSeed("0101010101010101010101010101010101010101010101010101010101010101")
	idx := 1
	return settlement.Round{
		ID:             7,
		Status:         settlement.StatusRewardsEntitled,
		Capacity:       10,
		SeedCommitment: settlement.Commitment(seed),
		RevealedSeed:   &seed,
		StartTime:      time.UnixMilli(1_700_000_000_000),
		EndTime:        time.UnixMilli(1_700_000_060_000),
		TotalWagerPot:  170_000_000,
		Participants: []settlement.Participant{
			{Address: "alice", Amount: 120_000_000},
			{Address: "bob", Amount: 50_000_000},
		},
		WinnerIndex:       &idx,
		WinnerAddress:     "bob",
		WinnerAmount:      169_830_000,
		WinnerClaimed:     true,
		HouseFeeAmount:    170_000,
		TotalRewardMinted: 1_000_000,
		RewardEntries: []settlement.RewardEntry{
			{Address: "alice", Entitlement: 705_882, Claimed: true},
			{Address: "bob", Entitlement: 294_117},
		},
	}
}

func TestToSnapshot(t *testing.T) {
	s := ToSnapshot(sampleRound())

	if s.RoundID != 7 || s.Status != "RewardsEntitled" || s.StatusCode != 5 {
		t.Errorf("header = %+v", s)
	}
	if s.Address != settlement.RoundAddress(7).String() {
		t.Errorf("address = %s", s.Address)
	}
	if s.RevealedSeed != "0101010101010101010101010101010101010101010101010101010101010101" {
		t.Errorf("revealed seed = %s", s.RevealedSeed)
	}
	if s.StartUnixMs != 1_700_000_000_000 || s.EndUnixMs != 1_700_000_060_000 {
		t.Errorf("times = %d %d", s.StartUnixMs, s.EndUnixMs)
	}
	if len(s.Participants) != 2 {
		t.Fatalf("participants = %d", len(s.Participants))
	}
	if p := s.Participants[0]; p.Address != "alice" || p.Entitlement != 705_882 || !p.Claimed {
		t.Errorf("participants[0] = %+v", p)
	}
	if p := s.Participants[1]; p.Entitlement != 294_117 || p.Claimed {
		t.Errorf("participants[1] = %+v", p)
	}
}

func TestToEventAndKey(t *testing.T) {
	r := sampleRound()
	id := r.ID
	ev := settlement.Event{ID: uuid.New(), Type: settlement.EventRewardClaimed, Actor: "alice", Amount: 705_882, RoundID: &id, Round: &r, At: time.UnixMilli(42)}

	out := ToEvent(ev)
	if out.EventID != ev.ID.String() || out.Type != "reward_claimed" || out.TsUnixMs != 42 {
		t.Errorf("event = %+v", out)
	}
	if out.Round == nil || out.Round.RoundID != 7 {
		t.Errorf("round snapshot missing")
	}
	if got := eventKey(ev); got != "round:7" {
		t.Errorf("eventKey = %s", got)
	}
	if got := eventKey(settlement.Event{Actor: "alice"}); got != "actor:alice" {
		t.Errorf("eventKey without round = %s", got)
	}
}

type stubNotifier struct {
	n   int
	err error
}

func (s *stubNotifier) Publish(ctx context.Context, ev settlement.Event) error {
	s.n++
	return s.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	boom := errors.New("broker down")
	a, b := &stubNotifier{err: boom}, &stubNotifier{}

	err := Fanout{a, b}.Publish(context.Background(), settlement.Event{Type: settlement.EventDeposit})
	if !errors.Is(err, boom) {
		t.Errorf("Fanout error = %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Errorf("deliveries = %d, %d", a.n, b.n)
	}
}
