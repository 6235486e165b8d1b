package settlement

import (
	"context"
	"math/bits"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

type StartRoundRequest struct {
	SeedCommitment Seed
	Duration       time.Duration
	RoundID        uint64 // tem de ser igual ao round_counter atual
	Capacity       int    // zero usa Params.DefaultCapacity
}

// StartRound abre a rodada round_counter e incrementa o contador
// A rodada anterior precisa estar encerrada: PayoutClaimed ou além,
// ou ainda em Betting sem participantes e com a janela vencida (abandonada)
func (e *Engine) StartRound(ctx context.Context, caller ledger.Address, req StartRoundRequest) (Round, error) {
	var r Round
	err := e.exec(ctx, "start_round", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.authorize(ctx, tx, caller)
		if err != nil {
			return err
		}
		if req.RoundID != cfg.RoundCounter {
			return errs.Wrap(errs.StaleRoundID, "expected %d, counter is %d", req.RoundID, cfg.RoundCounter)
		}
		if req.Duration < e.params.MinRoundDuration || req.Duration > e.params.MaxRoundDuration {
			return errs.Wrap(errs.InvalidTimeParameters, "duration %s", req.Duration)
		}
		capacity := req.Capacity
		if capacity == 0 {
			capacity = e.params.DefaultCapacity
		}
		if capacity < 1 || capacity > e.params.MaxCapacity {
			return errs.Wrap(errs.InvalidCapacity, "capacity %d", capacity)
		}

		now := e.now()
		if cfg.RoundCounter > 0 {
			var prev Round
			if err := tx.Get(ctx, RoundAddress(cfg.RoundCounter-1), &prev); err != nil {
				return err
			}
			if !woundDown(prev, now) {
				return errs.Wrap(errs.RoundStillOpen, "round %d is %s", prev.ID, prev.Status)
			}
		}

		r = Round{
			ID:             cfg.RoundCounter,
			Status:         StatusBetting,
			Capacity:       capacity,
			SeedCommitment: req.SeedCommitment,
			StartTime:      now,
			EndTime:        now.Add(req.Duration),
			Participants:   make([]Participant, 0, capacity),
		}
		if err := tx.Create(ctx, RoundAddress(r.ID), ledger.KindRound, r); err != nil {
			return err
		}
		if err := tx.Create(ctx, VaultAddress(r.ID), ledger.KindVault, NativeAccount{Owner: RoundAddress(r.ID)}); err != nil {
			return err
		}
		cfg.RoundCounter++
		if err := tx.Put(ctx, ConfigAddress(), ledger.KindConfig, cfg); err != nil {
			return err
		}
		st.emit(roundEvent(EventRoundStarted, caller, 0, r, now))
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	e.log.Info("round started",
		zap.Uint64("round_id", r.ID),
		zap.Time("end_time", r.EndTime),
		zap.Int("capacity", r.Capacity))
	return r, nil
}

func woundDown(r Round, now time.Time) bool {
	switch {
	case r.Status >= StatusPayoutClaimed:
		return true
	case r.Status == StatusBetting:
		return len(r.Participants) == 0 && !now.Before(r.EndTime)
	}
	return false
}

// PlaceWager debita amount do escrow de caller e soma na entrada dele na rodada
// Uma nova entrada só entra se houver vaga; a posição de cada entrada não muda
func (e *Engine) PlaceWager(ctx context.Context, caller ledger.Address, ref RoundRef, amount uint64) (Round, error) {
	var r Round
	err := e.exec(ctx, "place_wager", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		var err error
		if r, err = e.loadRound(ctx, tx, ref); err != nil {
			return err
		}
		if err := requirePhase(r, StatusBetting); err != nil {
			return err
		}
		now := e.now()
		if !now.Before(r.EndTime) {
			return errs.Wrap(errs.BetWindowClosed, "round %d closed at %s", r.ID, r.EndTime)
		}
		if amount < e.params.MinWager || amount > e.params.MaxWager {
			return errs.Wrap(errs.InvalidAmount, "wager %d outside [%d, %d]", amount, e.params.MinWager, e.params.MaxWager)
		}

		idx := r.participant(caller)
		if idx < 0 && len(r.Participants) >= r.Capacity {
			return errs.Wrap(errs.CapacityExceeded, "round %d has %d participants", r.ID, r.Capacity)
		}
		pot, carry := bits.Add64(r.TotalWagerPot, amount, 0)
		if carry != 0 {
			return errs.Wrap(errs.ArithmeticOverflow, "wager pot")
		}
		if err := e.debitForWager(ctx, tx, caller, r.ID, amount); err != nil {
			return err
		}
		if idx < 0 {
			r.Participants = append(r.Participants, Participant{Address: caller, Amount: amount})
		} else {
			r.Participants[idx].Amount += amount
		}
		r.TotalWagerPot = pot
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.moved("wager", amount)
		st.emit(roundEvent(EventWagerPlaced, caller, amount, r, now))
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	return r, nil
}

// FinalizeRound confere o segredo revelado, sorteia o vencedor ponderado e separa a taxa da casa
// Não depende do relógio: a autoridade decide quando fechar
func (e *Engine) FinalizeRound(ctx context.Context, caller ledger.Address, ref RoundRef, revealed Seed) (Round, error) {
	var r Round
	err := e.exec(ctx, "finalize_round", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.authorize(ctx, tx, caller)
		if err != nil {
			return err
		}
		if r, err = e.loadRound(ctx, tx, ref); err != nil {
			return err
		}
		if err := requirePhase(r, StatusBetting); err != nil {
			return err
		}
		if !VerifyReveal(r.SeedCommitment, revealed) {
			return errs.Wrap(errs.InvalidRevealedSeed, "round %d", r.ID)
		}
		if len(r.Participants) == 0 {
			return errs.Wrap(errs.NoParticipants, "round %d", r.ID)
		}

		fee, winnerAmount, err := HouseFee(r.TotalWagerPot, cfg.WagerFeeBps, cfg.FeeCapBps)
		if err != nil {
			return err
		}
		idx, err := SelectWinner(revealed, r.ID, r.Participants)
		if err != nil {
			return err
		}

		now := e.now()
		if fee > 0 {
			if err := debitNative(ctx, tx, ledger.KindVault, VaultAddress(r.ID), fee); err != nil {
				return err
			}
			if err := creditNative(ctx, tx, ledger.KindNative, WalletAddress(cfg.HouseAddress), cfg.HouseAddress, fee); err != nil {
				return err
			}
			if err := tx.Record(ctx, ledger.NewEntry("house_fee", ledger.AssetNative, VaultAddress(r.ID), WalletAddress(cfg.HouseAddress), fee, now).ForRound(r.ID)); err != nil {
				return err
			}
		}

		seed := revealed
		r.RevealedSeed = &seed
		r.WinnerIndex = &idx
		r.WinnerAddress = r.Participants[idx].Address
		r.WinnerAmount = winnerAmount
		r.HouseFeeAmount = fee
		r.Status = StatusAwaitingPayoutClaim
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.moved("house_fee", fee)
		st.emit(roundEvent(EventRoundFinalized, caller, fee, r, now))
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	e.log.Info("round finalized",
		zap.Uint64("round_id", r.ID),
		zap.String("winner", r.WinnerAddress.String()),
		zap.Uint64("pot", r.TotalWagerPot),
		zap.Uint64("house_fee", r.HouseFeeAmount))
	return r, nil
}

// ClaimPayout credita o prêmio no escrow do vencedor; só uma vez
func (e *Engine) ClaimPayout(ctx context.Context, caller ledger.Address, ref RoundRef) (Round, error) {
	var r Round
	err := e.exec(ctx, "claim_payout", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		var err error
		if r, err = e.loadRound(ctx, tx, ref); err != nil {
			return err
		}
		if r.WinnerClaimed {
			return errs.Wrap(errs.AlreadyClaimed, "round %d payout", r.ID)
		}
		if err := requirePhase(r, StatusAwaitingPayoutClaim); err != nil {
			return err
		}
		if caller != r.WinnerAddress {
			return errs.Wrap(errs.NotWinner, "round %d", r.ID)
		}
		if err := e.creditPayout(ctx, tx, caller, r.ID, r.WinnerAmount); err != nil {
			return err
		}
		r.WinnerClaimed = true
		r.Status = StatusPayoutClaimed
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.moved("payout", r.WinnerAmount)
		st.emit(roundEvent(EventPayoutClaimed, caller, r.WinnerAmount, r, e.now()))
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	return r, nil
}
