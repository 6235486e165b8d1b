package settlement

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
	"github.com/radieske/spin-wheel-settlement/internal/token"
)

// CreateRewardPot aloca o pote de recompensa da rodada
func (e *Engine) CreateRewardPot(ctx context.Context, caller ledger.Address, ref RoundRef) (RewardPot, error) {
	var pot RewardPot
	err := e.exec(ctx, "create_reward_pot", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.authorize(ctx, tx, caller)
		if err != nil {
			return err
		}
		if err := ref.verifyCurrency(cfg); err != nil {
			return err
		}
		r, err := e.loadRound(ctx, tx, ref)
		if err != nil {
			return err
		}
		if err := requirePhase(r, StatusPayoutClaimed); err != nil {
			return err
		}

		addr := RewardPotAddress(r.ID)
		pot = RewardPot{
			RoundID:       r.ID,
			Address:       addr,
			RewardAccount: token.AccountAddress(addr, cfg.RewardCurrency),
		}
		if err := tx.Create(ctx, addr, ledger.KindRewardPot, pot); err != nil {
			return err
		}
		r.Status = StatusRewardPotCreated
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.emit(roundEvent(EventRewardPotCreated, caller, 0, r, e.now()))
		return nil
	})
	if err != nil {
		return RewardPot{}, err
	}
	return pot, nil
}

// MintRewards emite Params.RewardPerRound da moeda de recompensa no pote
func (e *Engine) MintRewards(ctx context.Context, caller ledger.Address, ref RoundRef) (RewardPot, error) {
	var pot RewardPot
	reward := e.params.RewardPerRound
	err := e.exec(ctx, "mint_rewards", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.authorize(ctx, tx, caller)
		if err != nil {
			return err
		}
		if err := ref.verifyCurrency(cfg); err != nil {
			return err
		}
		r, err := e.loadRound(ctx, tx, ref)
		if err != nil {
			return err
		}
		if err := requirePhase(r, StatusRewardPotCreated); err != nil {
			return err
		}
		if err := tx.Get(ctx, RewardPotAddress(r.ID), &pot); err != nil {
			return err
		}

		now := e.now()
		if reward > 0 {
			if _, err := token.MintTo(ctx, tx, cfg.RewardCurrency, MintAuthorityAddress(), pot.Address, reward, now); err != nil {
				return err
			}
		}
		pot.TotalMinted = reward
		r.TotalRewardMinted = reward
		r.Status = StatusRewardsMinted
		if err := tx.Put(ctx, pot.Address, ledger.KindRewardPot, pot); err != nil {
			return err
		}
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.emit(roundEvent(EventRewardsMinted, caller, reward, r, now))
		return nil
	})
	if err != nil {
		return RewardPot{}, err
	}
	return pot, nil
}

// CalculateEntitlements preenche a parte de cada participante, proporcional à aposta
// O resto da divisão inteira fica no pote
func (e *Engine) CalculateEntitlements(ctx context.Context, caller ledger.Address, ref RoundRef) (Round, error) {
	var r Round
	err := e.exec(ctx, "calculate_entitlements", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		if _, err := e.authorize(ctx, tx, caller); err != nil {
			return err
		}
		var err error
		if r, err = e.loadRound(ctx, tx, ref); err != nil {
			return err
		}
		if err := requirePhase(r, StatusRewardsMinted); err != nil {
			return err
		}

		entries := make([]RewardEntry, 0, len(r.Participants))
		var sum uint64
		for _, p := range r.Participants {
			amt, err := Entitlement(p.Amount, r.TotalRewardMinted, r.TotalWagerPot)
			if err != nil {
				return err
			}
			sum += amt
			entries = append(entries, RewardEntry{Address: p.Address, Entitlement: amt})
		}
		if sum > r.TotalRewardMinted {
			return errs.Wrap(errs.ArithmeticOverflow, "entitlements %d exceed minted %d", sum, r.TotalRewardMinted)
		}
		r.RewardEntries = entries
		r.Status = StatusRewardsEntitled
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.emit(roundEvent(EventEntitlementsCalculated, caller, sum, r, e.now()))
		return nil
	})
	if err != nil {
		return Round{}, err
	}
	return r, nil
}

// ClaimReward transfere a parte do participante do pote para a conta dele na moeda
// O pote é debitado pelo bruto; o participante recebe o líquido da taxa da moeda
// Parte zero só marca como resgatada
func (e *Engine) ClaimReward(ctx context.Context, caller ledger.Address, ref RoundRef) (RewardClaim, error) {
	var claim RewardClaim
	err := e.exec(ctx, "claim_reward", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if err := ref.verifyCurrency(cfg); err != nil {
			return err
		}
		r, err := e.loadRound(ctx, tx, ref)
		if err != nil {
			return err
		}
		if err := requirePhase(r, StatusRewardsEntitled); err != nil {
			return err
		}
		idx := r.rewardEntry(caller)
		if idx < 0 {
			return errs.Wrap(errs.NotEntitled, "round %d", r.ID)
		}
		entry := r.RewardEntries[idx]
		if entry.Claimed {
			return errs.Wrap(errs.AlreadyClaimed, "round %d reward", r.ID)
		}

		claim = RewardClaim{RoundID: r.ID, Entitlement: entry.Entitlement}
		now := e.now()
		if entry.Entitlement > 0 {
			var pot RewardPot
			if err := tx.Get(ctx, RewardPotAddress(r.ID), &pot); err != nil {
				return err
			}
			receipt, err := token.Transfer(ctx, tx, cfg.RewardCurrency, pot.Address, caller, entry.Entitlement, now)
			if err != nil {
				return err
			}
			claim.Fee, claim.Received = receipt.Fee, receipt.Net
			pot.TotalClaimed += receipt.Gross
			if err := tx.Put(ctx, pot.Address, ledger.KindRewardPot, pot); err != nil {
				return err
			}
		}

		r.RewardEntries[idx].Claimed = true
		if err := putRound(ctx, tx, r); err != nil {
			return err
		}
		st.emit(roundEvent(EventRewardClaimed, caller, entry.Entitlement, r, now))
		return nil
	})
	if err != nil {
		return RewardClaim{}, err
	}
	e.log.Info("reward claimed",
		zap.Uint64("round_id", claim.RoundID),
		zap.String("participant", caller.String()),
		zap.Uint64("entitlement", claim.Entitlement),
		zap.Uint64("received", claim.Received))
	return claim, nil
}
