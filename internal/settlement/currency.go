package settlement

import (
	"context"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
	"github.com/radieske/spin-wheel-settlement/internal/token"
)

type CurrencyRequest struct {
	ID             string
	Decimals       uint8
	TransferFeeBps uint16
	MaximumFee     uint64
}

// InitializeRewardCurrency cria a moeda de recompensa
// O motor é a autoridade de emissão; quem chama fica com a autoridade de taxa
// Depois da config criada, só a autoridade do jogo pode chamar
func (e *Engine) InitializeRewardCurrency(ctx context.Context, caller ledger.Address, req CurrencyRequest) (token.Mint, error) {
	var m token.Mint
	err := e.exec(ctx, "initialize_reward_currency", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		if _, err := e.authorize(ctx, tx, caller); err != nil && !errs.Is(err, errs.NotInitialized) {
			return err
		}
		var err error
		m, err = token.InitializeMint(ctx, tx, token.MintConfig{
			ID:             req.ID,
			Decimals:       req.Decimals,
			MintAuthority:  MintAuthorityAddress(),
			FeeAuthority:   caller,
			TransferFeeBps: req.TransferFeeBps,
			MaximumFee:     req.MaximumFee,
		})
		if errs.Is(err, errs.AccountExists) {
			return errs.AlreadyInitialized
		}
		if err != nil {
			return err
		}
		st.emit(Event{Type: EventCurrencyInitialized, Actor: caller, At: e.now()})
		return nil
	})
	if err != nil {
		return token.Mint{}, err
	}
	return m, nil
}

// HarvestRewardFees recolhe para a moeda as taxas retidas nas contas dos owners
func (e *Engine) HarvestRewardFees(ctx context.Context, caller ledger.Address, owners []ledger.Address) (uint64, error) {
	var total uint64
	err := e.exec(ctx, "harvest_reward_fees", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.authorize(ctx, tx, caller)
		if err != nil {
			return err
		}
		if total, err = token.Harvest(ctx, tx, cfg.RewardCurrency, owners, e.now()); err != nil {
			return err
		}
		st.emit(Event{Type: EventRewardFeesHarvested, Actor: caller, Amount: total, At: e.now()})
		return nil
	})
	return total, err
}

// WithdrawRewardFees saca as taxas recolhidas para a conta de quem tem a autoridade de taxa
func (e *Engine) WithdrawRewardFees(ctx context.Context, caller ledger.Address) (uint64, error) {
	var amount uint64
	err := e.exec(ctx, "withdraw_reward_fees", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		cfg, err := e.loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if amount, err = token.WithdrawWithheld(ctx, tx, cfg.RewardCurrency, caller, caller, e.now()); err != nil {
			return err
		}
		st.emit(Event{Type: EventRewardFeesWithdrawn, Actor: caller, Amount: amount, At: e.now()})
		return nil
	})
	return amount, err
}
