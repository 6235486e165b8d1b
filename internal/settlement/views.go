package settlement

import (
	"context"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/token"
)

// Leituras somente consulta; rodam numa transação própria e não emitem eventos

func (e *Engine) Config(ctx context.Context) (GameConfig, error) {
	var cfg GameConfig
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		cfg, err = e.loadConfig(ctx, tx)
		return err
	})
	return cfg, err
}

// Escrow devolve o saldo custodiado; dono sem registro tem saldo zero
func (e *Engine) Escrow(ctx context.Context, owner ledger.Address) (UserEscrow, error) {
	var esc UserEscrow
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		esc, err = loadEscrow(ctx, tx, owner)
		return err
	})
	return esc, err
}

func (e *Engine) Round(ctx context.Context, ref RoundRef) (Round, error) {
	var r Round
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		r, err = e.loadRound(ctx, tx, ref)
		return err
	})
	return r, err
}

func (e *Engine) RewardPot(ctx context.Context, ref RoundRef) (RewardPot, error) {
	var pot RewardPot
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := ref.verify(); err != nil {
			return err
		}
		return tx.Get(ctx, RewardPotAddress(ref.ID), &pot)
	})
	return pot, err
}

// NativeBalance devolve a carteira externa de owner (saques recebidos, taxas da casa)
func (e *Engine) NativeBalance(ctx context.Context, owner ledger.Address) (NativeAccount, error) {
	var acc NativeAccount
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		acc, err = loadNative(ctx, tx, WalletAddress(owner), owner)
		return err
	})
	return acc, err
}

// VaultBalance devolve o que ainda está no cofre da rodada
func (e *Engine) VaultBalance(ctx context.Context, roundID uint64) (NativeAccount, error) {
	var acc NativeAccount
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		acc, err = loadNative(ctx, tx, VaultAddress(roundID), RoundAddress(roundID))
		return err
	})
	return acc, err
}

// RewardBalance devolve a conta de owner na moeda de recompensa
func (e *Engine) RewardBalance(ctx context.Context, owner ledger.Address) (token.Account, error) {
	var acc token.Account
	err := e.store.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cfg, err := e.loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		acc, err = token.LoadAccount(ctx, tx, owner, cfg.RewardCurrency)
		return err
	})
	return acc, err
}

// Entries devolve o diário de movimentos de um endereço
func (e *Engine) Entries(ctx context.Context, addr ledger.Address) ([]ledger.Entry, error) {
	return e.store.Entries(ctx, addr)
}

func (e *Engine) Ping(ctx context.Context) error { return e.store.Ping(ctx) }
