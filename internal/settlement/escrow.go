package settlement

import (
	"context"
	"math/bits"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

// Deposit credita amount no escrow de caller, criando o registro se preciso
func (e *Engine) Deposit(ctx context.Context, caller ledger.Address, amount uint64) (UserEscrow, error) {
	var esc UserEscrow
	err := e.exec(ctx, "deposit", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		if amount == 0 {
			return errs.Wrap(errs.InvalidAmount, "deposit zero")
		}
		var err error
		if esc, err = loadEscrow(ctx, tx, caller); err != nil {
			return err
		}
		bal, carry := bits.Add64(esc.Balance, amount, 0)
		if carry != 0 {
			return errs.Wrap(errs.ArithmeticOverflow, "escrow balance")
		}
		esc.Balance = bal
		if err := putEscrow(ctx, tx, esc); err != nil {
			return err
		}
		now := e.now()
		if err := tx.Record(ctx, ledger.NewEntry("deposit", ledger.AssetNative, "", EscrowAddress(caller), amount, now)); err != nil {
			return err
		}
		st.moved("deposit", amount)
		st.emit(Event{Type: EventDeposit, Actor: caller, Amount: amount, At: now})
		return nil
	})
	if err != nil {
		return UserEscrow{}, err
	}
	return esc, nil
}

// Withdraw debita amount + taxa fixa do escrow
// A taxa vai para a casa e amount para a carteira externa do dono
func (e *Engine) Withdraw(ctx context.Context, caller ledger.Address, amount uint64) (UserEscrow, error) {
	var esc UserEscrow
	fee := e.params.WithdrawalFee
	err := e.exec(ctx, "withdraw", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		if amount == 0 {
			return errs.Wrap(errs.InvalidAmount, "withdraw zero")
		}
		cfg, err := e.loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		total, carry := bits.Add64(amount, fee, 0)
		if carry != 0 {
			return errs.Wrap(errs.ArithmeticOverflow, "withdraw total")
		}
		if esc, err = loadEscrow(ctx, tx, caller); err != nil {
			return err
		}
		if esc.Balance < total {
			return errs.Wrap(errs.InsufficientBalance, "balance %d need %d", esc.Balance, total)
		}
		esc.Balance -= total
		if err := putEscrow(ctx, tx, esc); err != nil {
			return err
		}

		now := e.now()
		from := EscrowAddress(caller)
		if err := creditNative(ctx, tx, ledger.KindNative, WalletAddress(caller), caller, amount); err != nil {
			return err
		}
		if err := tx.Record(ctx, ledger.NewEntry("withdraw", ledger.AssetNative, from, WalletAddress(caller), amount, now)); err != nil {
			return err
		}
		if fee > 0 {
			if err := creditNative(ctx, tx, ledger.KindNative, WalletAddress(cfg.HouseAddress), cfg.HouseAddress, fee); err != nil {
				return err
			}
			if err := tx.Record(ctx, ledger.NewEntry("withdraw_fee", ledger.AssetNative, from, WalletAddress(cfg.HouseAddress), fee, now)); err != nil {
				return err
			}
		}
		st.moved("withdraw", amount)
		st.moved("withdraw_fee", fee)
		st.emit(Event{Type: EventWithdraw, Actor: caller, Amount: amount, At: now})
		return nil
	})
	if err != nil {
		return UserEscrow{}, err
	}
	e.log.Debug("withdraw settled", zap.String("owner", caller.String()), zap.Uint64("amount", amount), zap.Uint64("fee", fee))
	return esc, nil
}

// debitForWager move amount do escrow do participante para o cofre da rodada
func (e *Engine) debitForWager(ctx context.Context, tx ledger.Tx, owner ledger.Address, roundID, amount uint64) error {
	esc, err := loadEscrow(ctx, tx, owner)
	if err != nil {
		return err
	}
	if esc.Balance < amount {
		return errs.Wrap(errs.InsufficientBalance, "balance %d need %d", esc.Balance, amount)
	}
	esc.Balance -= amount
	if err := putEscrow(ctx, tx, esc); err != nil {
		return err
	}
	if err := creditNative(ctx, tx, ledger.KindVault, VaultAddress(roundID), RoundAddress(roundID), amount); err != nil {
		return err
	}
	return tx.Record(ctx, ledger.NewEntry("wager", ledger.AssetNative, EscrowAddress(owner), VaultAddress(roundID), amount, e.now()).ForRound(roundID))
}

// creditPayout move amount do cofre da rodada para o escrow do participante
func (e *Engine) creditPayout(ctx context.Context, tx ledger.Tx, owner ledger.Address, roundID, amount uint64) error {
	if err := debitNative(ctx, tx, ledger.KindVault, VaultAddress(roundID), amount); err != nil {
		return err
	}
	esc, err := loadEscrow(ctx, tx, owner)
	if err != nil {
		return err
	}
	bal, carry := bits.Add64(esc.Balance, amount, 0)
	if carry != 0 {
		return errs.Wrap(errs.ArithmeticOverflow, "escrow balance")
	}
	esc.Balance = bal
	if err := putEscrow(ctx, tx, esc); err != nil {
		return err
	}
	return tx.Record(ctx, ledger.NewEntry("payout", ledger.AssetNative, VaultAddress(roundID), EscrowAddress(owner), amount, e.now()).ForRound(roundID))
}

// loadEscrow devolve o escrow do dono ou um registro zerado se ainda não existe
func loadEscrow(ctx context.Context, tx ledger.Tx, owner ledger.Address) (UserEscrow, error) {
	var esc UserEscrow
	err := tx.Get(ctx, EscrowAddress(owner), &esc)
	if errs.Is(err, errs.AccountNotFound) {
		return UserEscrow{Owner: owner}, nil
	}
	return esc, err
}

func putEscrow(ctx context.Context, tx ledger.Tx, esc UserEscrow) error {
	return tx.Put(ctx, EscrowAddress(esc.Owner), ledger.KindEscrow, esc)
}

func loadNative(ctx context.Context, tx ledger.Tx, addr, owner ledger.Address) (NativeAccount, error) {
	var acc NativeAccount
	err := tx.Get(ctx, addr, &acc)
	if errs.Is(err, errs.AccountNotFound) {
		return NativeAccount{Owner: owner}, nil
	}
	return acc, err
}

func creditNative(ctx context.Context, tx ledger.Tx, kind ledger.Kind, addr, owner ledger.Address, amount uint64) error {
	acc, err := loadNative(ctx, tx, addr, owner)
	if err != nil {
		return err
	}
	bal, carry := bits.Add64(acc.Balance, amount, 0)
	if carry != 0 {
		return errs.Wrap(errs.ArithmeticOverflow, "native balance %s", addr)
	}
	acc.Balance = bal
	return tx.Put(ctx, addr, kind, acc)
}

func debitNative(ctx context.Context, tx ledger.Tx, kind ledger.Kind, addr ledger.Address, amount uint64) error {
	var acc NativeAccount
	if err := tx.Get(ctx, addr, &acc); err != nil {
		return err
	}
	if acc.Balance < amount {
		return errs.Wrap(errs.InsufficientFunds, "native balance %s has %d need %d", addr, acc.Balance, amount)
	}
	acc.Balance -= amount
	return tx.Put(ctx, addr, kind, acc)
}
