package token

import (
	"context"
	"math/bits"
	"time"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

// MaxTransferFeeBps limita a taxa de transferência configurável numa moeda (5%)
const MaxTransferFeeBps uint16 = 500

// Mint é a moeda de recompensa, com extensão de taxa de transferência
// A taxa cobrada fica retida na conta de destino até o harvest
type Mint struct {
	Address        ledger.Address `json:"address"`
	ID             string         `json:"id"`
	Decimals       uint8          `json:"decimals"`
	Supply         uint64         `json:"supply"`
	MintAuthority  ledger.Address `json:"mint_authority"`
	FeeAuthority   ledger.Address `json:"fee_authority"`
	TransferFeeBps uint16         `json:"transfer_fee_bps"`
	MaximumFee     uint64         `json:"maximum_fee"`
	Withheld       uint64         `json:"withheld"`
}

// Account é o saldo de um dono numa moeda
type Account struct {
	Address  ledger.Address `json:"address"`
	Owner    ledger.Address `json:"owner"`
	Mint     ledger.Address `json:"mint"`
	Amount   uint64         `json:"amount"`
	Withheld uint64         `json:"withheld"`
}

// Receipt descreve uma transferência: Gross sai da origem, Net chega ao destino
type Receipt struct {
	Gross uint64 `json:"gross"`
	Fee   uint64 `json:"fee"`
	Net   uint64 `json:"net"`
}

func MintAddress(id string) ledger.Address { return ledger.Derive("mint", []byte(id)) }

func AccountAddress(owner, mint ledger.Address) ledger.Address {
	return ledger.Derive("token_account", []byte(owner), []byte(mint))
}

// TransferFee calcula ceil(amount*bps/10000) limitado a maxFee
func TransferFee(amount uint64, bps uint16, maxFee uint64) (uint64, error) {
	if bps == 0 || amount == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(amount, uint64(bps))
	lo, carry := bits.Add64(lo, 9_999, 0)
	hi += carry
	if hi >= 10_000 {
		return 0, errs.FeeCalculationFailed
	}
	fee, _ := bits.Div64(hi, lo, 10_000)
	if fee > maxFee {
		fee = maxFee
	}
	return fee, nil
}

func validateFee(bps uint16, maxFee uint64) error {
	if bps > MaxTransferFeeBps {
		return errs.Wrap(errs.InvalidFeeConfig, "transfer fee %d bps above %d", bps, MaxTransferFeeBps)
	}
	if bps > 0 && maxFee == 0 {
		return errs.Wrap(errs.FeeCalculationFailed, "transfer fee %d bps with zero maximum fee", bps)
	}
	return nil
}

// MintConfig são os parâmetros de criação de uma moeda
type MintConfig struct {
	ID             string
	Decimals       uint8
	MintAuthority  ledger.Address
	FeeAuthority   ledger.Address
	TransferFeeBps uint16
	MaximumFee     uint64
}

// InitializeMint cria a moeda dentro da transação do chamador
func InitializeMint(ctx context.Context, tx ledger.Tx, cfg MintConfig) (Mint, error) {
	if cfg.ID == "" {
		return Mint{}, errs.Wrap(errs.InvalidProgramReference, "empty currency id")
	}
	if err := validateFee(cfg.TransferFeeBps, cfg.MaximumFee); err != nil {
		return Mint{}, err
	}
	m := Mint{
		Address:        MintAddress(cfg.ID),
		ID:             cfg.ID,
		Decimals:       cfg.Decimals,
		MintAuthority:  cfg.MintAuthority,
		FeeAuthority:   cfg.FeeAuthority,
		TransferFeeBps: cfg.TransferFeeBps,
		MaximumFee:     cfg.MaximumFee,
	}
	if err := tx.Create(ctx, m.Address, ledger.KindMint, m); err != nil {
		return Mint{}, err
	}
	return m, nil
}

// LoadMint lê a moeda; endereço desconhecido é InvalidProgramReference
func LoadMint(ctx context.Context, tx ledger.Tx, addr ledger.Address) (Mint, error) {
	var m Mint
	if err := tx.Get(ctx, addr, &m); err != nil {
		if errs.Is(err, errs.AccountNotFound) {
			return Mint{}, errs.Wrap(errs.InvalidProgramReference, "unknown currency %s", addr)
		}
		return Mint{}, err
	}
	return m, nil
}

// LoadAccount devolve a conta do dono; se não existir devolve uma conta zerada
func LoadAccount(ctx context.Context, tx ledger.Tx, owner, mint ledger.Address) (Account, error) {
	addr := AccountAddress(owner, mint)
	var a Account
	err := tx.Get(ctx, addr, &a)
	if errs.Is(err, errs.AccountNotFound) {
		return Account{Address: addr, Owner: owner, Mint: mint}, nil
	}
	return a, err
}

func putAccount(ctx context.Context, tx ledger.Tx, a Account) error {
	return tx.Put(ctx, a.Address, ledger.KindTokenAccount, a)
}

// MintTo emite amount para owner; só a autoridade da moeda pode emitir
func MintTo(ctx context.Context, tx ledger.Tx, mintAddr, authority, owner ledger.Address, amount uint64, at time.Time) (Account, error) {
	m, err := LoadMint(ctx, tx, mintAddr)
	if err != nil {
		return Account{}, err
	}
	if authority != m.MintAuthority {
		return Account{}, errs.Wrap(errs.Unauthorized, "mint authority")
	}
	if amount == 0 {
		return Account{}, errs.Wrap(errs.InvalidAmount, "mint zero")
	}
	supply, carry := bits.Add64(m.Supply, amount, 0)
	if carry != 0 {
		return Account{}, errs.Wrap(errs.ArithmeticOverflow, "supply")
	}
	acc, err := LoadAccount(ctx, tx, owner, mintAddr)
	if err != nil {
		return Account{}, err
	}
	acc.Amount += amount
	m.Supply = supply

	if err := tx.Put(ctx, m.Address, ledger.KindMint, m); err != nil {
		return Account{}, err
	}
	if err := putAccount(ctx, tx, acc); err != nil {
		return Account{}, err
	}
	if err := tx.Record(ctx, ledger.NewEntry("mint", m.ID, m.Address, acc.Address, amount, at)); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Transfer move amount de from para to, retendo a taxa na conta de destino
func Transfer(ctx context.Context, tx ledger.Tx, mintAddr, from, to ledger.Address, amount uint64, at time.Time) (Receipt, error) {
	m, err := LoadMint(ctx, tx, mintAddr)
	if err != nil {
		return Receipt{}, err
	}
	if amount == 0 {
		return Receipt{}, errs.Wrap(errs.InvalidAmount, "transfer zero")
	}
	fee, err := TransferFee(amount, m.TransferFeeBps, m.MaximumFee)
	if err != nil {
		return Receipt{}, err
	}
	if amount < fee {
		return Receipt{}, errs.Wrap(errs.TransferAmountLessThanFee, "amount %d fee %d", amount, fee)
	}

	src, err := LoadAccount(ctx, tx, from, mintAddr)
	if err != nil {
		return Receipt{}, err
	}
	if src.Amount < amount {
		return Receipt{}, errs.Wrap(errs.InsufficientFunds, "have %d need %d", src.Amount, amount)
	}
	src.Amount -= amount
	if err := putAccount(ctx, tx, src); err != nil {
		return Receipt{}, err
	}

	dst, err := LoadAccount(ctx, tx, to, mintAddr)
	if err != nil {
		return Receipt{}, err
	}
	r := Receipt{Gross: amount, Fee: fee, Net: amount - fee}
	dst.Amount += r.Net
	dst.Withheld += r.Fee
	if err := putAccount(ctx, tx, dst); err != nil {
		return Receipt{}, err
	}

	if err := tx.Record(ctx, ledger.NewEntry("transfer", m.ID, src.Address, dst.Address, r.Net, at)); err != nil {
		return Receipt{}, err
	}
	if r.Fee > 0 {
		if err := tx.Record(ctx, ledger.NewEntry("transfer_fee_withheld", m.ID, src.Address, dst.Address, r.Fee, at)); err != nil {
			return Receipt{}, err
		}
	}
	return r, nil
}

// Harvest recolhe as taxas retidas nas contas dos owners para a própria moeda
func Harvest(ctx context.Context, tx ledger.Tx, mintAddr ledger.Address, owners []ledger.Address, at time.Time) (uint64, error) {
	m, err := LoadMint(ctx, tx, mintAddr)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, owner := range owners {
		acc, err := LoadAccount(ctx, tx, owner, mintAddr)
		if err != nil {
			return 0, err
		}
		if acc.Withheld == 0 {
			continue
		}
		if err := tx.Record(ctx, ledger.NewEntry("harvest", m.ID, acc.Address, m.Address, acc.Withheld, at)); err != nil {
			return 0, err
		}
		total += acc.Withheld
		acc.Withheld = 0
		if err := putAccount(ctx, tx, acc); err != nil {
			return 0, err
		}
	}
	if total == 0 {
		return 0, nil
	}
	m.Withheld += total
	return total, tx.Put(ctx, m.Address, ledger.KindMint, m)
}

// WithdrawWithheld transfere o que está retido na moeda para a conta de dest
// Só a autoridade de taxa pode sacar
func WithdrawWithheld(ctx context.Context, tx ledger.Tx, mintAddr, authority, dest ledger.Address, at time.Time) (uint64, error) {
	m, err := LoadMint(ctx, tx, mintAddr)
	if err != nil {
		return 0, err
	}
	if authority != m.FeeAuthority {
		return 0, errs.Wrap(errs.Unauthorized, "fee authority")
	}
	if m.Withheld == 0 {
		return 0, nil
	}
	acc, err := LoadAccount(ctx, tx, dest, mintAddr)
	if err != nil {
		return 0, err
	}
	amount := m.Withheld
	acc.Amount += amount
	m.Withheld = 0
	if err := tx.Put(ctx, m.Address, ledger.KindMint, m); err != nil {
		return 0, err
	}
	if err := putAccount(ctx, tx, acc); err != nil {
		return 0, err
	}
	return amount, tx.Record(ctx, ledger.NewEntry("withdraw_withheld", m.ID, m.Address, acc.Address, amount, at))
}

// UpdateTransferFee troca a taxa de transferência da moeda
func UpdateTransferFee(ctx context.Context, tx ledger.Tx, mintAddr, authority ledger.Address, bps uint16, maxFee uint64) (Mint, error) {
	m, err := LoadMint(ctx, tx, mintAddr)
	if err != nil {
		return Mint{}, err
	}
	if authority != m.FeeAuthority {
		return Mint{}, errs.Wrap(errs.Unauthorized, "fee authority")
	}
	if err := validateFee(bps, maxFee); err != nil {
		return Mint{}, err
	}
	m.TransferFeeBps, m.MaximumFee = bps, maxFee
	return m, tx.Put(ctx, m.Address, ledger.KindMint, m)
}
