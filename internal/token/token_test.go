package token

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
)

var (
	authority = ledger.Derive("mint_authority")
	admin     = ledger.Address("admin")
	pot       = ledger.Address("pot")
	alice     = ledger.Address("alice")
	now       = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func TestTransferFee(t *testing.T) {
	tests := []struct {
		name   string
		amount uint64
		bps    uint16
		max    uint64
		want   uint64
	}{
		{"zero bps", 705_882, 0, 0, 0},
		{"rounds up", 705_882, 100, math.MaxUint64, 7_059},
		{"exact", 1_000_000, 100, math.MaxUint64, 10_000},
		{"capped", 1_000_000, 100, 5_000, 5_000},
		{"one unit", 1, 100, 10, 1},
		{"zero amount", 0, 100, 10, 0},
		{"no overflow at max", math.MaxUint64, 500, math.MaxUint64, 922_337_203_685_477_581},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TransferFee(tt.amount, tt.bps, tt.max)
			if err != nil {
				t.Fatalf("TransferFee() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("TransferFee(%d, %d, %d) = %d, want %d", tt.amount, tt.bps, tt.max, got, tt.want)
			}
		})
	}
}

func TestInitializeMintValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MintConfig
		wantErr *errs.Error
	}{
		{"above cap", MintConfig{ID: "reward", TransferFeeBps: 501, MaximumFee: 1}, errs.InvalidFeeConfig},
		{"zero max fee", MintConfig{ID: "reward", TransferFeeBps: 100}, errs.FeeCalculationFailed},
		{"empty id", MintConfig{}, errs.InvalidProgramReference},
		{"no fee", MintConfig{ID: "reward"}, nil},
		{"at cap", MintConfig{ID: "reward", TransferFeeBps: 500, MaximumFee: 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ledger.NewMemory()
			err := s.InTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
				_, err := InitializeMint(ctx, tx, tt.cfg)
				return err
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("InitializeMint() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("InitializeMint() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func newMint(t *testing.T, bps uint16) (ledger.Store, ledger.Address) {
	t.Helper()
	s := ledger.NewMemory()
	var addr ledger.Address
	err := s.InTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		m, err := InitializeMint(ctx, tx, MintConfig{
			ID: "reward", Decimals: 6, MintAuthority: authority, FeeAuthority: admin,
			TransferFeeBps: bps, MaximumFee: math.MaxUint64,
		})
		addr = m.Address
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return s, addr
}

func TestMintTransferHarvestWithdraw(t *testing.T) {
	ctx := context.Background()
	s, mint := newMint(t, 100)

	err := s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := MintTo(ctx, tx, mint, authority, pot, 1_000_000, now)
		return err
	})
	if err != nil {
		t.Fatalf("MintTo: %v", err)
	}

	var r Receipt
	err = s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		r, err = Transfer(ctx, tx, mint, pot, alice, 705_882, now)
		return err
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if r.Gross != 705_882 || r.Fee != 7_059 || r.Net != 698_823 {
		t.Fatalf("receipt = %+v", r)
	}

	var harvested, withdrawn uint64
	err = s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		a, err := LoadAccount(ctx, tx, alice, mint)
		if err != nil {
			return err
		}
		if a.Amount != 698_823 || a.Withheld != 7_059 {
			t.Errorf("alice = %+v", a)
		}
		p, err := LoadAccount(ctx, tx, pot, mint)
		if err != nil {
			return err
		}
		if p.Amount != 1_000_000-705_882 {
			t.Errorf("pot amount = %d", p.Amount)
		}
		if harvested, err = Harvest(ctx, tx, mint, []ledger.Address{alice, pot}, now); err != nil {
			return err
		}
		withdrawn, err = WithdrawWithheld(ctx, tx, mint, admin, admin, now)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if harvested != 7_059 || withdrawn != 7_059 {
		t.Errorf("harvested=%d withdrawn=%d, want 7059", harvested, withdrawn)
	}
}

func TestMintToRequiresAuthority(t *testing.T) {
	s, mint := newMint(t, 0)
	err := s.InTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := MintTo(ctx, tx, mint, admin, pot, 10, now)
		return err
	})
	if !errors.Is(err, errs.Unauthorized) {
		t.Fatalf("MintTo by non authority = %v", err)
	}
}

func TestTransferErrors(t *testing.T) {
	ctx := context.Background()
	s, mint := newMint(t, 100)
	_ = s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := MintTo(ctx, tx, mint, authority, pot, 100, now)
		return err
	})

	tests := []struct {
		name    string
		mint    ledger.Address
		amount  uint64
		wantErr *errs.Error
	}{
		{"insufficient", mint, 101, errs.InsufficientFunds},
		{"zero", mint, 0, errs.InvalidAmount},
		{"unknown currency", MintAddress("other"), 1, errs.InvalidProgramReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
				_, err := Transfer(ctx, tx, tt.mint, pot, alice, tt.amount, now)
				return err
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateTransferFee(t *testing.T) {
	ctx := context.Background()
	s, mint := newMint(t, 100)

	err := s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := UpdateTransferFee(ctx, tx, mint, admin, 600, 1)
		return err
	})
	if !errors.Is(err, errs.InvalidFeeConfig) {
		t.Fatalf("update above cap = %v", err)
	}

	err = s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := UpdateTransferFee(ctx, tx, mint, alice, 50, 1)
		return err
	})
	if !errors.Is(err, errs.Unauthorized) {
		t.Fatalf("update by non authority = %v", err)
	}

	err = s.InTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		m, err := UpdateTransferFee(ctx, tx, mint, admin, 50, 10)
		if m.TransferFeeBps != 50 || m.MaximumFee != 10 {
			t.Errorf("mint after update = %+v", m)
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func BenchmarkTransferFee(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = TransferFee(uint64(i)+705_882, 100, math.MaxUint64)
	}
}
