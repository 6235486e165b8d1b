package settlement

import (
	"testing"

	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
	"github.com/radieske/spin-wheel-settlement/internal/token"
)

func TestInitializeConfig(t *testing.T) {
	h := newHarness(t)
	h.setup()

	cfg, err := h.engine.Config(h.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Authority != authority || cfg.HouseAddress != house || cfg.WagerFeeBps != 10 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.RoundCounter != 0 || !cfg.Initialized || cfg.FeeCapBps != 500 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.RewardCurrency != token.MintAddress("cashino") {
		t.Errorf("reward currency = %s", cfg.RewardCurrency)
	}

	_, err = h.engine.InitializeConfig(h.ctx, authority, InitConfigRequest{
		HouseAddress: house, WagerFeeBps: 10, RewardCurrencyID: "cashino",
	})
	wantErr(t, err, errs.AlreadyInitialized)
}

func TestInitializeConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		capBps  uint16
		req     InitConfigRequest
		wantErr *errs.Error
	}{
		{"fee above cap", 500, InitConfigRequest{HouseAddress: house, WagerFeeBps: 501, RewardCurrencyID: "cashino"}, errs.InvalidFeeConfig},
		{"zero cap", 0, InitConfigRequest{HouseAddress: house, WagerFeeBps: 10, RewardCurrencyID: "cashino"}, errs.FeeCalculationFailed},
		{"unknown currency", 500, InitConfigRequest{HouseAddress: house, WagerFeeBps: 10, RewardCurrencyID: "other"}, errs.InvalidProgramReference},
		{"empty house", 500, InitConfigRequest{WagerFeeBps: 10, RewardCurrencyID: "cashino"}, errs.InvalidAddressDerivation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			p := DefaultParams()
			p.FeeCapBps = tt.capBps
			h.engine = NewEngine(h.store, Options{Params: p, Clock: h.clock.Now})
			if _, err := h.engine.InitializeRewardCurrency(h.ctx, authority, CurrencyRequest{ID: "cashino"}); err != nil {
				t.Fatal(err)
			}

			_, err := h.engine.InitializeConfig(h.ctx, authority, tt.req)
			wantErr(t, err, tt.wantErr)

			_, err = h.engine.Config(h.ctx)
			wantErr(t, err, errs.NotInitialized)
		})
	}
}

func TestUpdateHouseFee(t *testing.T) {
	h := newHarness(t)
	h.setup()

	_, err := h.engine.UpdateHouseFee(h.ctx, mallory, 20)
	wantErr(t, err, errs.Unauthorized)

	_, err = h.engine.UpdateHouseFee(h.ctx, authority, 501)
	wantErr(t, err, errs.InvalidFeeConfig)

	cfg, _ := h.engine.Config(h.ctx)
	if cfg.WagerFeeBps != 10 {
		t.Fatalf("rejected update changed fee to %d", cfg.WagerFeeBps)
	}

	cfg, err = h.engine.UpdateHouseFee(h.ctx, authority, 500)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WagerFeeBps != 500 {
		t.Errorf("WagerFeeBps = %d, want 500", cfg.WagerFeeBps)
	}
}

func TestUpdateHouseAddress(t *testing.T) {
	h := newHarness(t)
	h.setup()

	_, err := h.engine.UpdateHouseAddress(h.ctx, mallory, mallory)
	wantErr(t, err, errs.Unauthorized)

	cfg, err := h.engine.UpdateHouseAddress(h.ctx, authority, carol)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HouseAddress != carol {
		t.Errorf("HouseAddress = %s, want carol", cfg.HouseAddress)
	}
}

func TestOperationsRequireConfig(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.StartRound(h.ctx, authority, StartRoundRequest{Duration: 60e9})
	wantErr(t, err, errs.NotInitialized)

	h.deposit(alice, 100_000_000)
	_, err = h.engine.Withdraw(h.ctx, alice, 10)
	wantErr(t, err, errs.NotInitialized)
}

func TestInitializeRewardCurrencyAfterConfig(t *testing.T) {
	h := newHarness(t)
	h.setup()

	_, err := h.engine.InitializeRewardCurrency(h.ctx, mallory, CurrencyRequest{ID: "other"})
	wantErr(t, err, errs.Unauthorized)

	_, err = h.engine.InitializeRewardCurrency(h.ctx, authority, CurrencyRequest{ID: "cashino"})
	wantErr(t, err, errs.AlreadyInitialized)
}

func TestInitializeConfigRejectsForeignCurrency(t *testing.T) {
	h := newHarness(t)

	if _, err := h.engine.InitializeRewardCurrency(h.ctx, mallory, CurrencyRequest{
		ID: "cashino", Decimals: 6, TransferFeeBps: 500, MaximumFee: 1 << 40,
	}); err != nil {
		t.Fatal(err)
	}

	_, err := h.engine.InitializeConfig(h.ctx, authority, InitConfigRequest{
		HouseAddress: house, WagerFeeBps: 10, RewardCurrencyID: "cashino",
	})
	wantErr(t, err, errs.InvalidProgramReference)

	_, err = h.engine.Config(h.ctx)
	wantErr(t, err, errs.NotInitialized)

	if _, err := h.engine.InitializeRewardCurrency(h.ctx, authority, CurrencyRequest{
		ID: "cashino-house", Decimals: 6, TransferFeeBps: 100, MaximumFee: 1 << 40,
	}); err != nil {
		t.Fatal(err)
	}
	cfg, err := h.engine.InitializeConfig(h.ctx, authority, InitConfigRequest{
		HouseAddress: house, WagerFeeBps: 10, RewardCurrencyID: "cashino-house",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RewardCurrency != token.MintAddress("cashino-house") {
		t.Errorf("reward currency = %s", cfg.RewardCurrency)
	}
}
