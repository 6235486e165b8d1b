package settlement

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
	"github.com/radieske/spin-wheel-settlement/internal/shared/errs"
	"github.com/radieske/spin-wheel-settlement/internal/token"
)

type InitConfigRequest struct {
	HouseAddress     ledger.Address
	WagerFeeBps      uint16
	RewardCurrencyID string
}

// InitializeConfig cria a configuração do jogo; quem chama vira a autoridade
// A moeda de recompensa já tem de existir
func (e *Engine) InitializeConfig(ctx context.Context, caller ledger.Address, req InitConfigRequest) (GameConfig, error) {
	var cfg GameConfig
	err := e.exec(ctx, "initialize_config", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		if ok, err := tx.Exists(ctx, ConfigAddress()); err != nil {
			return err
		} else if ok {
			return errs.AlreadyInitialized
		}
		if err := validateWagerFee(req.WagerFeeBps, e.params.FeeCapBps); err != nil {
			return err
		}
		if req.HouseAddress == "" {
			return errs.Wrap(errs.InvalidAddressDerivation, "empty house address")
		}
		mint, err := token.LoadMint(ctx, tx, token.MintAddress(req.RewardCurrencyID))
		if err != nil {
			return err
		}
		if mint.FeeAuthority != caller || mint.MintAuthority != MintAuthorityAddress() {
			return errs.Wrap(errs.InvalidProgramReference, "currency %s is not controlled by %s", mint.ID, caller)
		}

		cfg = GameConfig{
			Authority:        caller,
			HouseAddress:     req.HouseAddress,
			WagerFeeBps:      req.WagerFeeBps,
			FeeCapBps:        e.params.FeeCapBps,
			RewardCurrencyID: mint.ID,
			RewardCurrency:   mint.Address,
			Initialized:      true,
		}
		if err := tx.Create(ctx, ConfigAddress(), ledger.KindConfig, cfg); err != nil {
			if errs.Is(err, errs.AccountExists) {
				return errs.AlreadyInitialized
			}
			return err
		}
		st.emit(Event{Type: EventConfigInitialized, Actor: caller, At: e.now()})
		return nil
	})
	if err != nil {
		return GameConfig{}, err
	}
	e.log.Info("game config initialized",
		zap.String("authority", cfg.Authority.String()),
		zap.String("house", cfg.HouseAddress.String()),
		zap.Uint16("wager_fee_bps", cfg.WagerFeeBps))
	return cfg, nil
}

// UpdateHouseFee troca a taxa cobrada sobre o pote; só a autoridade
func (e *Engine) UpdateHouseFee(ctx context.Context, caller ledger.Address, bps uint16) (GameConfig, error) {
	var cfg GameConfig
	err := e.exec(ctx, "update_house_fee", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		var err error
		if cfg, err = e.authorize(ctx, tx, caller); err != nil {
			return err
		}
		if err := validateWagerFee(bps, cfg.FeeCapBps); err != nil {
			return err
		}
		cfg.WagerFeeBps = bps
		if err := tx.Put(ctx, ConfigAddress(), ledger.KindConfig, cfg); err != nil {
			return err
		}
		st.emit(Event{Type: EventHouseFeeUpdated, Actor: caller, Amount: uint64(bps), At: e.now()})
		return nil
	})
	if err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}

// UpdateHouseAddress troca o destino das taxas; só a autoridade
func (e *Engine) UpdateHouseAddress(ctx context.Context, caller, house ledger.Address) (GameConfig, error) {
	var cfg GameConfig
	err := e.exec(ctx, "update_house_address", caller, func(ctx context.Context, tx ledger.Tx, st *opState) error {
		var err error
		if cfg, err = e.authorize(ctx, tx, caller); err != nil {
			return err
		}
		if house == "" {
			return errs.Wrap(errs.InvalidAddressDerivation, "empty house address")
		}
		cfg.HouseAddress = house
		if err := tx.Put(ctx, ConfigAddress(), ledger.KindConfig, cfg); err != nil {
			return err
		}
		st.emit(Event{Type: EventHouseAddressUpdated, Actor: caller, At: e.now()})
		return nil
	})
	if err != nil {
		return GameConfig{}, err
	}
	return cfg, nil
}
