package settlement

import "time"

// Params são os limites do jogo, configuráveis por ambiente
type Params struct {
	MinWager         uint64
	MaxWager         uint64
	MinRoundDuration time.Duration
	MaxRoundDuration time.Duration
	DefaultCapacity  int
	MaxCapacity      int
	WithdrawalFee    uint64
	RewardPerRound   uint64
	FeeCapBps        uint16
}

func DefaultParams() Params {
	return Params{
		MinWager:         10_000_000,
		MaxWager:         10_000_000_000,
		MinRoundDuration: time.Second,
		MaxRoundDuration: 300 * time.Second,
		DefaultCapacity:  10,
		MaxCapacity:      64,
		WithdrawalFee:    10_000_000,
		RewardPerRound:   1_000_000,
		FeeCapBps:        500,
	}
}
