package dto

type InitCurrencyRequest struct {
	ID             string `json:"id"`
	Decimals       uint8  `json:"decimals"`
	TransferFeeBps uint16 `json:"transfer_fee_bps"`
	MaximumFee     uint64 `json:"maximum_fee"`
}

type InitConfigRequest struct {
	HouseAddress     string `json:"house_address"`
	WagerFeeBps      uint16 `json:"wager_fee_bps"`
	RewardCurrencyID string `json:"reward_currency_id"`
}

type HouseFeeRequest struct {
	WagerFeeBps uint16 `json:"wager_fee_bps"`
}

type HouseAddressRequest struct {
	HouseAddress string `json:"house_address"`
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

type StartRoundRequest struct {
	SeedCommitment  string `json:"seed_commitment"` // hex, 32 bytes
	DurationSeconds int64  `json:"duration_seconds"`
	RoundID         uint64 `json:"round_id"`
	Capacity        int    `json:"capacity,omitempty"`
}

// RoundRefFields são os endereços opcionais que o chamador pode conferir
type RoundRefFields struct {
	RoundAddress string `json:"round_address,omitempty"`
	PotAddress   string `json:"pot_address,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

type WagerRequest struct {
	RoundRefFields
	Amount uint64 `json:"amount"`
}

type FinalizeRequest struct {
	RoundRefFields
	RevealedSeed string `json:"revealed_seed"` // hex, 32 bytes
}

type HarvestRequest struct {
	Owners []string `json:"owners"`
}
