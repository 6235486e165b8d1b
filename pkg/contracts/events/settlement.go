package events

// SettlementEvent é publicado no Kafka a cada operação confirmada
type SettlementEvent struct {
	EventID  string         `json:"event_id"`
	Type     string         `json:"type"`
	Actor    string         `json:"actor"`
	Amount   uint64         `json:"amount,omitempty"`
	RoundID  *uint64        `json:"round_id,omitempty"`
	Round    *RoundSnapshot `json:"round,omitempty"`
	TsUnixMs int64          `json:"ts_unix_ms"`
}

// RoundSnapshot é a visão somente leitura de uma rodada para broadcasters e histórico
type RoundSnapshot struct {
	RoundID           uint64        `json:"round_id"`
	Address           string        `json:"address"`
	Status            string        `json:"status"`
	StatusCode        uint8         `json:"status_code"`
	SeedCommitment    string        `json:"seed_commitment"`
	RevealedSeed      string        `json:"revealed_seed,omitempty"`
	StartUnixMs       int64         `json:"start_unix_ms"`
	EndUnixMs         int64         `json:"end_unix_ms"`
	TotalWagerPot     uint64        `json:"total_wager_pot"`
	Capacity          int           `json:"capacity"`
	Participants      []Participant `json:"participants"`
	WinnerAddress     string        `json:"winner_address,omitempty"`
	WinnerAmount      uint64        `json:"winner_amount,omitempty"`
	WinnerClaimed     bool          `json:"winner_claimed"`
	HouseFeeAmount    uint64        `json:"house_fee_amount"`
	TotalRewardMinted uint64        `json:"total_reward_minted"`
}

type Participant struct {
	Address     string `json:"address"`
	Amount      uint64 `json:"amount"`
	Entitlement uint64 `json:"entitlement,omitempty"`
	Claimed     bool   `json:"reward_claimed,omitempty"`
}
