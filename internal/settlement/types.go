package settlement

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/radieske/spin-wheel-settlement/internal/ledger"
)

// Status é a fase de uma rodada; só anda para frente, um passo por operação
type Status uint8

const (
	StatusBetting Status = iota
	StatusAwaitingPayoutClaim
	StatusPayoutClaimed
	StatusRewardPotCreated
	StatusRewardsMinted
	StatusRewardsEntitled
)

func (s Status) String() string {
	switch s {
	case StatusBetting:
		return "Betting"
	case StatusAwaitingPayoutClaim:
		return "AwaitingPayoutClaim"
	case StatusPayoutClaimed:
		return "PayoutClaimed"
	case StatusRewardPotCreated:
		return "RewardPotCreated"
	case StatusRewardsMinted:
		return "RewardsMinted"
	case StatusRewardsEntitled:
		return "RewardsEntitled"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Seed é um valor de 32 bytes (segredo revelado ou o seu compromisso sha256)
type Seed [32]byte

func (s Seed) String() string { return hex.EncodeToString(s[:]) }

func (s Seed) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Seed) UnmarshalText(b []byte) error {
	if hex.DecodedLen(len(b)) != len(s) {
		return fmt.Errorf("seed must be %d hex bytes, got %d chars", len(s), len(b))
	}
	_, err := hex.Decode(s[:], b)
	return err
}

// ParseSeed decodifica uma seed em hex
func ParseSeed(h string) (Seed, error) {
	var s Seed
	return s, s.UnmarshalText([]byte(h))
}

// GameConfig é a configuração única de uma instância do jogo
type GameConfig struct {
	Authority        ledger.Address `json:"authority"`
	HouseAddress     ledger.Address `json:"house_address"`
	WagerFeeBps      uint16         `json:"wager_fee_bps"`
	FeeCapBps        uint16         `json:"fee_cap_bps"`
	RoundCounter     uint64         `json:"round_counter"`
	RewardCurrencyID string         `json:"reward_currency_id"`
	RewardCurrency   ledger.Address `json:"reward_currency"`
	Initialized      bool           `json:"initialized"`
}

// UserEscrow é o saldo custodiado de um participante
type UserEscrow struct {
	Owner   ledger.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

// NativeAccount guarda moeda principal fora do escrow (carteira externa, casa, cofre da rodada)
type NativeAccount struct {
	Owner   ledger.Address `json:"owner"`
	Balance uint64         `json:"balance"`
}

type Participant struct {
	Address ledger.Address `json:"address"`
	Amount  uint64         `json:"amount"`
}

type RewardEntry struct {
	Address     ledger.Address `json:"address"`
	Entitlement uint64         `json:"entitlement"`
	Claimed     bool           `json:"claimed"`
}

// Round é o registro histórico de uma rodada; nunca é apagado
type Round struct {
	ID                uint64         `json:"id"`
	Status            Status         `json:"status"`
	Capacity          int            `json:"capacity"`
	SeedCommitment    Seed           `json:"seed_commitment"`
	RevealedSeed      *Seed          `json:"revealed_seed,omitempty"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
	TotalWagerPot     uint64         `json:"total_wager_pot"`
	Participants      []Participant  `json:"participants"`
	WinnerIndex       *int           `json:"winner_index,omitempty"`
	WinnerAddress     ledger.Address `json:"winner_address,omitempty"`
	WinnerAmount      uint64         `json:"winner_amount"`
	WinnerClaimed     bool           `json:"winner_claimed"`
	HouseFeeAmount    uint64         `json:"house_fee_amount"`
	TotalRewardMinted uint64         `json:"total_reward_minted"`
	RewardEntries     []RewardEntry  `json:"reward_entries,omitempty"`
}

func (r *Round) participant(addr ledger.Address) int {
	for i, p := range r.Participants {
		if p.Address == addr {
			return i
		}
	}
	return -1
}

func (r *Round) rewardEntry(addr ledger.Address) int {
	for i, e := range r.RewardEntries {
		if e.Address == addr {
			return i
		}
	}
	return -1
}

// RewardPot guarda a moeda de recompensa emitida para uma rodada
// TotalClaimed soma os débitos brutos; o que o participante recebe é líquido da taxa da moeda
type RewardPot struct {
	RoundID       uint64         `json:"round_id"`
	Address       ledger.Address `json:"address"`
	RewardAccount ledger.Address `json:"reward_account"`
	TotalMinted   uint64         `json:"total_minted"`
	TotalClaimed  uint64         `json:"total_claimed"`
}

// RewardClaim é o resultado de claim_reward
type RewardClaim struct {
	RoundID     uint64 `json:"round_id"`
	Entitlement uint64 `json:"entitlement"`
	Fee         uint64 `json:"fee"`
	Received    uint64 `json:"received"`
}
