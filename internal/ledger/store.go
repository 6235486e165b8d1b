package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifica o registro guardado num endereço
type Kind string

const (
	KindConfig       Kind = "config"
	KindRound        Kind = "round"
	KindEscrow       Kind = "escrow"
	KindVault        Kind = "vault"
	KindNative       Kind = "native"
	KindRewardPot    Kind = "reward_pot"
	KindMint         Kind = "mint"
	KindTokenAccount Kind = "token_account"
)

// AssetNative é a moeda principal das apostas
const AssetNative = "native"

// Entry é uma linha do diário: todo movimento de saldo gera uma
type Entry struct {
	ID      uuid.UUID `json:"id"`
	Op      string    `json:"op"`
	Asset   string    `json:"asset"`
	From    Address   `json:"from,omitempty"`
	To      Address   `json:"to,omitempty"`
	Amount  uint64    `json:"amount"`
	RoundID *uint64   `json:"round_id,omitempty"`
	At      time.Time `json:"at"`
}

// NewEntry preenche ID e horário de uma linha do diário
func NewEntry(op, asset string, from, to Address, amount uint64, at time.Time) Entry {
	return Entry{ID: uuid.New(), Op: op, Asset: asset, From: from, To: to, Amount: amount, At: at.UTC()}
}

// ForRound associa a linha a uma rodada
func (e Entry) ForRound(id uint64) Entry {
	e.RoundID = &id
	return e
}

// Tx é a visão de uma transação aberta no ledger
// Leituras travam o registro até o fim da transação
type Tx interface {
	Get(ctx context.Context, addr Address, dst any) error
	Exists(ctx context.Context, addr Address) (bool, error)
	Create(ctx context.Context, addr Address, kind Kind, src any) error
	Put(ctx context.Context, addr Address, kind Kind, src any) error
	Record(ctx context.Context, e Entry) error
}

// Store é o substrato autoritativo
// InTx executa fn atomicamente: com erro nada é gravado
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Entries(ctx context.Context, addr Address) ([]Entry, error)
	Ping(ctx context.Context) error
}
