package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	"github.com/radieske/spin-wheel-settlement/pkg/contracts/events"
)

// ErrSnapshotMiss indica que a rodada não está no cache
var ErrSnapshotMiss = errors.New("snapshot not cached")

// RedisSnapshots mantém o último snapshot de cada rodada no Redis e avisa via Pub/Sub
// Client: cliente Redis
// TTL: tempo de expiração dos snapshots
// Channel: canal Pub/Sub lido pelo broadcaster externo
type RedisSnapshots struct {
	Client  *redis.Client
	TTL     time.Duration
	Channel string
}

func NewRedisSnapshots(c *redis.Client, ttl time.Duration, channel string) *RedisSnapshots {
	return &RedisSnapshots{Client: c, TTL: ttl, Channel: channel}
}

// key gera a chave Redis do snapshot de uma rodada
func key(roundID uint64) string { return "round:snapshot:" + strconv.FormatUint(roundID, 10) }

const currentKey = "round:current"

// Publish grava o snapshot (se o evento tiver rodada) e publica no canal
func (r *RedisSnapshots) Publish(ctx context.Context, ev settlement.Event) error {
	if ev.Round == nil {
		return nil
	}
	snap := ToSnapshot(*ev.Round)
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, key(snap.RoundID), b, r.TTL)
	pipe.Set(ctx, currentKey, snap.RoundID, r.TTL)
	pipe.Publish(ctx, r.Channel, b)
	_, err = pipe.Exec(ctx)
	return err
}

// Get lê o snapshot em cache de uma rodada
func (r *RedisSnapshots) Get(ctx context.Context, roundID uint64) (events.RoundSnapshot, error) {
	var snap events.RoundSnapshot
	b, err := r.Client.Get(ctx, key(roundID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, ErrSnapshotMiss
	} else if err != nil {
		return snap, err
	}
	return snap, json.Unmarshal(b, &snap)
}

// Current devolve o id da última rodada que mudou de estado
func (r *RedisSnapshots) Current(ctx context.Context) (uint64, error) {
	id, err := r.Client.Get(ctx, currentKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSnapshotMiss
	}
	return id, err
}
