package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/radieske/spin-wheel-settlement/internal/settlement"
	"github.com/radieske/spin-wheel-settlement/pkg/contracts/events"
)

func isDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("SKIP_INTEGRATION") != "" {
		t.Skip("SKIP_INTEGRATION set")
	}
	if !isDockerAvailable() {
		t.Skip("docker not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisSnapshots(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	snaps := NewRedisSnapshots(rdb, time.Minute, "round_snapshots_test")

	if _, err := snaps.Get(ctx, 7); !errors.Is(err, ErrSnapshotMiss) {
		t.Fatalf("Get before publish = %v", err)
	}

	sub := rdb.Subscribe(ctx, snaps.Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	r := sampleRound()
	if err := snaps.Publish(ctx, settlement.Event{Type: settlement.EventRewardClaimed, Round: &r}); err != nil {
		t.Fatal(err)
	}

	got, err := snaps.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalWagerPot != 170_000_000 || got.Status != "RewardsEntitled" {
		t.Errorf("cached snapshot = %+v", got)
	}
	if cur, err := snaps.Current(ctx); err != nil || cur != 7 {
		t.Errorf("Current() = %d, %v", cur, err)
	}

	msgCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	if err != nil {
		t.Fatal(err)
	}
	var broadcast events.RoundSnapshot
	if err := json.Unmarshal([]byte(msg.Payload), &broadcast); err != nil {
		t.Fatal(err)
	}
	if broadcast.RoundID != 7 {
		t.Errorf("broadcast round = %d", broadcast.RoundID)
	}

	if err := snaps.Publish(ctx, settlement.Event{Type: settlement.EventDeposit}); err != nil {
		t.Errorf("event without round = %v", err)
	}
}
