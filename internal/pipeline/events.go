package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
)

// Event is one line of the live pipeline feed the admin surface tails
// (§4.10, §6.5).
type Event struct {
	RunID   int64            `json:"run_id"`
	Stage   domain.StageName `json:"stage"`
	Kind    string           `json:"kind"` // started | done | failed
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}

// Broadcaster publishes pipeline events to whoever is watching a run live.
type Broadcaster interface {
	Publish(ctx context.Context, event Event)
}

// RedisBroadcaster publishes events on a redis pub/sub channel, the
// transport the admin web surface's SSE/websocket handler subscribes to.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcaster builds a broadcaster from cfg.Events. Publish
// failures are logged, never returned — a broken event feed must not stop
// a pipeline run.
func NewRedisBroadcaster(cfg config.EventsConfig) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
		channel: cfg.Channel,
	}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("pipeline: marshal event: %v", err)
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		log.Printf("pipeline: publish event: %v", err)
	}
}

// NoopBroadcaster discards events. Used by the CLI surface when no redis
// address is configured — a run still completes and is recorded, it just
// has no live audience.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Publish(ctx context.Context, event Event) {}
