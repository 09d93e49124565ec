package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/havenline/haven-backend/internal/platform/logger"
)

// CrisisAlert is the payload pushed to the on-call channel when a crisis
// event is recorded. Content never rides along, only identifiers and
// severity.
type CrisisAlert struct {
	EventID        uuid.UUID `json:"event_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	SeverityLevel  string    `json:"severity_level"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type AlertBus interface {
	Publish(ctx context.Context, alert CrisisAlert) error
	Close() error
}

type alertBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewAlertBus(log *logger.Logger) (AlertBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_ALERT_CHANNEL"))
	if ch == "" {
		ch = "crisis_alerts"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &alertBus{
		log:     log.With("service", "RedisAlertBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *alertBus) Publish(ctx context.Context, alert CrisisAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

func (b *alertBus) Close() error {
	return b.rdb.Close()
}
