package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/polytech/coursedesk/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher broadcasts session events to every BFF instance.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := p.rdb.Publish(ctx, config.CacheKey.SessionEventsChannel(), payload).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}
