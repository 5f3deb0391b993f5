package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sungwon/notify-mailer/internal/metrics"
)

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client redis.Cmdable
	stream string
}

// NewRedisPublisher creates a RedisPublisher writing to stream.
func NewRedisPublisher(client redis.Cmdable, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

// Publish adds the event to the stream using XADD and returns the entry ID.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	entryID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("xadd to stream %s: %w", p.stream, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues("success").Inc()
	return entryID, nil
}
