package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config selects and configures the event publisher.
type Config struct {
	Type        string // "", "redis" or "sqs"
	RedisStream string
	SQSQueueURL string
	SQSRegion   string
	SQSEndpoint string
}

// NewPublisher builds the Publisher selected by cfg.Type. An empty type
// disables publishing. The redis type requires a client.
func NewPublisher(ctx context.Context, cfg Config, client redis.Cmdable, log zerolog.Logger) (Publisher, error) {
	switch cfg.Type {
	case "":
		return Nop{}, nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("events: redis publisher requires redis.addr")
		}
		return NewRedisPublisher(client, cfg.RedisStream), nil
	case "sqs":
		return NewSQSPublisherFromConfig(ctx, cfg.SQSQueueURL, cfg.SQSRegion, cfg.SQSEndpoint)
	default:
		log.Warn().Str("type", cfg.Type).Msg("unsupported events type, publishing disabled")
		return Nop{}, nil
	}
}
