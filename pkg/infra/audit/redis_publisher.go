package audit

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/go-redis/redis/v8"
)

const (
	DefaultChannel = "guardrails:audit"
	EventType      = "guardrail_audit"
)

type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
	Channel  string `mapstructure:"channel"`

	QueueSize      int           `mapstructure:"queue_size"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// Message is the envelope written to the pub/sub channel.
type Message struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

func NewRedisClient(cfg Config) *redis.Client {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(options)
}

type redisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &redisPublisher{
		client:  client,
		channel: channel,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, ev guardrail.AuditEvent) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish audit event to %s: %w", p.channel, err)
	}
	return nil
}

// Encode wraps ev in the channel envelope.
func Encode(ev guardrail.AuditEvent) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit event: %w", err)
	}
	data, err := json.Marshal(Message{Type: EventType, Event: b})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit envelope: %w", err)
	}
	return data, nil
}
