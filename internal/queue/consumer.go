package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Handler interface {
	Handle(ctx context.Context, msg redis.XMessage) error
}

type ConsumerConfig struct {
	Stream        string
	Group         string
	Name          string
	ClaimInterval time.Duration
	BatchSize     int64
	Block         time.Duration
	// MaxDeliveries bounds how often a failing entry is handed out before it
	// is acked and dropped.
	MaxDeliveries int64
}

// Consumer reads a stream as part of a consumer group. Entries are acked
// only after the handler succeeds; failed entries stay pending and are
// reclaimed once idle for ClaimInterval.
type Consumer struct {
	client  *redis.Client
	cfg     ConsumerConfig
	log     zerolog.Logger
	handler Handler
}

func NewConsumer(client *redis.Client, cfg ConsumerConfig, log zerolog.Logger, handler Handler) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = 30 * time.Second
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 10
	}
	return &Consumer{
		client:  client,
		cfg:     cfg,
		log:     log.With().Str("stream", cfg.Stream).Str("consumer", cfg.Name).Logger(),
		handler: handler,
	}
}

// EnsureGroup creates the consumer group, and the stream with it, if absent.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.read(ctx); err != nil && ctx.Err() == nil {
			c.log.Error().Err(err).Msg("stream read error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}

		select {
		case <-ticker.C:
			if err := c.claimStalled(ctx); err != nil && ctx.Err() == nil {
				c.log.Error().Err(err).Msg("claim stalled entries failed")
			}
		default:
		}
	}
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			c.process(ctx, msg)
		}
	}
	return nil
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		MinIdle:  c.cfg.ClaimInterval,
		Start:    "0-0",
		Count:    c.cfg.BatchSize,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	for _, msg := range msgs {
		exhausted, err := c.exhausted(ctx, msg.ID)
		if err != nil {
			c.log.Error().Err(err).Str("message_id", msg.ID).Msg("pending lookup failed")
		} else if exhausted {
			c.discard(ctx, msg.ID)
			continue
		}
		c.process(ctx, msg)
	}
	return nil
}

// exhausted reports whether the entry has been handed out more than
// MaxDeliveries times. XAUTOCLAIM counts the claim that just happened.
func (c *Consumer) exhausted(ctx context.Context, id string) (bool, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}
	return deliveriesExhausted(pending[0].RetryCount, c.cfg.MaxDeliveries), nil
}

func deliveriesExhausted(deliveries, max int64) bool {
	return deliveries > max
}

func (c *Consumer) discard(ctx context.Context, id string) {
	c.log.Warn().Str("message_id", id).Int64("max_deliveries", c.cfg.MaxDeliveries).Msg("dropping entry after repeated failures")
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		c.log.Error().Err(err).Str("message_id", id).Msg("ack failed")
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID).Msg("handle entry failed")
		return
	}
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
	}
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
