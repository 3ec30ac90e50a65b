package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PayloadField is the stream entry field holding the encoded Message.
const PayloadField = "payload"

// Outbox hands messages to the mailer process through a Redis stream.
type Outbox struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewOutbox(client *redis.Client, stream string, maxLen int64) *Outbox {
	return &Outbox{client: client, stream: stream, maxLen: maxLen}
}

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: o.stream,
		Values: map[string]any{PayloadField: payload},
	}
	if o.maxLen > 0 {
		args.MaxLen = o.maxLen
		args.Approx = true
	}
	if err := o.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", o.stream, err)
	}
	return nil
}

// Trim caps the stream length. Returns the number of entries removed.
func (o *Outbox) Trim(ctx context.Context) (int64, error) {
	if o.maxLen <= 0 {
		return 0, nil
	}
	return o.client.XTrimMaxLenApprox(ctx, o.stream, o.maxLen, 0).Result()
}
