package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accounts/api/internal/notify"
)

// ErrMalformedEntry marks stream entries that can never be delivered.
var ErrMalformedEntry = errors.New("malformed outbox entry")

// DeliveryHandler sends outbox entries through a notify.Sender.
type DeliveryHandler struct {
	sender notify.Sender
	log    zerolog.Logger
}

func NewDeliveryHandler(sender notify.Sender, log zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{sender: sender, log: log}
}

// Handle delivers one entry. Malformed entries and messages the sender
// rejects as invalid are logged and reported as handled so they do not
// cycle through reclaim forever.
func (h *DeliveryHandler) Handle(ctx context.Context, entry redis.XMessage) error {
	msg, err := decodeEntry(entry)
	if err != nil {
		h.log.Warn().Err(err).Str("entry_id", entry.ID).Msg("dropping outbox entry")
		return nil
	}
	if err := h.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, notify.ErrInvalidMessage) {
			h.log.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undeliverable message")
			return nil
		}
		return fmt.Errorf("deliver %s: %w", msg.ID, err)
	}
	h.log.Info().Str("message_id", msg.ID).Str("to", msg.To).Msg("mail delivered")
	return nil
}

func decodeEntry(entry redis.XMessage) (notify.Message, error) {
	raw, ok := entry.Values[notify.PayloadField]
	if !ok {
		return notify.Message{}, fmt.Errorf("%w: no %s field", ErrMalformedEntry, notify.PayloadField)
	}
	payload, ok := raw.(string)
	if !ok {
		return notify.Message{}, fmt.Errorf("%w: payload is %T", ErrMalformedEntry, raw)
	}
	msg, err := notify.DecodeMessage(payload)
	if err != nil {
		return notify.Message{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if msg.ID == "" {
		msg.ID = entry.ID
	}
	return msg, nil
}
