package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Message is one outbound email. Body is HTML.
type Message struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrInvalidMessage = errors.New("invalid message")

func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.From) == "":
		return fmt.Errorf("%w: from address is empty", ErrInvalidMessage)
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: to address is empty", ErrInvalidMessage)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is empty", ErrInvalidMessage)
	}
	return nil
}

// Encode produces the payload stored on the outbox stream.
func (m Message) Encode() (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func DecodeMessage(payload string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
