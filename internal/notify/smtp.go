package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"accounts/api/internal/config"
)

type SMTPSender struct {
	client *mail.Client
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}
	return &SMTPSender{client: client}, nil
}

// Send delivers msg. Address errors wrap ErrInvalidMessage since retrying
// them cannot succeed.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("%w: from address: %v", ErrInvalidMessage, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("%w: to address: %v", ErrInvalidMessage, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.Body)
	if msg.ID != "" {
		m.SetMessageIDWithValue(msg.ID)
	}
	return s.client.DialAndSendWithContext(ctx, m)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().
		Str("message_id", msg.ID).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail not delivered, smtp disabled")
	return nil
}
