package notify

import (
	"context"

	"github.com/rs/zerolog"

	"accounts/api/internal/ids"
	"accounts/api/internal/models"
)

// Notifier composes account emails and hands them to a Sender. Failures
// are logged and never returned.
type Notifier struct {
	sender     Sender
	from       string
	confirmURL string
	log        zerolog.Logger
}

func NewNotifier(sender Sender, from, confirmURL string, log zerolog.Logger) *Notifier {
	return &Notifier{
		sender:     sender,
		from:       from,
		confirmURL: confirmURL,
		log:        log.With().Str("component", "notifier").Logger(),
	}
}

func (n *Notifier) Notify(ctx context.Context, msg Message) {
	if msg.ID == "" {
		msg.ID = ids.NewSortable()
	}
	if msg.From == "" {
		msg.From = n.from
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Error().Err(err).
			Str("message_id", msg.ID).
			Str("to", msg.To).
			Str("subject", msg.Subject).
			Msg("send notification failed")
		return
	}
	n.log.Debug().Str("message_id", msg.ID).Str("to", msg.To).Msg("notification queued")
}

func (n *Notifier) EmailConfirmation(ctx context.Context, user models.User, code string) {
	body, err := ConfirmationBody(user.DisplayName, ConfirmLink(n.confirmURL, user.ID, code))
	if err != nil {
		n.log.Error().Err(err).Str("user_id", user.ID).Msg("render confirmation email failed")
		return
	}
	n.Notify(ctx, Message{To: user.Email, Subject: confirmSubject, Body: body})
}

func (n *Notifier) PasswordChanged(ctx context.Context, user models.User) {
	body, err := PasswordChangedBody(user.DisplayName)
	if err != nil {
		n.log.Error().Err(err).Str("user_id", user.ID).Msg("render password notice failed")
		return
	}
	n.Notify(ctx, Message{To: user.Email, Subject: passwordChangedSubject, Body: body})
}
