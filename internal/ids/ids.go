package ids

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// New returns a random identifier for long-lived records such as accounts.
func New() string {
	return uuid.NewString()
}

// NewSortable returns a time-ordered identifier for append-only records.
func NewSortable() string {
	return ksuid.New().String()
}
