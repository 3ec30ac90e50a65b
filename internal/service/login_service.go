package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"accounts/api/internal/ids"
	"accounts/api/internal/models"
	"accounts/api/internal/repository"
	"accounts/api/internal/security"
)

type LoginService struct {
	logins  LoginStore
	authz   *Authorizer
	archive ArchiveStore
	log     zerolog.Logger
	now     func() time.Time
}

func NewLoginService(logins LoginStore, authz *Authorizer, archive ArchiveStore, log zerolog.Logger) *LoginService {
	return &LoginService{
		logins:  logins,
		authz:   authz,
		archive: archive,
		log:     log.With().Str("component", "logins").Logger(),
		now:     time.Now,
	}
}

// Record stores a client-reported login for the caller.
func (s *LoginService) Record(ctx context.Context, caller security.Principal, ipAddress, userAgent string) (models.LoginEvent, error) {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return models.LoginEvent{}, ErrUserAgentRequired
	}
	event, err := s.logins.Record(ctx, models.LoginEvent{
		ID:            ids.NewSortable(),
		UserID:        caller.ID,
		IPAddress:     ipAddress,
		UserAgentInfo: userAgent,
		LoggedInOn:    s.now().UTC(),
	})
	if err != nil {
		return models.LoginEvent{}, Dependency("record login", err)
	}
	return event, nil
}

// List returns login events. Without a target, admins see every event and
// other callers see their own. With a target, the caller must own it or be
// an admin.
func (s *LoginService) List(ctx context.Context, caller security.Principal, userID string) ([]models.LoginEvent, error) {
	filter := repository.LoginFilter{UserID: userID}
	if userID == "" {
		admin, err := s.authz.IsAdmin(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !admin {
			filter.UserID = caller.ID
		}
	} else if err := s.authz.Check(ctx, caller, security.SelfOrAdmin(userID)); err != nil {
		return nil, err
	}

	events, err := s.logins.Query(ctx, filter)
	if err != nil {
		return nil, Dependency("query logins", err)
	}
	return events, nil
}

// Export writes matching events to the archive and returns the object key.
func (s *LoginService) Export(ctx context.Context, caller security.Principal, userID string) (string, error) {
	if err := s.authz.Check(ctx, caller, security.AdminOnly()); err != nil {
		return "", err
	}
	events, err := s.logins.Query(ctx, repository.LoginFilter{UserID: userID})
	if err != nil {
		return "", Dependency("query logins", err)
	}
	key := fmt.Sprintf("logins/exports/%s.json", ids.NewSortable())
	if err := s.put(ctx, key, events); err != nil {
		return "", err
	}
	s.log.Info().Str("key", key).Int("events", len(events)).Str("requested_by", caller.ID).Msg("logins exported")
	return key, nil
}

// Archive writes the events of the UTC day containing day.
func (s *LoginService) Archive(ctx context.Context, day time.Time) (string, int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	events, err := s.logins.Query(ctx, repository.LoginFilter{Since: start, Until: start.AddDate(0, 0, 1)})
	if err != nil {
		return "", 0, Dependency("query logins", err)
	}
	key := fmt.Sprintf("logins/daily/%s.json", start.Format("2006-01-02"))
	if err := s.put(ctx, key, events); err != nil {
		return "", 0, err
	}
	return key, len(events), nil
}

// ArchivePreviousDay archives yesterday's events.
func (s *LoginService) ArchivePreviousDay(ctx context.Context) (string, int, error) {
	return s.Archive(ctx, s.now().UTC().AddDate(0, 0, -1))
}

type loginRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	DisplayName   string    `json:"displayName"`
	IPAddress     string    `json:"ipAddress"`
	UserAgentInfo string    `json:"userAgentInfo"`
	LoggedInOn    time.Time `json:"loggedInOn"`
}

func (s *LoginService) put(ctx context.Context, key string, events []models.LoginEvent) error {
	if s.archive == nil {
		return Dependency("archive", fmt.Errorf("archive store not configured"))
	}
	records := make([]loginRecord, 0, len(events))
	for _, e := range events {
		records = append(records, loginRecord{
			ID:            e.ID,
			UserID:        e.UserID,
			DisplayName:   e.DisplayName,
			IPAddress:     e.IPAddress,
			UserAgentInfo: e.UserAgentInfo,
			LoggedInOn:    e.LoggedInOn,
		})
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return Dependency("encode logins", err)
	}
	if err := s.archive.Put(ctx, key, "application/json", bytes.NewReader(raw), int64(len(raw))); err != nil {
		return Dependency("write archive", err)
	}
	return nil
}
