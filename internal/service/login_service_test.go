package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"accounts/api/internal/models"
	"accounts/api/internal/repository"
	"accounts/api/internal/security"
)

func newLoginFixture() (*LoginService, *mockLoginStore, *mockArchive) {
	store := &mockLoginStore{}
	archive := &mockArchive{}
	mem := newMemoryUsers(models.User{ID: "a"}, models.User{ID: "b"}, models.User{ID: "admin"})
	roles := &mockRoleStore{roles: map[string][]string{"admin": {models.RoleAdmin}}}
	svc := NewLoginService(store, NewAuthorizer(mem, roles), archive, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC) }
	return svc, store, archive
}

func TestLoginRecord(t *testing.T) {
	svc, store, _ := newLoginFixture()
	store.recordFn = func(_ context.Context, e models.LoginEvent) (models.LoginEvent, error) {
		e.DisplayName = "A"
		return e, nil
	}

	if _, err := svc.Record(context.Background(), security.Principal{ID: "a"}, "10.0.0.1", "  "); !errors.Is(err, ErrUserAgentRequired) {
		t.Fatalf("Record() error = %v, want %v", err, ErrUserAgentRequired)
	}

	event, err := svc.Record(context.Background(), security.Principal{ID: "a"}, "10.0.0.1", " Firefox/130 ")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if event.ID == "" || event.UserID != "a" || event.IPAddress != "10.0.0.1" || event.UserAgentInfo != "Firefox/130" {
		t.Errorf("Record() = %+v", event)
	}
	if !event.LoggedInOn.Equal(svc.now()) || event.DisplayName != "A" {
		t.Errorf("Record() = %+v", event)
	}
}

func TestLoginList(t *testing.T) {
	tests := []struct {
		name       string
		caller     string
		userID     string
		wantFilter string
		wantErr    error
	}{
		{name: "admin without target sees all", caller: "admin", wantFilter: ""},
		{name: "user without target sees own", caller: "a", wantFilter: "a"},
		{name: "user targets self", caller: "a", userID: "a", wantFilter: "a"},
		{name: "user targets other", caller: "a", userID: "b", wantErr: ErrUnauthorized},
		{name: "admin targets other", caller: "admin", userID: "b", wantFilter: "b"},
		{name: "unknown caller", caller: "ghost", wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newLoginFixture()
			queried := false
			store.queryFn = func(_ context.Context, f repository.LoginFilter) ([]models.LoginEvent, error) {
				queried = true
				if f.UserID != tt.wantFilter {
					t.Errorf("filter user = %q, want %q", f.UserID, tt.wantFilter)
				}
				return []models.LoginEvent{}, nil
			}

			_, err := svc.List(context.Background(), security.Principal{ID: tt.caller}, tt.userID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("List() error = %v, want %v", err, tt.wantErr)
				}
				if queried {
					t.Error("store queried despite denial")
				}
				return
			}
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if !queried {
				t.Error("store not queried")
			}
		})
	}
}

func TestLoginExport(t *testing.T) {
	svc, store, archive := newLoginFixture()
	store.queryFn = func(context.Context, repository.LoginFilter) ([]models.LoginEvent, error) {
		return []models.LoginEvent{{ID: "l1", UserID: "a", DisplayName: "A", UserAgentInfo: "curl"}}, nil
	}

	if _, err := svc.Export(context.Background(), security.Principal{ID: "a"}, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Export() as user error = %v, want %v", err, ErrUnauthorized)
	}

	key, err := svc.Export(context.Background(), security.Principal{ID: "admin"}, "")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(key, "logins/exports/") || !strings.HasSuffix(key, ".json") {
		t.Errorf("key = %q", key)
	}
	var records []map[string]any
	if err := json.Unmarshal(archive.objects[key], &records); err != nil {
		t.Fatalf("archived object is not JSON: %v", err)
	}
	if len(records) != 1 || records[0]["displayName"] != "A" {
		t.Errorf("archived records = %v", records)
	}
}

func TestLoginArchivePreviousDay(t *testing.T) {
	svc, store, archive := newLoginFixture()
	store.queryFn = func(_ context.Context, f repository.LoginFilter) ([]models.LoginEvent, error) {
		wantSince := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)
		if !f.Since.Equal(wantSince) || !f.Until.Equal(wantSince.AddDate(0, 0, 1)) {
			t.Errorf("window = [%v, %v)", f.Since, f.Until)
		}
		return []models.LoginEvent{{ID: "l1"}, {ID: "l2"}}, nil
	}

	key, n, err := svc.ArchivePreviousDay(context.Background())
	if err != nil {
		t.Fatalf("ArchivePreviousDay() error = %v", err)
	}
	if key != "logins/daily/2026-05-09.json" || n != 2 {
		t.Errorf("ArchivePreviousDay() = %q, %d", key, n)
	}
	if _, ok := archive.objects[key]; !ok {
		t.Error("object not written")
	}
}

func TestLoginExportArchiveFailure(t *testing.T) {
	svc, _, archive := newLoginFixture()
	archive.err = errors.New("bucket missing")

	_, err := svc.Export(context.Background(), security.Principal{ID: "admin"}, "")
	if KindOf(err) != KindDependency {
		t.Fatalf("Export() error = %v, want dependency failure", err)
	}
}
