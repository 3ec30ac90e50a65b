package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"accounts/api/internal/models"
)

// LoginFilter narrows a login query. Zero values mean no constraint.
type LoginFilter struct {
	UserID string
	Since  time.Time
	Until  time.Time
	Limit  int
}

type LoginRepository struct {
	pool *pgxpool.Pool
}

func NewLoginRepository(pool *pgxpool.Pool) *LoginRepository {
	return &LoginRepository{pool: pool}
}

// Record inserts the event and returns it with the owner's display name.
func (r *LoginRepository) Record(ctx context.Context, event models.LoginEvent) (models.LoginEvent, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO user_logins (id, user_id, ip_address, user_agent_info, logged_in_on)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, user_id, ip_address, user_agent_info, logged_in_on
		)
		SELECT i.id, i.user_id, i.ip_address, i.user_agent_info, i.logged_in_on, u.display_name
		FROM inserted i
		JOIN users u ON u.id = i.user_id
	`

	var stored models.LoginEvent
	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.IPAddress,
		event.UserAgentInfo,
		event.LoggedInOn,
	).Scan(
		&stored.ID,
		&stored.UserID,
		&stored.IPAddress,
		&stored.UserAgentInfo,
		&stored.LoggedInOn,
		&stored.DisplayName,
	)
	if err != nil {
		return models.LoginEvent{}, err
	}
	return stored, nil
}

// Query returns matching events, newest first.
func (r *LoginRepository) Query(ctx context.Context, filter LoginFilter) ([]models.LoginEvent, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("l.user_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("l.logged_in_on >= $%d", len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		conditions = append(conditions, fmt.Sprintf("l.logged_in_on < $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`
		SELECT l.id, l.user_id, l.ip_address, l.user_agent_info, l.logged_in_on, u.display_name
		FROM user_logins l
		JOIN users u ON u.id = l.user_id
	`)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY l.logged_in_on DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.LoginEvent{}
	for rows.Next() {
		var e models.LoginEvent
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.IPAddress,
			&e.UserAgentInfo,
			&e.LoggedInOn,
			&e.DisplayName,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
