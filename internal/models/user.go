package models

import "time"

// RoleAdmin is the only role the authorization rules consult.
const RoleAdmin = "Admin"

type User struct {
	ID                   string
	Email                string
	Username             string
	DisplayName          string
	PasswordHash         []byte
	EmailConfirmed       bool
	PhoneNumber          *string
	PhoneNumberConfirmed bool
	TermsAgreedTo        bool
	TermsAgreedToOn      time.Time
	PasswordLastChanged  time.Time
	LockoutEnabled       bool
	LockoutEnd           *time.Time
	JoinedOn             time.Time
	UpdatedAt            time.Time
}

// LockedOut reports whether sign-in must be refused. Any lockout end other
// than the zero value counts, whether or not it lies in the past.
func (u User) LockedOut() bool {
	return u.LockoutEnabled && u.LockoutEnd != nil && !u.LockoutEnd.IsZero()
}

type LoginEvent struct {
	ID            string
	UserID        string
	IPAddress     string
	UserAgentInfo string
	LoggedInOn    time.Time
	DisplayName   string
}
