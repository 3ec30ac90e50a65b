package security

import (
	"testing"

	"accounts/api/internal/models"
)

func TestAllowed(t *testing.T) {
	admin := []string{models.RoleAdmin}
	member := []string{"Member"}

	tests := []struct {
		name     string
		callerID string
		roles    []string
		rule     Rule
		want     bool
	}{
		{name: "self updates own record", callerID: "a", roles: member, rule: SelfOrAdmin("a"), want: true},
		{name: "self without roles", callerID: "a", roles: nil, rule: SelfOrAdmin("a"), want: true},
		{name: "non-admin updates other", callerID: "a", roles: member, rule: SelfOrAdmin("b"), want: false},
		{name: "admin updates self", callerID: "admin", roles: admin, rule: SelfOrAdmin("admin"), want: true},
		{name: "admin updates other", callerID: "admin", roles: admin, rule: SelfOrAdmin("b"), want: true},
		{name: "empty caller never self", callerID: "", roles: nil, rule: SelfOrAdmin(""), want: false},
		{name: "admin only with admin", callerID: "admin", roles: admin, rule: AdminOnly(), want: true},
		{name: "admin only with member", callerID: "a", roles: member, rule: AdminOnly(), want: false},
		{name: "admin role is case sensitive", callerID: "a", roles: []string{"admin"}, rule: AdminOnly(), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.callerID, tt.roles, tt.rule); got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleSatisfiedBySelf(t *testing.T) {
	if AdminOnly().SatisfiedBySelf("a") {
		t.Error("AdminOnly satisfied by self")
	}
	if !SelfOrAdmin("a").SatisfiedBySelf("a") {
		t.Error("SelfOrAdmin not satisfied by owner")
	}
	if SelfOrAdmin("a").SatisfiedBySelf("b") {
		t.Error("SelfOrAdmin satisfied by stranger")
	}
}
