package security

import "accounts/api/internal/models"

type ruleKind int

const (
	ruleAdminOnly ruleKind = iota
	ruleSelfOrAdmin
)

// Rule is the requirement a protected operation places on its caller.
type Rule struct {
	kind     ruleKind
	targetID string
}

// AdminOnly admits callers holding the Admin role.
func AdminOnly() Rule {
	return Rule{kind: ruleAdminOnly}
}

// SelfOrAdmin admits the owner of targetID, or any admin.
func SelfOrAdmin(targetID string) Rule {
	return Rule{kind: ruleSelfOrAdmin, targetID: targetID}
}

// SatisfiedBySelf reports whether the caller passes without a role lookup.
func (r Rule) SatisfiedBySelf(callerID string) bool {
	return r.kind == ruleSelfOrAdmin && callerID != "" && callerID == r.targetID
}

func (r Rule) String() string {
	if r.kind == ruleSelfOrAdmin {
		return "self_or_admin"
	}
	return "admin_only"
}

// Allowed decides a rule against the caller id and its current role set.
func Allowed(callerID string, roles []string, rule Rule) bool {
	if rule.SatisfiedBySelf(callerID) {
		return true
	}
	for _, role := range roles {
		if role == models.RoleAdmin {
			return true
		}
	}
	return false
}
