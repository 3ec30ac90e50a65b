package security

import (
	"strings"
	"unicode"
)

// PasswordRule names the composition rule a password failed.
type PasswordRule string

const (
	RuleNewPasswordRequired     PasswordRule = "new_password_required"
	RuleConfirmPasswordRequired PasswordRule = "confirm_password_required"
	RulePasswordsMismatch       PasswordRule = "passwords_mismatch"
	RuleDigitRequired           PasswordRule = "digit_required"
	RuleUpperRequired           PasswordRule = "uppercase_required"
	RuleSpecialRequired         PasswordRule = "special_character_required"
)

// SpecialCharacters is the fixed set a password must draw at least one character from.
const SpecialCharacters = "!@#$%^&*()"

var ruleMessages = map[PasswordRule]string{
	RuleNewPasswordRequired:     "Password is required.",
	RuleConfirmPasswordRequired: "Confirm Password is required.",
	RulePasswordsMismatch:       "Passwords do not match.",
	RuleDigitRequired:           "Password needs at least one number.",
	RuleUpperRequired:           "Password needs at least one uppercase letter.",
	RuleSpecialRequired:         "Password needs at least one special character.",
}

type PolicyViolation struct {
	Rule PasswordRule
}

func (v *PolicyViolation) Error() string {
	return ruleMessages[v.Rule]
}

// CheckPasswordChange applies the rules in order and reports the first one
// broken. No minimum length is enforced.
func CheckPasswordChange(newPassword, confirmPassword string) error {
	if newPassword == "" {
		return &PolicyViolation{Rule: RuleNewPasswordRequired}
	}
	if confirmPassword == "" {
		return &PolicyViolation{Rule: RuleConfirmPasswordRequired}
	}
	if newPassword != confirmPassword {
		return &PolicyViolation{Rule: RulePasswordsMismatch}
	}
	return CheckPasswordComposition(newPassword)
}

func CheckPasswordComposition(password string) error {
	if password == "" {
		return &PolicyViolation{Rule: RuleNewPasswordRequired}
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return &PolicyViolation{Rule: RuleDigitRequired}
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return &PolicyViolation{Rule: RuleUpperRequired}
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		return &PolicyViolation{Rule: RuleSpecialRequired}
	}
	return nil
}
