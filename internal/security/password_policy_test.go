package security

import (
	"errors"
	"testing"
)

func TestCheckPasswordChange(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantRule PasswordRule
	}{
		{name: "valid", password: "Abcdef1!", confirm: "Abcdef1!"},
		{name: "short but valid", password: "A1!", confirm: "A1!"},
		{name: "empty new", password: "", confirm: "Abcdef1!", wantRule: RuleNewPasswordRequired},
		{name: "empty both", password: "", confirm: "", wantRule: RuleNewPasswordRequired},
		{name: "empty confirm", password: "Abcdef1!", confirm: "", wantRule: RuleConfirmPasswordRequired},
		{name: "mismatch", password: "Abcdef1!", confirm: "Abcdef1@", wantRule: RulePasswordsMismatch},
		{name: "mismatch beats composition", password: "abc", confirm: "abd", wantRule: RulePasswordsMismatch},
		{name: "no digit", password: "Abcdefg!", confirm: "Abcdefg!", wantRule: RuleDigitRequired},
		{name: "no upper", password: "abcdef1!", confirm: "abcdef1!", wantRule: RuleUpperRequired},
		{name: "no special", password: "Abcdef12", confirm: "Abcdef12", wantRule: RuleSpecialRequired},
		{name: "digit checked before upper", password: "abcdefg!", confirm: "abcdefg!", wantRule: RuleDigitRequired},
		{name: "special outside set", password: "Abcdef1?", confirm: "Abcdef1?", wantRule: RuleSpecialRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordChange(tt.password, tt.confirm)
			if tt.wantRule == "" {
				if err != nil {
					t.Fatalf("CheckPasswordChange() error = %v, want nil", err)
				}
				return
			}
			var violation *PolicyViolation
			if !errors.As(err, &violation) {
				t.Fatalf("CheckPasswordChange() error = %v, want *PolicyViolation", err)
			}
			if violation.Rule != tt.wantRule {
				t.Errorf("rule = %q, want %q", violation.Rule, tt.wantRule)
			}
			if violation.Error() == "" {
				t.Error("violation has empty message")
			}
		})
	}
}

func TestCheckPasswordComposition_EverySpecialCharacter(t *testing.T) {
	for _, c := range SpecialCharacters {
		pw := "Abc1" + string(c)
		if err := CheckPasswordComposition(pw); err != nil {
			t.Errorf("CheckPasswordComposition(%q) error = %v", pw, err)
		}
	}
}
