package service

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/authgate/auth-service/internal/repository"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

const minPasswordLength = 8

// PasswordRequirement describes one rule of the password policy, exposed via
// the public requirements endpoint.
type PasswordRequirement struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
}

// CredentialValidator checks email format, email uniqueness, and password
// strength before any token is issued.
type CredentialValidator struct {
	users repository.UserStore
}

// NewCredentialValidator builds the validator.
func NewCredentialValidator(users repository.UserStore) *CredentialValidator {
	return &CredentialValidator{users: users}
}

// ValidateEmailFormat checks the address shape only.
func (v *CredentialValidator) ValidateEmailFormat(email string) error {
	if !emailPattern.MatchString(email) {
		return errorutil.New(errorutil.KindInvalidEmailFormat, "")
	}
	return nil
}

// EnsureEmailAvailable rejects addresses already associated with an account.
func (v *CredentialValidator) EnsureEmailAvailable(ctx context.Context, email string) error {
	exists, err := v.users.ExistsByIdentifier(ctx, email)
	if err != nil {
		return errorutil.Wrap(errorutil.KindInternalError, "email availability check failed", err)
	}
	if exists {
		return errorutil.New(errorutil.KindDuplicateEmail, "the email address '"+email+"' is already in use")
	}
	return nil
}

// ValidatePasswordStrength checks the password against the policy and names
// every unmet rule in the failure detail.
func (v *CredentialValidator) ValidatePasswordStrength(password string) error {
	var unmet []string
	for _, req := range PasswordRequirements() {
		if !passwordMeets(password, req.Rule) {
			unmet = append(unmet, req.Description)
		}
	}
	if len(unmet) > 0 {
		return errorutil.New(errorutil.KindWeakPassword, "password must contain: "+strings.Join(unmet, ", "))
	}
	return nil
}

// PasswordRequirements lists the active password policy rules.
func PasswordRequirements() []PasswordRequirement {
	return []PasswordRequirement{
		{Rule: "length", Description: "at least 8 characters"},
		{Rule: "uppercase", Description: "an uppercase letter"},
		{Rule: "lowercase", Description: "a lowercase letter"},
		{Rule: "digit", Description: "a digit"},
		{Rule: "special", Description: "a special character"},
	}
}

func passwordMeets(password, rule string) bool {
	switch rule {
	case "length":
		return len(password) >= minPasswordLength
	case "uppercase":
		return containsClass(password, unicode.IsUpper)
	case "lowercase":
		return containsClass(password, unicode.IsLower)
	case "digit":
		return containsClass(password, unicode.IsDigit)
	case "special":
		return containsClass(password, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
	default:
		return true
	}
}

func containsClass(s string, match func(rune) bool) bool {
	for _, r := range s {
		if match(r) {
			return true
		}
	}
	return false
}
