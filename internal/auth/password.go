package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordPolicy is returned when a password does not match the configured pattern.
var ErrPasswordPolicy = errors.New("password does not meet the policy")

// MaxPasswordBytes is the longest password bcrypt hashes.
const MaxPasswordBytes = 72

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// PasswordPolicy validates plaintext passwords against a regular expression.
type PasswordPolicy struct {
	re *regexp.Regexp
}

// NewPasswordPolicy compiles pattern (PASSWORD_REGEXP).
func NewPasswordPolicy(pattern string) (*PasswordPolicy, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid password pattern %q: %w", pattern, err)
	}
	return &PasswordPolicy{re: re}, nil
}

// Check returns ErrPasswordPolicy if password does not match or is too long to hash.
func (p *PasswordPolicy) Check(password string) error {
	if len(password) > MaxPasswordBytes || !p.re.MatchString(password) {
		return ErrPasswordPolicy
	}
	return nil
}
