package user

import (
	"sync/atomic"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes beyond 72
)

var ErrWeakPassword = shared.NewDomainError("user", "Validate", shared.ErrValueOutOfRange,
	"password must be 8-72 bytes and contain a letter and a digit")

var hashCost atomic.Int64

func init() {
	hashCost.Store(int64(bcrypt.DefaultCost))
}

// SetHashCost changes the bcrypt cost for newly hashed passwords.
// Values outside bcrypt's range are ignored.
func SetHashCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return
	}
	hashCost.Store(int64(cost))
}

// PasswordHash is a bcrypt hash. The plaintext is never stored.
type PasswordHash string

// ValidatePassword checks the password policy.
func ValidatePassword(plain string) error {
	if len(plain) < MinPasswordLength || len(plain) > MaxPasswordLength {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword validates and hashes a plaintext password.
func HashPassword(plain string) (PasswordHash, error) {
	if err := ValidatePassword(plain); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), int(hashCost.Load()))
	if err != nil {
		return "", shared.WrapError("user", "HashPassword", shared.ErrInternal, "hash password", err)
	}
	return PasswordHash(hash), nil
}

// Matches reports whether plain corresponds to the hash.
func (h PasswordHash) Matches(plain string) bool {
	if h == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(plain)) == nil
}

// String hides the hash from logs.
func (h PasswordHash) String() string {
	return "[REDACTED]"
}
