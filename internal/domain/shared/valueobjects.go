// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// ═══════════════════════════════════════════════════════════════════════════
// Identifiers
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s is a well-formed UUID string.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// ValidateID returns ErrInvalidUUID when id is not a UUID.
func ValidateID(id string) error {
	if !IsUUID(id) {
		return ErrInvalidUUID
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Money
// ═══════════════════════════════════════════════════════════════════════════

// Money is an amount in minor currency units (cents) with an ISO 4217 currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// NewMoney creates a positive Money value. The currency code is upper-cased.
func NewMoney(amount int64, currency string) (Money, error) {
	m := Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(currency))}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate checks the amount and currency code.
func (m Money) Validate() error {
	if m.Amount <= 0 {
		return ErrInvalidMoney
	}
	if !currencyRegex.MatchString(m.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// IsZero reports whether the value was never set.
func (m Money) IsZero() bool {
	return m.Amount == 0 && m.Currency == ""
}

// Equals compares amount and currency.
func (m Money) Equals(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// Add sums two values of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	if other.Amount > 0 && m.Amount > math.MaxInt64-other.Amount {
		return Money{}, ErrInvalidMoney
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// String formats the value as "1234.50 USD".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}

// ═══════════════════════════════════════════════════════════════════════════
// Email
// ═══════════════════════════════════════════════════════════════════════════

// Email is a lower-cased, syntactically valid e-mail address.
type Email string

const maxEmailLength = 254

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// NewEmail normalizes and validates an e-mail address.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" || len(normalized) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	if !emailRegex.MatchString(normalized) {
		return "", ErrInvalidEmail
	}
	return Email(normalized), nil
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// GPA
// ═══════════════════════════════════════════════════════════════════════════

// GPA is a grade point average on the 0.0–4.0 scale.
type GPA float64

const (
	MinGPA GPA = 0
	MaxGPA GPA = 4
)

// NewGPA validates the range.
func NewGPA(value float64) (GPA, error) {
	if math.IsNaN(value) || value < float64(MinGPA) || value > float64(MaxGPA) {
		return 0, ErrInvalidGPA
	}
	return GPA(value), nil
}

// Float64 returns the underlying value.
func (g GPA) Float64() float64 {
	return float64(g)
}

// String formats with two decimals.
func (g GPA) String() string {
	return fmt.Sprintf("%.2f", float64(g))
}

// ═══════════════════════════════════════════════════════════════════════════
// Slug
// ═══════════════════════════════════════════════════════════════════════════

// Slug is a URL-safe identifier: lowercase alphanumeric words joined by single hyphens.
type Slug string

const maxSlugLength = 220

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// NewSlug validates an explicit slug.
func NewSlug(raw string) (Slug, error) {
	s := Slug(strings.TrimSpace(raw))
	if !s.IsValid() {
		return "", ErrInvalidSlug
	}
	return s, nil
}

// IsValid checks the slug pattern and length.
func (s Slug) IsValid() bool {
	return len(s) > 0 && len(s) <= maxSlugLength && slugRegex.MatchString(string(s))
}

// String returns the string representation.
func (s Slug) String() string {
	return string(s)
}

// Slugify derives a slug from free text, dropping anything that is not a latin letter or digit.
func Slugify(text string) (Slug, error) {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	out := b.String()
	if len(out) > maxSlugLength {
		out = strings.TrimRight(out[:maxSlugLength], "-")
	}
	return NewSlug(out)
}

// ═══════════════════════════════════════════════════════════════════════════
// URLs
// ═══════════════════════════════════════════════════════════════════════════

// ValidateHTTPURL accepts absolute http and https URLs with a host.
func ValidateHTTPURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}
