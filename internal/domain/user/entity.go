// Package user содержит доменную модель пользователя: роль, статус,
// пароль и профили студента и спонсора.
package user

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль пользователя.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
	RoleSponsor Role = "SPONSOR"
)

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSponsor:
		return true
	default:
		return false
	}
}

// Status определяет состояние учётной записи.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrUserNotFound       = shared.NewDomainError("user", "Find", shared.ErrNotFound, "user not found")
	ErrEmailTaken         = shared.NewDomainError("user", "Create", shared.ErrAlreadyExists, "email is already registered")
	ErrInvalidRole        = shared.NewDomainError("user", "Validate", shared.ErrInvalidInput, "invalid role")
	ErrInvalidName        = shared.NewDomainError("user", "Validate", shared.ErrValueOutOfRange, "names must be 1-100 characters")
	ErrInvalidCredentials = shared.NewDomainError("user", "Authenticate", shared.ErrUnauthorized, "invalid email or password")
	ErrNotActive          = shared.NewDomainError("user", "CheckStatus", shared.ErrForbidden, "user is not active")
	ErrAlreadyActive      = shared.NewDomainError("user", "Activate", shared.ErrInvalidState, "user is already active")
	ErrNotActiveToDeact   = shared.NewDomainError("user", "Deactivate", shared.ErrInvalidState, "only active users can be deactivated")
	ErrAlreadySuspended   = shared.NewDomainError("user", "Suspend", shared.ErrInvalidState, "user is already suspended")
	ErrWrongPassword      = shared.NewDomainError("user", "ChangePassword", shared.ErrUnauthorized, "current password is incorrect")
)

const maxNameLength = 100

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - учётная запись. Хеш пароля никогда не сериализуется.
type User struct {
	ID           string
	Email        shared.Email
	PasswordHash PasswordHash `json:"-"`
	Role         Role
	Status       Status
	FirstName    string
	LastName     string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUserParams содержит параметры регистрации.
type NewUserParams struct {
	ID        string
	Email     string
	Password  string
	Role      Role
	FirstName string
	LastName  string
}

// NewUser создаёт активного пользователя с захешированным паролем.
func NewUser(p NewUserParams) (*User, error) {
	if err := shared.ValidateID(p.ID); err != nil {
		return nil, err
	}
	email, err := shared.NewEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if !p.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	first, err := normalizeName(p.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := normalizeName(p.LastName)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		ID:           p.ID,
		Email:        email,
		PasswordHash: hash,
		Role:         p.Role,
		Status:       StatusActive,
		FirstName:    first,
		LastName:     last,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDICATES
// ══════════════════════════════════════════════════════════════════════════════

// IsActive возвращает true для активной учётной записи.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// CanApply - только активные студенты подают заявки.
func (u *User) CanApply() bool {
	return u.IsActive() && u.Role == RoleStudent
}

// CanSponsor - спонсоры и администраторы создают стипендии.
func (u *User) CanSponsor() bool {
	return u.IsActive() && (u.Role == RoleSponsor || u.Role == RoleAdmin)
}

// FullName возвращает имя и фамилию.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Activate переводит INACTIVE или SUSPENDED -> ACTIVE.
func (u *User) Activate() error {
	if u.Status == StatusActive {
		return ErrAlreadyActive
	}
	u.Status = StatusActive
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate переводит ACTIVE -> INACTIVE.
func (u *User) Deactivate() error {
	if u.Status != StatusActive {
		return ErrNotActiveToDeact
	}
	u.Status = StatusInactive
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Suspend блокирует учётную запись.
func (u *User) Suspend() error {
	if u.Status == StatusSuspended {
		return ErrAlreadySuspended
	}
	u.Status = StatusSuspended
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Authenticate сверяет пароль и отмечает время входа.
func (u *User) Authenticate(password string) error {
	if !u.PasswordHash.Matches(password) {
		return ErrInvalidCredentials
	}
	if !u.IsActive() {
		return ErrNotActive
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	return nil
}

// ChangePassword - единственное место, где пароль сравнивается с введённым значением.
func (u *User) ChangePassword(current, next string) error {
	if !u.PasswordHash.Matches(current) {
		return ErrWrongPassword
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Clone создаёт копию пользователя.
func (u *User) Clone() *User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTOR
// ══════════════════════════════════════════════════════════════════════════════

// Actor - аутентифицированный участник запроса, уже разрешённый шлюзом авторизации.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin возвращает true для администратора.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Is проверяет, что действует указанный пользователь.
func (a Actor) Is(userID string) bool {
	return a.ID != "" && a.ID == userID
}

// IsZero возвращает true, если участник не задан.
func (a Actor) IsZero() bool {
	return a.ID == ""
}

var ErrForbidden = shared.NewDomainError("user", "Authorize", shared.ErrForbidden, "actor is not allowed to perform this operation")
