package http

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

func testUser(role user.Role) *user.User {
	return &user.User{ID: uuid.NewString(), Role: role, Status: user.StatusActive}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "hub", time.Hour)
	u := testUser(user.RoleSponsor)

	token, expires, err := issuer.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	actor, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.Equal(t, user.RoleSponsor, actor.Role)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	u := testUser(user.RoleStudent)

	t.Run("expired", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", "hub", time.Minute)
		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := issuer.Issue(u)
		require.NoError(t, err)

		_, err = NewTokenIssuer("secret", "hub", time.Minute).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewTokenIssuer("secret", "hub", time.Minute).Issue(u)
		require.NoError(t, err)

		_, err = NewTokenIssuer("other", "hub", time.Minute).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _, err := NewTokenIssuer("secret", "someone-else", time.Minute).Issue(u)
		require.NoError(t, err)

		_, err = NewTokenIssuer("secret", "hub", time.Minute).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{
			Role: string(user.RoleAdmin),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   u.ID,
				Issuer:    "hub",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = NewTokenIssuer("secret", "hub", time.Minute).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, _, err := NewTokenIssuer("secret", "hub", time.Minute).Issue(testUser("ROOT"))
		require.NoError(t, err)

		_, err = NewTokenIssuer("secret", "hub", time.Minute).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
