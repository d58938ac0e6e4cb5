package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 30)
	user := &domain.User{
		ID:    "abcd",
		Email: "ravi@example.com",
		Name:  "Ravi Kumar",
		Role:  domain.RoleSupport,
	}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "abcd", claims.Subject)
	require.Equal(t, "ravi@example.com", claims.Email)
	require.Equal(t, domain.RoleSupport, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-one", 30)
	verifier := NewTokenManager("secret-two", 30)

	token, _, err := issuer.GenerateToken(&domain.User{ID: "abcd", Role: domain.RoleCustomer})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 30)
	_, err := tm.ParseToken("not.a.jwt")
	require.Error(t, err)
}

func TestTokenTTLDefaultsWhenNonPositive(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", 0)
	_, expiresAt, err := tm.GenerateToken(&domain.User{ID: "abcd"})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
}
