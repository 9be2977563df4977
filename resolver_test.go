package accesskit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader map[string]*Principal

func (m mapLoader) LoadPrincipal(_ context.Context, userID string) (*Principal, error) {
	if userID == "broken" {
		return nil, errors.New("connection reset")
	}
	p, ok := m[userID]
	if !ok {
		return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
	}
	return p, nil
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestTokenResolver() *TokenResolver {
	return NewTokenResolver(testSecret, "accesskit-test", mapLoader{
		"u1": testPrincipal("u1", "org-1", testRole("buyer", PermServiceView)),
	})
}

// TestTokenResolverRoundTrip tests that issued tokens resolve to the stored principal
func TestTokenResolverRoundTrip(t *testing.T) {
	r := newTestTokenResolver()

	token, err := IssueToken(testSecret, "accesskit-test", "u1", "org-1", time.Hour)
	require.NoError(t, err)

	claims, err := r.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "org-1", claims.OrganizationID)

	p, err := r.ResolvePrincipal(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.True(t, HasPermission(p, PermServiceView))

	token, err = IssueToken(testSecret, "accesskit-test", "u1", "", time.Hour)
	require.NoError(t, err)
	_, err = r.ResolvePrincipal(context.Background(), token)
	assert.NoError(t, err, "organization claim is optional")
}

// TestTokenResolverRejects tests every way a token is refused
func TestTokenResolverRejects(t *testing.T) {
	r := newTestTokenResolver()

	wrongSecret, err := IssueToken([]byte("another-secret-another-secret-xx"), "accesskit-test", "u1", "org-1", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := IssueToken(testSecret, "someone-else", "u1", "org-1", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "accesskit-test", "u1", "org-1", -time.Minute)
	require.NoError(t, err)
	otherOrg, err := IssueToken(testSecret, "accesskit-test", "u1", "org-2", time.Hour)
	require.NoError(t, err)
	unknown, err := IssueToken(testSecret, "accesskit-test", "ghost", "", time.Hour)
	require.NoError(t, err)
	noUser, err := IssueToken(testSecret, "accesskit-test", "", "", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "accesskit-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "u1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":       "not-a-jwt",
		"wrong secret":  wrongSecret,
		"wrong issuer":  wrongIssuer,
		"expired":       expired,
		"org mismatch":  otherOrg,
		"unknown user":  unknown,
		"no user claim": noUser,
		"alg none":      none,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := r.ResolvePrincipal(context.Background(), token)
			assert.Nil(t, p)
			assert.True(t, IsUnauthenticated(err), "got %v", err)
		})
	}
}

// TestTokenResolverStorageFailure tests that loader failures are not reported as bad tokens
func TestTokenResolverStorageFailure(t *testing.T) {
	r := newTestTokenResolver()
	token, err := IssueToken(testSecret, "accesskit-test", "broken", "", time.Hour)
	require.NoError(t, err)

	_, err = r.ResolvePrincipal(context.Background(), token)
	require.Error(t, err)
	assert.False(t, IsUnauthenticated(err))
}

// TestIssueTokenEmptySecret tests that signing requires a secret
func TestIssueTokenEmptySecret(t *testing.T) {
	_, err := IssueToken(nil, "accesskit-test", "u1", "", time.Hour)
	assert.True(t, IsConfiguration(err))
}
