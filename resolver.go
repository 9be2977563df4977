package accesskit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalResolver turns a bearer token into a principal snapshot.
// It returns an error wrapping ErrUnauthenticated when the token does not
// identify anyone.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*Principal, error)
}

// ResolverFunc adapts a function to PrincipalResolver.
type ResolverFunc func(ctx context.Context, token string) (*Principal, error)

// ResolvePrincipal implements PrincipalResolver.
func (f ResolverFunc) ResolvePrincipal(ctx context.Context, token string) (*Principal, error) {
	return f(ctx, token)
}

// PrincipalLoader loads a principal with its roles and organization state.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (*Principal, error)
}

// Claims is the token payload understood by TokenResolver. Only the user
// and organization identifiers are read; roles always come from the loader.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"uid"`
	OrganizationID string `json:"org,omitempty"`
}

// TokenResolver validates HMAC-signed JWTs and loads the principal they name.
type TokenResolver struct {
	secret []byte
	issuer string
	loader PrincipalLoader
}

// NewTokenResolver creates a TokenResolver.
func NewTokenResolver(secret []byte, issuer string, loader PrincipalLoader) *TokenResolver {
	return &TokenResolver{secret: secret, issuer: issuer, loader: loader}
}

// ParseToken validates the signature, issuer and expiry of token.
func (r *TokenResolver) ParseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithIssuer(r.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, NewError(ErrUnauthenticated, "invalid token: "+err.Error())
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, NewError(ErrUnauthenticated, "invalid token claims")
	}
	return claims, nil
}

// ResolvePrincipal implements PrincipalResolver. Unknown users and tokens
// whose organization no longer matches the stored membership are rejected
// as unauthenticated; storage failures are returned unchanged.
func (r *TokenResolver) ResolvePrincipal(ctx context.Context, token string) (*Principal, error) {
	claims, err := r.ParseToken(token)
	if err != nil {
		return nil, err
	}

	p, err := r.loader.LoadPrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewError(ErrUnauthenticated, "unknown principal").WithUser(claims.UserID)
		}
		return nil, err
	}
	if claims.OrganizationID != "" && claims.OrganizationID != p.OrganizationID {
		return nil, NewError(ErrUnauthenticated, "token organization does not match membership").
			WithUser(claims.UserID).
			WithOrganization(claims.OrganizationID)
	}
	return p, nil
}

// IssueToken signs an HS256 token for a user. It is meant for sign-in
// handlers and tests; TokenResolver accepts what it produces.
func IssueToken(secret []byte, issuer, userID, organizationID string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", NewError(ErrConfiguration, "token secret is empty")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:         userID,
		OrganizationID: organizationID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
