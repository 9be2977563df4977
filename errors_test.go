package accesskit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSentinelErrors tests that all sentinel errors are properly defined
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrUnauthenticated", ErrUnauthenticated, "accesskit: unauthenticated"},
		{"ErrUnauthorized", ErrUnauthorized, "accesskit: unauthorized"},
		{"ErrConfiguration", ErrConfiguration, "accesskit: invalid configuration"},
		{"ErrInvalidPermission", ErrInvalidPermission, "accesskit: invalid permission"},
		{"ErrInvalidRole", ErrInvalidRole, "accesskit: invalid role"},
		{"ErrInvalidOrganization", ErrInvalidOrganization, "accesskit: invalid organization"},
		{"ErrInvalidInput", ErrInvalidInput, "accesskit: invalid input"},
		{"ErrNotFound", ErrNotFound, "accesskit: not found"},
		{"ErrSystemRole", ErrSystemRole, "accesskit: system roles are immutable"},
		{"ErrCannotAssign", ErrCannotAssign, "accesskit: cannot assign role"},
		{"ErrRoleAlreadyAssigned", ErrRoleAlreadyAssigned, "accesskit: role already assigned"},
		{"ErrRoleNotAssigned", ErrRoleNotAssigned, "accesskit: role not assigned"},
		{"ErrDatabaseError", ErrDatabaseError, "accesskit: database error"},
		{"ErrRateLimited", ErrRateLimited, "accesskit: rate limit exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

// TestError_Error tests the Error method of Error struct
func TestError_Error(t *testing.T) {
	t.Run("With message", func(t *testing.T) {
		err := NewError(ErrInvalidRole, "role 'ghost' is not in the catalog")
		assert.Equal(t, "accesskit: invalid role: role 'ghost' is not in the catalog", err.Error())
	})

	t.Run("Without message", func(t *testing.T) {
		err := &Error{Err: ErrInvalidRole}
		assert.Equal(t, "accesskit: invalid role", err.Error())
	})
}

// TestError_Is tests matching through wrapping
func TestError_Is(t *testing.T) {
	err := NewError(ErrCannotAssign, "nope")
	assert.True(t, errors.Is(err, ErrCannotAssign))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, ErrCannotAssign, err.Unwrap())

	wrapped := fmt.Errorf("assign: %w", err)
	assert.True(t, IsCannotAssign(wrapped))

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, "nope", e.Message)
}

// TestError_Context tests the chainable context setters
func TestError_Context(t *testing.T) {
	err := NewError(ErrUnauthorized, "denied").
		WithPermission(PermBillingManage).
		WithResource("inv-1").
		WithOrganization("org-1").
		WithUser("u1").
		WithActor("a1")

	assert.Equal(t, "billing:manage", err.Permission)
	assert.Equal(t, "inv-1", err.ResourceID)
	assert.Equal(t, "org-1", err.OrganizationID)
	assert.Equal(t, "u1", err.UserID)
	assert.Equal(t, "a1", err.ActorID)
}

// TestErrorHelpers tests the Is* helpers
func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsUnauthenticated(NewError(ErrUnauthenticated, "")))
	assert.True(t, IsUnauthorized(NewError(ErrUnauthorized, "")))
	assert.True(t, IsConfiguration(errors.Join(NewError(ErrConfiguration, "a"), NewError(ErrConfiguration, "b"))))
	assert.True(t, IsNotFound(NewError(ErrNotFound, "")))
	assert.True(t, IsSystemRole(NewError(ErrSystemRole, "")))
	assert.True(t, IsCannotAssign(NewError(ErrCannotAssign, "")))
	assert.False(t, IsUnauthorized(nil))
}

// TestKindOf tests boundary classification
func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuthentication, KindOf(ErrUnauthenticated))
	assert.Equal(t, KindAuthorization, KindOf(ErrUnauthorized))
	assert.Equal(t, KindAuthorization, KindOf(ErrCannotAssign))
	assert.Equal(t, KindAuthorization, KindOf(errors.New("boom")))
	assert.Equal(t, KindConfiguration, KindOf(ErrConfiguration))
	assert.Equal(t, KindRateLimit, KindOf(NewError(ErrRateLimited, "slow down")))

	assert.Equal(t, http.StatusUnauthorized, StatusCode(ErrUnauthenticated))
	assert.Equal(t, http.StatusForbidden, StatusCode(ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, StatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(ErrRateLimited))
}

// TestNewErrorResponse tests the JSON denial bodies
func TestNewErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"unauthenticated",
			NewError(ErrUnauthenticated, "token expired"),
			`{"error":{"type":"AuthenticationError","message":"Authentication required","statusCode":401}}`,
		},
		{
			"missing permission",
			NewError(ErrUnauthorized, "permission not granted").WithPermission(PermServiceDelete),
			`{"error":{"type":"AuthorizationError","message":"Missing required permission: service:delete","statusCode":403}}`,
		},
		{
			"organization mismatch",
			NewError(ErrUnauthorized, "resource belongs to another organization").WithOrganization("org-2"),
			`{"error":{"type":"AuthorizationError","message":"Access denied","statusCode":403}}`,
		},
		{
			"rate limited",
			NewError(ErrRateLimited, "too many requests").WithUser("u1"),
			`{"error":{"type":"RateLimitError","message":"Too many requests","statusCode":429}}`,
		},
		{
			"internal failure is not leaked",
			errors.New("pq: relation users does not exist"),
			`{"error":{"type":"AuthorizationError","message":"Access denied","statusCode":403}}`,
		},
		{
			"configuration failure is not leaked",
			NewError(ErrConfiguration, "resource requirement without ownership lookup"),
			`{"error":{"type":"AuthorizationError","message":"Access denied","statusCode":403}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(NewErrorResponse(tt.err))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
		})
	}
}
