package accesskit

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for accesskit operations.
var (
	// ErrUnauthenticated is returned when no principal could be resolved.
	ErrUnauthenticated = errors.New("accesskit: unauthenticated")

	// ErrUnauthorized is returned when a principal lacks a required permission
	// or fails an ownership or organization match.
	ErrUnauthorized = errors.New("accesskit: unauthorized")

	// ErrConfiguration is returned when the role catalog is malformed.
	ErrConfiguration = errors.New("accesskit: invalid configuration")

	// ErrInvalidPermission is returned for tokens outside the permission enumeration.
	ErrInvalidPermission = errors.New("accesskit: invalid permission")

	// ErrInvalidRole is returned when a role definition or reference is invalid.
	ErrInvalidRole = errors.New("accesskit: invalid role")

	// ErrInvalidOrganization is returned when an organization breaks structural rules.
	ErrInvalidOrganization = errors.New("accesskit: invalid organization")

	// ErrInvalidInput is returned when administration input fails validation.
	ErrInvalidInput = errors.New("accesskit: invalid input")

	// ErrNotFound is returned when a user, role, organization or resource does not exist.
	ErrNotFound = errors.New("accesskit: not found")

	// ErrSystemRole is returned when trying to change a catalog role.
	ErrSystemRole = errors.New("accesskit: system roles are immutable")

	// ErrCannotAssign is returned when an actor may not grant a role.
	ErrCannotAssign = errors.New("accesskit: cannot assign role")

	// ErrRoleAlreadyAssigned is returned when the user already holds the role.
	ErrRoleAlreadyAssigned = errors.New("accesskit: role already assigned")

	// ErrRoleNotAssigned is returned when revoking a role the user does not hold.
	ErrRoleNotAssigned = errors.New("accesskit: role not assigned")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("accesskit: database error")

	// ErrRateLimited is returned when a caller exceeds its request budget.
	ErrRateLimited = errors.New("accesskit: rate limit exceeded")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err            error  // Underlying sentinel error
	Message        string // Additional context
	Permission     string // Permission involved (if applicable)
	ResourceID     string // Resource involved (if applicable)
	OrganizationID string // Organization involved (if applicable)
	UserID         string // User involved (if applicable)
	ActorID        string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithPermission records the permission that was checked.
func (e *Error) WithPermission(p Permission) *Error {
	e.Permission = p.String()
	return e
}

// WithResource records the resource that was checked.
func (e *Error) WithResource(resourceID string) *Error {
	e.ResourceID = resourceID
	return e
}

// WithOrganization records the organization involved.
func (e *Error) WithOrganization(organizationID string) *Error {
	e.OrganizationID = organizationID
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsUnauthenticated checks if an error means no principal was resolved.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConfiguration checks if an error comes from a malformed catalog.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotFound checks if an error is due to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSystemRole checks if an error is due to an attempt to change a system role.
func IsSystemRole(err error) bool {
	return errors.Is(err, ErrSystemRole)
}

// IsCannotAssign checks if an error is due to lacking assignment permission.
func IsCannotAssign(err error) bool {
	return errors.Is(err, ErrCannotAssign)
}

// Kind is the boundary-level classification of an error.
type Kind string

const (
	KindAuthentication Kind = "AuthenticationError"
	KindAuthorization  Kind = "AuthorizationError"
	KindConfiguration  Kind = "ConfigurationError"
	KindRateLimit      Kind = "RateLimitError"
)

// KindOf classifies err. Anything that is neither an authentication nor a
// configuration failure is treated as an authorization failure.
func KindOf(err error) Kind {
	switch {
	case IsUnauthenticated(err):
		return KindAuthentication
	case IsConfiguration(err):
		return KindConfiguration
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	default:
		return KindAuthorization
	}
}

// StatusCode returns the HTTP status a boundary should answer with for err.
func StatusCode(err error) int {
	switch {
	case IsUnauthenticated(err):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusForbidden
	}
}

// ErrorResponse is the JSON body written on denial.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the denial details.
type ErrorBody struct {
	Type       Kind   `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// NewErrorResponse maps any error to the authentication or authorization
// denial shape. Rate limiting has its own 429 body.
// Configuration and storage failures are reported as a plain denial so
// internal details never reach the caller.
func NewErrorResponse(err error) ErrorResponse {
	if IsUnauthenticated(err) {
		return ErrorResponse{Error: ErrorBody{
			Type:       KindAuthentication,
			Message:    "Authentication required",
			StatusCode: http.StatusUnauthorized,
		}}
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorResponse{Error: ErrorBody{
			Type:       KindRateLimit,
			Message:    "Too many requests",
			StatusCode: http.StatusTooManyRequests,
		}}
	}

	msg := "Access denied"
	var e *Error
	if IsUnauthorized(err) && errors.As(err, &e) && e.Permission != "" {
		msg = "Missing required permission: " + e.Permission
	}
	return ErrorResponse{Error: ErrorBody{
		Type:       KindAuthorization,
		Message:    msg,
		StatusCode: http.StatusForbidden,
	}}
}
