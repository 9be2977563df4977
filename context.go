package accesskit

import (
	"context"
)

// Context keys for accesskit values.
type contextKey string

const (
	contextKeyPrincipal contextKey = "accesskit:principal"
	contextKeyChecker   contextKey = "accesskit:checker"
	contextKeyActorID   contextKey = "accesskit:actor_id"
	contextKeyIPAddress contextKey = "accesskit:ip_address"
	contextKeyUserAgent contextKey = "accesskit:user_agent"
	contextKeyRequestID contextKey = "accesskit:request_id"
)

// WithPrincipal stores the request's principal snapshot in the context.
// It is set once per request by Middleware.Authenticate.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext retrieves the principal snapshot.
// Returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	if v := ctx.Value(contextKeyPrincipal); v != nil {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// WithChecker adds a Checker to the context.
func WithChecker(ctx context.Context, checker *Checker) context.Context {
	return context.WithValue(ctx, contextKeyChecker, checker)
}

// GetChecker retrieves the Checker from context.
// Returns nil if not set.
func GetChecker(ctx context.Context) *Checker {
	if v := ctx.Value(contextKeyChecker); v != nil {
		if c, ok := v.(*Checker); ok {
			return c
		}
	}
	return nil
}

// FromContext retrieves the Checker from context. If none was stored it
// returns a checker that denies everything, so handlers never need a nil check.
func FromContext(ctx context.Context) *Checker {
	if c := GetChecker(ctx); c != nil {
		return c
	}
	return newChecker(nil)
}

// WithActorID adds an actor ID to the context (for audit purposes).
// Usually the principal itself, but can differ for impersonation or jobs.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Falls back to the principal ID if actor ID is not explicitly set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if p := PrincipalFromContext(ctx); p != nil {
		return p.ID
	}
	return ""
}

// WithIPAddress adds the client IP address to the context (for audit).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	return stringValue(ctx, contextKeyIPAddress)
}

// WithUserAgent adds the user agent to the context (for audit).
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	return stringValue(ctx, contextKeyUserAgent)
}

// WithRequestID adds a request ID to the context (for audit and correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, contextKeyRequestID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AuditContext holds all audit-related information from context.
type AuditContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext extracts all audit information from context.
func GetAuditContext(ctx context.Context) AuditContext {
	return AuditContext{
		ActorID:   GetActorID(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}
