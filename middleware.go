package accesskit

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// OwnershipLookup returns the owning organization and owner of a resource.
// It returns an error wrapping ErrNotFound for unknown resources.
type OwnershipLookup interface {
	LookupResource(ctx context.Context, kind ResourceKind, id string) (ResourceRef, error)
}

// OwnershipLookupFunc adapts a function to OwnershipLookup.
type OwnershipLookupFunc func(ctx context.Context, kind ResourceKind, id string) (ResourceRef, error)

// LookupResource implements OwnershipLookup.
func (f OwnershipLookupFunc) LookupResource(ctx context.Context, kind ResourceKind, id string) (ResourceRef, error) {
	return f(ctx, kind, id)
}

// Middleware binds guards to net/http handlers.
type Middleware struct {
	resolver     PrincipalResolver
	guard        *Guard
	lookup       OwnershipLookup
	metrics      *Metrics
	logger       zerolog.Logger
	getToken     func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := accesskit.NewMiddleware(resolver, guard,
//	    accesskit.WithOwnershipLookup(service),
//	)
//	r.Use(mw.Authenticate())
//	r.With(mw.RequirePermission(accesskit.PermServiceEdit, accesskit.ResourceFromParam(accesskit.ResourceService, "serviceID"))).
//	    Put("/services/{serviceID}", updateService)
func NewMiddleware(resolver PrincipalResolver, guard *Guard, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		resolver: resolver,
		guard:    guard,
		logger:   zerolog.Nop(),
		getToken: bearerToken,
	}
	m.errorHandler = m.writeError

	for _, opt := range opts {
		opt(m)
	}
	if m.guard == nil {
		m.guard = NewGuard()
	}
	return m
}

// WithTokenExtractor sets a custom function to read the token from a request.
func WithTokenExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getToken = fn
	}
}

// WithErrorHandler sets a custom error handler for denials.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

// WithOwnershipLookup sets the lookup used by resource-scoped requirements.
func WithOwnershipLookup(l OwnershipLookup) MiddlewareOption {
	return func(m *Middleware) {
		m.lookup = l
	}
}

// WithMiddlewareMetrics records principal resolution results.
func WithMiddlewareMetrics(metrics *Metrics) MiddlewareOption {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// WithMiddlewareLogger sets the logger.
func WithMiddlewareLogger(l zerolog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = l
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (m *Middleware) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := NewErrorResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Error.StatusCode)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		m.logger.Error().Err(encErr).Msg("failed to write error response")
	}
}

func (m *Middleware) observeResolution(result string) {
	if m.metrics != nil {
		m.metrics.ObserveResolution(result)
	}
}

// Authenticate resolves the principal once per request and stores the
// snapshot and its Checker in the context. Requests without a token pass
// through anonymously; protected routes then answer 401. An invalid token
// is rejected immediately.
func (m *Middleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if PrincipalFromContext(ctx) != nil {
				next.ServeHTTP(w, r)
				return
			}

			token := m.getToken(r)
			if token == "" {
				m.observeResolution("anonymous")
				next.ServeHTTP(w, r)
				return
			}

			p, err := m.resolver.ResolvePrincipal(ctx, token)
			if err != nil || p == nil {
				if err != nil && !IsUnauthenticated(err) {
					m.observeResolution("error")
					m.logger.Error().Err(err).Str("request_id", GetRequestID(ctx)).Msg("principal resolution failed")
				} else {
					m.observeResolution("rejected")
				}
				m.errorHandler(w, r, NewError(ErrUnauthenticated, "authentication required"))
				return
			}

			m.observeResolution("ok")
			snapshot := p.Clone()
			ctx = WithPrincipal(ctx, snapshot)
			ctx = WithChecker(ctx, newChecker(snapshot))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirementFunc builds a requirement from a request.
type RequirementFunc func(*http.Request) (Requirement, error)

// Require creates middleware that enforces the requirement built by fn.
// Anonymous requests are answered with 401 before fn runs.
func (m *Middleware) Require(fn RequirementFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p := PrincipalFromContext(ctx)
			if p == nil {
				d := m.guard.Check(ctx, Resolved(nil), Requirement{})
				m.errorHandler(w, r, d.Err())
				return
			}

			req, err := fn(r)
			if err != nil {
				if !IsNotFound(err) && !IsUnauthorized(err) {
					m.logger.Error().Err(err).Str("principal_id", p.ID).Msg("failed to build access requirement")
				}
				m.errorHandler(w, r, NewError(ErrUnauthorized, "resource not accessible").WithUser(p.ID))
				return
			}

			d := m.guard.Check(ctx, Resolved(p), req)
			if !d.Allowed() {
				m.errorHandler(w, r, d.Err())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission creates middleware that requires perm. With a nil
// extractor the check is not tied to a resource. A resource-scoped check
// panics with a configuration error unless WithOwnershipLookup was given.
//
// Example:
//
//	router.With(mw.RequirePermission(accesskit.PermProjectEdit, accesskit.ResourceFromParam(accesskit.ResourceProject, "projectID"))).
//	    Put("/projects/{projectID}", updateProject)
func (m *Middleware) RequirePermission(perm Permission, extractor ResourceExtractor) func(http.Handler) http.Handler {
	return m.Require(m.requirement(RequireAllOf(perm), extractor))
}

// RequireAll creates middleware that requires every permission.
func (m *Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return m.Require(m.requirement(RequireAllOf(perms...), nil))
}

// RequireAny creates middleware that requires at least one permission.
func (m *Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return m.Require(m.requirement(RequireAnyOf(perms...), nil))
}

// RequireOwner creates middleware that only lets the resource owner through.
// The owner must also hold perms, if any are given.
// It panics with a configuration error when extractor is nil.
func (m *Middleware) RequireOwner(extractor ResourceExtractor, perms ...Permission) func(http.Handler) http.Handler {
	if extractor == nil {
		panic(NewError(ErrConfiguration, "owner requirement without resource extractor"))
	}
	return m.Require(m.requirement(RequireAllOf(perms...).OwnedOnly(), extractor))
}

// requirement panics when a resource extractor is given but the middleware
// has no ownership lookup, so misconfigured routes fail when they are built.
func (m *Middleware) requirement(base Requirement, extractor ResourceExtractor) RequirementFunc {
	if extractor != nil && m.lookup == nil {
		panic(NewError(ErrConfiguration, "resource requirement without ownership lookup"))
	}
	return func(r *http.Request) (Requirement, error) {
		if extractor == nil {
			return base, nil
		}
		kind, id, err := extractor(r)
		if err != nil {
			return Requirement{}, err
		}
		ref, err := m.lookup.LookupResource(r.Context(), kind, id)
		if err != nil {
			return Requirement{}, err
		}
		return base.On(ref), nil
	}
}

// ResourceExtractor extracts the kind and ID of the target resource from a request.
type ResourceExtractor func(*http.Request) (kind ResourceKind, id string, err error)

// ResourceFromParam creates a ResourceExtractor that reads the ID from a
// route parameter. chi parameters are tried first, then net/http patterns.
func ResourceFromParam(kind ResourceKind, paramName string) ResourceExtractor {
	return func(r *http.Request) (ResourceKind, string, error) {
		id := chi.URLParam(r, paramName)
		if id == "" {
			id = r.PathValue(paramName)
		}
		if id == "" {
			return "", "", NewError(ErrNotFound, "resource ID not found in path")
		}
		return kind, id, nil
	}
}

// ResourceFromQuery creates a ResourceExtractor that reads the ID from a query parameter.
func ResourceFromQuery(kind ResourceKind, queryParam string) ResourceExtractor {
	return func(r *http.Request) (ResourceKind, string, error) {
		id := r.URL.Query().Get(queryParam)
		if id == "" {
			return "", "", NewError(ErrNotFound, "resource ID not found in query")
		}
		return kind, id, nil
	}
}

// ResourceFromHeader creates a ResourceExtractor that reads the ID from a header.
func ResourceFromHeader(kind ResourceKind, headerName string) ResourceExtractor {
	return func(r *http.Request) (ResourceKind, string, error) {
		id := r.Header.Get(headerName)
		if id == "" {
			return "", "", NewError(ErrNotFound, "resource ID not found in header")
		}
		return kind, id, nil
	}
}

// StaticResource creates a ResourceExtractor that always returns the same resource.
func StaticResource(kind ResourceKind, id string) ResourceExtractor {
	return func(r *http.Request) (ResourceKind, string, error) {
		return kind, id, nil
	}
}

// InjectAuditContext creates middleware that extracts audit information
// from the request and adds it to the context for decision records.
//
// Example:
//
//	router.Use(middleware.RequestID, mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := r.Header.Get("X-Forwarded-For")
			if first, _, ok := strings.Cut(ip, ","); ok {
				ip = first
			}
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, strings.TrimSpace(ip))
			ctx = WithUserAgent(ctx, r.UserAgent())

			requestID := middleware.GetReqID(ctx)
			if requestID == "" {
				requestID = r.Header.Get("X-Request-ID")
			}
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			if p := PrincipalFromContext(ctx); p != nil {
				ctx = WithActorID(ctx, p.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
