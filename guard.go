package accesskit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Mode combines the permissions of a Requirement.
type Mode int

const (
	// ModeAll requires every permission. An empty list passes.
	ModeAll Mode = iota
	// ModeAny requires at least one permission. An empty list fails.
	ModeAny
)

func (m Mode) String() string {
	if m == ModeAny {
		return "any"
	}
	return "all"
}

// Requirement describes what a protected action needs.
type Requirement struct {
	Permissions []Permission
	Mode        Mode

	// Resource scopes the check to one resource. Its organization must
	// match the principal's unless the principal is a platform admin.
	Resource *ResourceRef

	// OwnerOnly additionally requires the principal to be the resource's
	// recorded owner. No permission grant satisfies it.
	OwnerOnly bool
}

// RequireAllOf builds a requirement needing every permission.
func RequireAllOf(perms ...Permission) Requirement {
	return Requirement{Permissions: perms, Mode: ModeAll}
}

// RequireAnyOf builds a requirement needing one of the permissions.
func RequireAnyOf(perms ...Permission) Requirement {
	return Requirement{Permissions: perms, Mode: ModeAny}
}

// On scopes the requirement to res.
func (r Requirement) On(res ResourceRef) Requirement {
	r.Resource = &res
	return r
}

// OwnedOnly marks the requirement as owner-only.
func (r Requirement) OwnedOnly() Requirement {
	r.OwnerOnly = true
	return r
}

// Outcome is the result of a guard evaluation.
type Outcome int

const (
	// OutcomeLoading means the principal is still being resolved. Protected
	// content must not be shown, and no denial should be reported yet.
	OutcomeLoading Outcome = iota
	// OutcomeUnauthenticated means there is no principal at all.
	OutcomeUnauthenticated
	// OutcomeDenied means the principal failed the requirement.
	OutcomeDenied
	// OutcomeAllowed means the action may proceed.
	OutcomeAllowed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeDenied:
		return "denied"
	case OutcomeAllowed:
		return "allowed"
	default:
		return "loading"
	}
}

// PrincipalState is the input of a guard: a principal that may still be
// loading or may be absent.
type PrincipalState struct {
	Loading   bool
	Principal *Principal
}

// LoadingState reports a principal that is not resolved yet.
func LoadingState() PrincipalState {
	return PrincipalState{Loading: true}
}

// Resolved wraps a resolved principal. A nil principal means unauthenticated.
func Resolved(p *Principal) PrincipalState {
	return PrincipalState{Principal: p}
}

// Decision is the outcome of evaluating a requirement.
type Decision struct {
	Outcome     Outcome
	Reason      string
	Missing     []Permission
	Requirement Requirement

	PrincipalID       string
	OrganizationID    string
	CrossOrganization bool
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

// Err converts a non-allowed decision into an error carrying the boundary
// kind. It returns nil for allowed and loading decisions.
func (d Decision) Err() error {
	switch d.Outcome {
	case OutcomeUnauthenticated:
		return NewError(ErrUnauthenticated, "authentication required")
	case OutcomeDenied:
		e := NewError(ErrUnauthorized, d.Reason).
			WithUser(d.PrincipalID).
			WithOrganization(d.OrganizationID)
		if len(d.Missing) > 0 {
			e.WithPermission(d.Missing[0])
		}
		if d.Requirement.Resource != nil {
			e.WithResource(d.Requirement.Resource.ID)
		}
		return e
	default:
		return nil
	}
}

// Evaluate decides a requirement for a principal state. It is pure.
func Evaluate(state PrincipalState, req Requirement) Decision {
	d := Decision{Requirement: req}
	if state.Loading {
		d.Outcome = OutcomeLoading
		return d
	}
	p := state.Principal
	if p == nil || p.ID == "" {
		d.Outcome = OutcomeUnauthenticated
		d.Reason = ReasonNoPrincipal
		return d
	}

	d.PrincipalID = p.ID
	d.OrganizationID = p.OrganizationID
	d.Outcome = OutcomeDenied

	res := req.Resource
	if res != nil {
		d.CrossOrganization = p.OrganizationID == "" || p.OrganizationID != res.OrganizationID
	}

	switch {
	case req.OwnerOnly && res == nil:
		d.Reason = ReasonMissingResource
		return d
	case !p.Active:
		d.Reason = ReasonInactive
		return d
	case res != nil && res.ID == "":
		d.Reason = ReasonMissingResource
		return d
	}

	c := newChecker(p)
	for _, perm := range req.Permissions {
		if !c.HasPermission(perm) {
			d.Missing = append(d.Missing, perm)
		}
	}
	held := len(req.Permissions) - len(d.Missing)
	switch req.Mode {
	case ModeAny:
		if held == 0 {
			d.Reason = ReasonMissingPermission
			return d
		}
		d.Missing = nil
	default:
		if len(d.Missing) > 0 {
			d.Reason = ReasonMissingPermission
			return d
		}
	}

	if res != nil && d.CrossOrganization && !c.platformAdmin() {
		d.Reason = ReasonOrganizationMismatch
		return d
	}
	if req.OwnerOnly && !IsOwner(p, *res) {
		d.Reason = ReasonNotOwner
		return d
	}

	d.Outcome = OutcomeAllowed
	d.Reason = ReasonGranted
	if res != nil && d.CrossOrganization {
		d.Reason = ReasonPlatformAdmin
	}
	return d
}

// Gate binds a decision to conditional rendering. Content is produced only
// for allowed decisions; denied and unauthenticated decisions produce the
// fallback, or the zero value when fallback is nil; loading always produces
// the zero value.
func Gate[T any](d Decision, content, fallback func() T) T {
	var zero T
	switch d.Outcome {
	case OutcomeAllowed:
		return content()
	case OutcomeDenied, OutcomeUnauthenticated:
		if fallback != nil {
			return fallback()
		}
	}
	return zero
}

// Guard evaluates requirements and reports every decision to an auditor,
// metrics and the log. The evaluation itself stays pure.
type Guard struct {
	auditor Auditor
	metrics *Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithAuditor sets the auditor that receives decision records.
func WithAuditor(a Auditor) GuardOption {
	return func(g *Guard) {
		g.auditor = a
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithGuardLogger sets the logger.
func WithGuardLogger(l zerolog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = l
	}
}

// NewGuard creates a Guard. Without options it only evaluates.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates req for state and records the decision.
func (g *Guard) Check(ctx context.Context, state PrincipalState, req Requirement) Decision {
	start := g.now()
	d := Evaluate(state, req)
	g.observe(ctx, d, g.now().Sub(start))
	return d
}

// Protect runs fn only when p satisfies req. A denial returns the decision's
// error and fn is never called.
//
// Example:
//
//	err := guard.Protect(ctx, principal, accesskit.RequireAllOf(accesskit.PermServiceDelete).On(ref),
//	    func(ctx context.Context) error {
//	        return services.Delete(ctx, ref.ID)
//	    })
func (g *Guard) Protect(ctx context.Context, p *Principal, req Requirement, fn func(ctx context.Context) error) error {
	d := g.Check(ctx, Resolved(p), req)
	if !d.Allowed() {
		return d.Err()
	}
	return fn(ctx)
}

func (g *Guard) observe(ctx context.Context, d Decision, elapsed time.Duration) {
	if d.Outcome == OutcomeLoading {
		return
	}
	if g.metrics != nil {
		g.metrics.ObserveDecision(d, elapsed)
	}

	level := zerolog.DebugLevel
	switch {
	case d.Outcome == OutcomeDenied && d.CrossOrganization:
		level = zerolog.WarnLevel
	case d.Outcome != OutcomeAllowed:
		level = zerolog.InfoLevel
	}
	g.logger.WithLevel(level).Str("outcome", d.Outcome.String()).
		Str("reason", d.Reason).
		Str("principal_id", d.PrincipalID).
		Str("organization_id", d.OrganizationID).
		Strs("permissions", permissionStrings(d.Requirement.Permissions)).
		Bool("cross_organization", d.CrossOrganization).
		Str("request_id", GetRequestID(ctx)).
		Msg("access decision")

	if g.auditor == nil {
		return
	}
	if err := g.auditor.RecordDecision(ctx, NewDecisionRecord(ctx, d, g.now())); err != nil {
		g.logger.Error().Err(err).Str("principal_id", d.PrincipalID).Msg("failed to record access decision")
	}
}

func permissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}
