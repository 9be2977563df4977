package accesskit

import "time"

// AuditLogFilter provides options for filtering role audit log queries.
type AuditLogFilter struct {
	// Filter by actor who performed the action
	ActorID string

	// Filter by target user of the action
	TargetUserID string

	// Filter by organization
	OrganizationID string

	// Filter by action type ("assigned" or "revoked")
	Action string

	// Filter by role
	RoleID string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f AuditLogFilter) WithActor(actorID string) AuditLogFilter {
	f.ActorID = actorID
	return f
}

// WithTargetUser sets the target user ID filter.
func (f AuditLogFilter) WithTargetUser(userID string) AuditLogFilter {
	f.TargetUserID = userID
	return f
}

// WithOrganization sets the organization filter.
func (f AuditLogFilter) WithOrganization(organizationID string) AuditLogFilter {
	f.OrganizationID = organizationID
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = string(action)
	return f
}

// WithRole sets the role filter.
func (f AuditLogFilter) WithRole(roleID string) AuditLogFilter {
	f.RoleID = roleID
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// DecisionLogFilter selects stored access decisions.
type DecisionLogFilter struct {
	PrincipalID    string
	OrganizationID string
	ResourceID     string
	Outcome        string

	// CrossOrganizationOnly keeps only attempts on another organization's resources.
	CrossOrganizationOnly bool

	Since time.Time
	Until time.Time

	Limit  int
	Offset int
}

// NewDecisionLogFilter creates a filter with the default page size.
func NewDecisionLogFilter() DecisionLogFilter {
	return DecisionLogFilter{Limit: 100}
}

// WithPrincipal sets the principal filter.
func (f DecisionLogFilter) WithPrincipal(principalID string) DecisionLogFilter {
	f.PrincipalID = principalID
	return f
}

// WithOrganization sets the organization filter.
func (f DecisionLogFilter) WithOrganization(organizationID string) DecisionLogFilter {
	f.OrganizationID = organizationID
	return f
}

// WithResource sets the resource filter.
func (f DecisionLogFilter) WithResource(resourceID string) DecisionLogFilter {
	f.ResourceID = resourceID
	return f
}

// WithOutcome sets the outcome filter.
func (f DecisionLogFilter) WithOutcome(o Outcome) DecisionLogFilter {
	f.Outcome = o.String()
	return f
}

// CrossOrganization keeps only cross-organization attempts.
func (f DecisionLogFilter) CrossOrganization() DecisionLogFilter {
	f.CrossOrganizationOnly = true
	return f
}

// WithTimeRange sets the time range filter.
func (f DecisionLogFilter) WithTimeRange(since, until time.Time) DecisionLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f DecisionLogFilter) WithPagination(limit, offset int) DecisionLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
