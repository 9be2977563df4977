package accesskit

import (
	"time"

	"github.com/uptrace/bun"
)

// OrganizationRecord is the stored form of an Organization.
type OrganizationRecord struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Type      string    `bun:"type,notnull"`
	ParentID  string    `bun:"parent_id,nullzero"`
	Status    string    `bun:"status,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (r *OrganizationRecord) toOrganization() Organization {
	return Organization{
		ID:        r.ID,
		Name:      r.Name,
		Type:      OrganizationType(r.Type),
		ParentID:  r.ParentID,
		Status:    OrganizationStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// UserRecord is the stored identity and membership of a principal.
type UserRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             string    `bun:"id,pk"`
	Email          string    `bun:"email,notnull"`
	DisplayName    string    `bun:"display_name"`
	OrganizationID string    `bun:"organization_id,nullzero"`
	Active         bool      `bun:"active,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RoleRecord stores an organization's custom role. System roles live in the
// catalog and are never stored.
type RoleRecord struct {
	bun.BaseModel `bun:"table:custom_roles,alias:cr"`

	ID             string    `bun:"id,pk,type:uuid"`
	OrganizationID string    `bun:"organization_id,notnull"`
	Name           string    `bun:"name,notnull"`
	Description    string    `bun:"description"`
	Type           string    `bun:"type,notnull"`
	Tier           string    `bun:"tier"`
	Permissions    []string  `bun:"permissions,array"`
	CreatedBy      string    `bun:"created_by"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// toRole decodes the stored tokens. A token outside the enumeration makes the
// whole role unusable rather than silently dropping a grant.
func (r *RoleRecord) toRole() (Role, error) {
	perms, err := ParsePermissions(r.Permissions)
	if err != nil {
		return Role{}, NewError(ErrInvalidRole, "stored role has invalid permissions: "+err.Error()).
			WithOrganization(r.OrganizationID)
	}
	return Role{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Permissions:    perms,
		OrganizationID: r.OrganizationID,
		Tier:           Tier(r.Tier),
		Type:           RoleType(r.Type),
	}, nil
}

// RoleAssignment links a user to a system or custom role.
type RoleAssignment struct {
	bun.BaseModel `bun:"table:role_assignments,alias:ra"`

	ID             string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID         string    `bun:"user_id,notnull"`
	RoleID         string    `bun:"role_id,notnull"`
	OrganizationID string    `bun:"organization_id,nullzero"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ResourceRecord stores ownership metadata for a resource.
type ResourceRecord struct {
	bun.BaseModel `bun:"table:resource_ownership,alias:ro"`

	Kind           string    `bun:"kind,pk"`
	ID             string    `bun:"id,pk"`
	OrganizationID string    `bun:"organization_id,notnull"`
	OwnerID        string    `bun:"owner_id,nullzero"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (r *ResourceRecord) toRef() ResourceRef {
	return ResourceRef{
		Kind:           ResourceKind(r.Kind),
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		OwnerID:        r.OwnerID,
	}
}

// RoleAuditLog records role assignment changes for compliance and debugging.
type RoleAuditLog struct {
	bun.BaseModel `bun:"table:role_audit_log,alias:ral"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	ActorID string `bun:"actor_id,notnull"`

	// What action was performed
	Action string `bun:"action,notnull"`

	// Target of the action
	TargetUserID   string `bun:"target_user_id,notnull"`
	RoleID         string `bun:"role_id,notnull"`
	OrganizationID string `bun:"organization_id"`

	// Target's roles before and after the change
	PreviousRoles []string `bun:"previous_roles,array"`
	NewRoles      []string `bun:"new_roles,array"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	Metadata map[string]any `bun:"metadata,type:jsonb"`
}

// DecisionLog stores one guard decision.
type DecisionLog struct {
	bun.BaseModel `bun:"table:access_decision_log,alias:adl"`

	ID                     string    `bun:"id,pk,type:uuid"`
	Timestamp              time.Time `bun:"timestamp,notnull"`
	PrincipalID            string    `bun:"principal_id"`
	OrganizationID         string    `bun:"organization_id"`
	Outcome                string    `bun:"outcome,notnull"`
	Reason                 string    `bun:"reason"`
	Permissions            []string  `bun:"permissions,array"`
	Mode                   string    `bun:"mode"`
	OwnerOnly              bool      `bun:"owner_only,notnull"`
	ResourceKind           string    `bun:"resource_kind"`
	ResourceID             string    `bun:"resource_id"`
	ResourceOrganizationID string    `bun:"resource_organization_id"`
	CrossOrganization      bool      `bun:"cross_organization,notnull"`
	IPAddress              string    `bun:"ip_address"`
	UserAgent              string    `bun:"user_agent"`
	RequestID              string    `bun:"request_id"`
}

// AuditAction represents the type of action in the role audit log.
type AuditAction string

const (
	AuditActionAssigned AuditAction = "assigned"
	AuditActionRevoked  AuditAction = "revoked"
)

// AuditEntry is used to create new role audit log entries.
type AuditEntry struct {
	ActorID        string
	Action         AuditAction
	TargetUserID   string
	RoleID         string
	OrganizationID string
	PreviousRoles  []string
	NewRoles       []string
	IPAddress      string
	UserAgent      string
	RequestID      string
	Metadata       map[string]any
}

// ToModel converts an AuditEntry to a RoleAuditLog model.
func (e *AuditEntry) ToModel() *RoleAuditLog {
	return &RoleAuditLog{
		ActorID:        e.ActorID,
		Action:         string(e.Action),
		TargetUserID:   e.TargetUserID,
		RoleID:         e.RoleID,
		OrganizationID: e.OrganizationID,
		PreviousRoles:  e.PreviousRoles,
		NewRoles:       e.NewRoles,
		IPAddress:      e.IPAddress,
		UserAgent:      e.UserAgent,
		RequestID:      e.RequestID,
		Metadata:       e.Metadata,
		Timestamp:      time.Now(),
	}
}

// newDecisionLog flattens a decision record for storage.
func newDecisionLog(id string, rec DecisionRecord) *DecisionLog {
	row := &DecisionLog{
		ID:                id,
		Timestamp:         rec.Timestamp,
		PrincipalID:       rec.PrincipalID,
		OrganizationID:    rec.OrganizationID,
		Outcome:           rec.Outcome.String(),
		Reason:            rec.Reason,
		Permissions:       permissionStrings(rec.Permissions),
		Mode:              rec.Mode.String(),
		OwnerOnly:         rec.OwnerOnly,
		CrossOrganization: rec.CrossOrganization,
		IPAddress:         rec.Audit.IPAddress,
		UserAgent:         rec.Audit.UserAgent,
		RequestID:         rec.Audit.RequestID,
	}
	if rec.Resource != nil {
		row.ResourceKind = string(rec.Resource.Kind)
		row.ResourceID = rec.Resource.ID
		row.ResourceOrganizationID = rec.Resource.OrganizationID
	}
	return row
}
