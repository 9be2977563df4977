package accesskit

import (
	"fmt"
	"time"
)

// OrganizationType describes where an organization sits in a tenant tree.
type OrganizationType string

const (
	OrganizationPrimary        OrganizationType = "primary"
	OrganizationSubsidiary     OrganizationType = "subsidiary"
	OrganizationChannelPartner OrganizationType = "channel_partner"
)

// Valid reports whether t is a known organization type.
func (t OrganizationType) Valid() bool {
	switch t {
	case OrganizationPrimary, OrganizationSubsidiary, OrganizationChannelPartner:
		return true
	}
	return false
}

// OrganizationStatus is the lifecycle state of an organization.
type OrganizationStatus string

const (
	OrganizationActive    OrganizationStatus = "active"
	OrganizationSuspended OrganizationStatus = "suspended"
	OrganizationArchived  OrganizationStatus = "archived"
)

// Valid reports whether s is a known status.
func (s OrganizationStatus) Valid() bool {
	switch s {
	case OrganizationActive, OrganizationSuspended, OrganizationArchived:
		return true
	}
	return false
}

// Organization is a tenant isolation boundary. Subsidiaries and channel
// partners reference a parent, but the hierarchy never grants access on
// its own: checks stay resource-scoped.
type Organization struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      OrganizationType   `json:"type"`
	ParentID  string             `json:"parentId,omitempty"`
	Status    OrganizationStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// IsActive reports whether members of the organization may be authorized.
func (o Organization) IsActive() bool {
	return o.Status == OrganizationActive
}

// Validate checks the structural rules of an organization.
func (o Organization) Validate() error {
	if o.ID == "" {
		return NewError(ErrInvalidOrganization, "organization ID is required")
	}
	if !o.Type.Valid() {
		return NewError(ErrInvalidOrganization, fmt.Sprintf("unknown organization type %q", o.Type)).
			WithOrganization(o.ID)
	}
	if !o.Status.Valid() {
		return NewError(ErrInvalidOrganization, fmt.Sprintf("unknown organization status %q", o.Status)).
			WithOrganization(o.ID)
	}
	switch o.Type {
	case OrganizationPrimary:
		if o.ParentID != "" {
			return NewError(ErrInvalidOrganization, "primary organizations cannot have a parent").
				WithOrganization(o.ID)
		}
	default:
		if o.ParentID == "" {
			return NewError(ErrInvalidOrganization, fmt.Sprintf("%s organizations require a parent", o.Type)).
				WithOrganization(o.ID)
		}
		if o.ParentID == o.ID {
			return NewError(ErrInvalidOrganization, "organization cannot be its own parent").
				WithOrganization(o.ID)
		}
	}
	return nil
}

// ResourceKind names the kinds of marketplace resources that carry ownership.
type ResourceKind string

const (
	ResourceService      ResourceKind = "service"
	ResourceProject      ResourceKind = "project"
	ResourceBooking      ResourceKind = "booking"
	ResourceUser         ResourceKind = "user"
	ResourceTeam         ResourceKind = "team"
	ResourceOrganization ResourceKind = "organization"
	ResourceVerification ResourceKind = "verification"
)

// Valid reports whether k is a known resource kind.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceService, ResourceProject, ResourceBooking, ResourceUser,
		ResourceTeam, ResourceOrganization, ResourceVerification:
		return true
	}
	return false
}

// ResourceRef identifies a resource and records who owns it.
type ResourceRef struct {
	Kind           ResourceKind `json:"kind"`
	ID             string       `json:"id"`
	OrganizationID string       `json:"organizationId"`
	OwnerID        string       `json:"ownerId,omitempty"`
}

// Resource builds a ResourceRef without an owner.
func Resource(kind ResourceKind, id, organizationID string) ResourceRef {
	return ResourceRef{Kind: kind, ID: id, OrganizationID: organizationID}
}

// OwnedBy returns a copy of the reference with the owner set.
func (r ResourceRef) OwnedBy(ownerID string) ResourceRef {
	r.OwnerID = ownerID
	return r
}

func (r ResourceRef) String() string {
	return string(r.Kind) + ":" + r.ID
}
