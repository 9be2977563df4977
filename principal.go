package accesskit

import (
	"fmt"
	"slices"
	"time"
)

// Tier classifies vendor roles for feature gating.
type Tier string

const (
	TierBasic      Tier = "basic"
	TierVerified   Tier = "verified"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
	TierCustom     Tier = "custom"
)

// rank orders tiers: enterprise > premium > verified > everything else.
func (t Tier) rank() int {
	switch t {
	case TierEnterprise:
		return 3
	case TierPremium:
		return 2
	case TierVerified:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is a known tier. The empty tier is valid and means unspecified.
func (t Tier) Valid() bool {
	switch t {
	case "", TierBasic, TierVerified, TierPremium, TierEnterprise, TierCustom:
		return true
	}
	return false
}

// Outranks reports whether t is strictly higher than other.
func (t Tier) Outranks(other Tier) bool {
	return t.rank() > other.rank()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	v := Tier(text)
	if !v.Valid() {
		return NewError(ErrInvalidRole, fmt.Sprintf("unknown tier %q", text))
	}
	*t = v
	return nil
}

// RoleType classifies what kind of marketplace participant a role serves.
type RoleType string

const (
	RoleTypeBuyer  RoleType = "buyer"
	RoleTypeVendor RoleType = "vendor"
	RoleTypeAdmin  RoleType = "admin"
)

// Valid reports whether rt is a known role type.
func (rt RoleType) Valid() bool {
	switch rt {
	case RoleTypeBuyer, RoleTypeVendor, RoleTypeAdmin:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (rt *RoleType) UnmarshalText(text []byte) error {
	v := RoleType(text)
	if !v.Valid() {
		return NewError(ErrInvalidRole, fmt.Sprintf("unknown role type %q", text))
	}
	*rt = v
	return nil
}

// Role is a named bundle of permissions. System roles come from the catalog
// and are immutable; custom roles belong to one organization.
type Role struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Permissions    []Permission `json:"permissions"`
	OrganizationID string       `json:"organizationId,omitempty"`
	Tier           Tier         `json:"tier,omitempty"`
	Type           RoleType     `json:"type"`
	System         bool         `json:"system"`
}

// PermissionSet returns the role's permissions as a set.
func (r Role) PermissionSet() PermissionSet {
	return NewPermissionSet(r.Permissions...)
}

// Grants reports whether the role includes p.
func (r Role) Grants(p Permission) bool {
	return slices.Contains(r.Permissions, p)
}

// IsCustom reports whether the role is organization-defined.
func (r Role) IsCustom() bool {
	return !r.System
}

func (r Role) clone() Role {
	r.Permissions = slices.Clone(r.Permissions)
	return r
}

// Principal is an authenticated user together with its organization and
// resolved roles, as seen at decision time.
type Principal struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName,omitempty"`
	OrganizationID string    `json:"organizationId,omitempty"`
	Roles          []Role    `json:"roles"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Permissions returns the union of the permissions of all roles.
// It does not consider the Active flag.
func (p *Principal) Permissions() PermissionSet {
	if p == nil {
		return 0
	}
	var set PermissionSet
	for _, r := range p.Roles {
		set = set.Union(r.PermissionSet())
	}
	return set
}

// RoleIDs returns the IDs of the assigned roles in assignment order.
func (p *Principal) RoleIDs() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		ids[i] = r.ID
	}
	return ids
}

// Clone returns a deep copy of the principal.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Roles = make([]Role, len(p.Roles))
	for i, r := range p.Roles {
		cp.Roles[i] = r.clone()
	}
	return &cp
}
