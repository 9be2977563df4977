package accesskit

import (
	"errors"
	"fmt"
	"slices"
)

// Catalog is the versioned, immutable set of system roles loaded at process
// start. Build one with NewCatalogBuilder or LoadCatalogFile.
type Catalog struct {
	version string
	roles   []Role
	byID    map[string]int
}

// CatalogBuilder collects role definitions. Definition errors are gathered
// and reported together by Build.
type CatalogBuilder struct {
	version string
	roles   []*RoleDefinition
}

// RoleDefinition defines one system role.
type RoleDefinition struct {
	builder     *CatalogBuilder
	id          string
	name        string
	description string
	roleType    RoleType
	tier        Tier
	perms       []Permission
	patterns    []string
}

// NewCatalogBuilder starts a catalog with the given version label.
//
// Example:
//
//	catalog, err := accesskit.NewCatalogBuilder("2024-06").
//	    Role("buyer").Type(accesskit.RoleTypeBuyer).
//	        Grants(accesskit.PermServiceView, accesskit.PermBookingCreate).
//	    Role("vendor_premium").Type(accesskit.RoleTypeVendor).Tier(accesskit.TierPremium).
//	        GrantPatterns("service:*", "booking:view").
//	    Build()
func NewCatalogBuilder(version string) *CatalogBuilder {
	return &CatalogBuilder{version: version}
}

// Role starts defining a new role.
func (b *CatalogBuilder) Role(id string) *RoleDefinition {
	def := &RoleDefinition{builder: b, id: id, name: id}
	b.roles = append(b.roles, def)
	return def
}

// Name sets the display name. Defaults to the ID.
func (d *RoleDefinition) Name(name string) *RoleDefinition {
	d.name = name
	return d
}

// Describe sets the human description.
func (d *RoleDefinition) Describe(description string) *RoleDefinition {
	d.description = description
	return d
}

// Type sets the role type.
func (d *RoleDefinition) Type(t RoleType) *RoleDefinition {
	d.roleType = t
	return d
}

// Tier sets the vendor tier.
func (d *RoleDefinition) Tier(t Tier) *RoleDefinition {
	d.tier = t
	return d
}

// Grants adds concrete permissions.
func (d *RoleDefinition) Grants(perms ...Permission) *RoleDefinition {
	d.perms = append(d.perms, perms...)
	return d
}

// GrantPatterns adds permissions by pattern: "*", "resource:*", "*:action"
// or an exact token. Patterns are expanded when the catalog is built.
func (d *RoleDefinition) GrantPatterns(patterns ...string) *RoleDefinition {
	d.patterns = append(d.patterns, patterns...)
	return d
}

// Role continues defining roles on the builder (fluent API).
func (d *RoleDefinition) Role(id string) *RoleDefinition {
	return d.builder.Role(id)
}

// Build validates every definition and returns the catalog. All problems are
// reported together, each wrapping ErrConfiguration.
func (d *RoleDefinition) Build() (*Catalog, error) {
	return d.builder.Build()
}

// MustBuild is like Build but panics on an invalid catalog.
func (d *RoleDefinition) MustBuild() *Catalog {
	return d.builder.MustBuild()
}

// Build validates every definition and returns the catalog.
func (b *CatalogBuilder) Build() (*Catalog, error) {
	var errs []error
	if b.version == "" {
		errs = append(errs, NewError(ErrConfiguration, "catalog version is required"))
	}
	if len(b.roles) == 0 {
		errs = append(errs, NewError(ErrConfiguration, "catalog defines no roles"))
	}

	c := &Catalog{
		version: b.version,
		roles:   make([]Role, 0, len(b.roles)),
		byID:    make(map[string]int, len(b.roles)),
	}
	for _, def := range b.roles {
		role, err := def.resolve()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byID[role.ID]; dup {
			errs = append(errs, NewError(ErrConfiguration, fmt.Sprintf("role %q defined twice", role.ID)))
			continue
		}
		c.byID[role.ID] = len(c.roles)
		c.roles = append(c.roles, role)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// MustBuild is like Build but panics on an invalid catalog.
func (b *CatalogBuilder) MustBuild() *Catalog {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

func (d *RoleDefinition) resolve() (Role, error) {
	fail := func(format string, args ...any) (Role, error) {
		return Role{}, NewError(ErrConfiguration, fmt.Sprintf("role %q: ", d.id)+fmt.Sprintf(format, args...))
	}

	if d.id == "" {
		return fail("ID is required")
	}
	if !d.roleType.Valid() {
		return fail("unknown role type %q", d.roleType)
	}
	if !d.tier.Valid() {
		return fail("unknown tier %q", d.tier)
	}

	perms := make([]Permission, 0, len(d.perms))
	for _, p := range d.perms {
		if !p.Valid() {
			return fail("references unknown permission %s", p)
		}
		perms = appendUnique(perms, p)
	}
	for _, pattern := range d.patterns {
		expanded, err := ExpandPattern(pattern)
		if err != nil {
			return fail("%v", err)
		}
		for _, p := range expanded {
			perms = appendUnique(perms, p)
		}
	}
	if len(perms) == 0 {
		return fail("grants no permissions")
	}

	return Role{
		ID:          d.id,
		Name:        d.name,
		Description: d.description,
		Permissions: perms,
		Tier:        d.tier,
		Type:        d.roleType,
		System:      true,
	}, nil
}

func appendUnique(perms []Permission, p Permission) []Permission {
	if slices.Contains(perms, p) {
		return perms
	}
	return append(perms, p)
}

// Version returns the catalog version label.
func (c *Catalog) Version() string {
	return c.version
}

// Roles returns copies of all system roles in definition order.
func (c *Catalog) Roles() []Role {
	out := make([]Role, len(c.roles))
	for i, r := range c.roles {
		out[i] = r.clone()
	}
	return out
}

// Role returns a copy of the system role with the given ID.
func (c *Catalog) Role(id string) (Role, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Role{}, false
	}
	return c.roles[i].clone(), true
}

// MustRole returns the system role with the given ID or panics.
func (c *Catalog) MustRole(id string) Role {
	r, ok := c.Role(id)
	if !ok {
		panic(NewError(ErrInvalidRole, fmt.Sprintf("role %q not in catalog %s", id, c.version)))
	}
	return r
}

// IsSystemRole reports whether id names a catalog role.
func (c *Catalog) IsSystemRole(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// System role IDs defined by DefaultCatalog.
const (
	RolePlatformAdmin        = "platform_admin"
	RoleOrganizationOwner    = "organization_owner"
	RoleOrganizationAdmin    = "organization_admin"
	RoleTeamManager          = "team_manager"
	RoleVerificationReviewer = "verification_reviewer"
	RoleBuyer                = "buyer"
	RoleVendorBasic          = "vendor_basic"
	RoleVendorVerified       = "vendor_verified"
	RoleVendorPremium        = "vendor_premium"
	RoleVendorEnterprise     = "vendor_enterprise"
)

// DefaultCatalogVersion is the version label of DefaultCatalog.
const DefaultCatalogVersion = "marketplace-2024.1"

// DefaultCatalog returns the built-in marketplace roles.
func DefaultCatalog() *Catalog {
	return NewCatalogBuilder(DefaultCatalogVersion).
		Role(RolePlatformAdmin).Name("Platform Administrator").Type(RoleTypeAdmin).
		Describe("Operates the marketplace across every organization").
		GrantPatterns("*").
		Role(RoleOrganizationOwner).Name("Organization Owner").Type(RoleTypeAdmin).
		Describe("Full control over one organization").
		GrantPatterns("service:*", "booking:*", "project:*", "user:*", "team:*",
			"organization:*", "role:*", "analytics:view", "billing:*", "verification:view").
		Role(RoleOrganizationAdmin).Name("Organization Administrator").Type(RoleTypeAdmin).
		Describe("Manages members, projects and services of an organization").
		GrantPatterns("service:*", "booking:*", "project:*", "user:*", "team:*",
			"organization:view", "role:view", "analytics:view", "billing:view").
		Role(RoleTeamManager).Name("Team Manager").Type(RoleTypeAdmin).
		Describe("Manages a team and its projects").
		GrantPatterns("team:*", "user:view", "project:view", "project:edit", "booking:view").
		Role(RoleVerificationReviewer).Name("Verification Reviewer").Type(RoleTypeAdmin).
		Describe("Reviews vendor verification submissions").
		GrantPatterns("verification:*", "user:view").
		Role(RoleBuyer).Name("Buyer").Type(RoleTypeBuyer).
		Describe("Books services and runs projects").
		GrantPatterns("service:view", "booking:view", "booking:create", "booking:cancel",
			"project:view", "project:create", "project:edit").
		Role(RoleVendorBasic).Name("Vendor").Type(RoleTypeVendor).Tier(TierBasic).
		Describe("Lists services and fulfils bookings").
		GrantPatterns("service:view", "service:create", "service:edit", "booking:view",
			"booking:manage", "project:view").
		Role(RoleVendorVerified).Name("Verified Vendor").Type(RoleTypeVendor).Tier(TierVerified).
		Describe("Vendor whose identity has been verified").
		GrantPatterns("service:*", "booking:view", "booking:manage", "project:view", "analytics:view").
		Role(RoleVendorPremium).Name("Premium Vendor").Type(RoleTypeVendor).Tier(TierPremium).
		Describe("Vendor with premium listing features").
		GrantPatterns("service:*", "booking:view", "booking:manage", "project:view",
			"analytics:view", "team:view").
		Role(RoleVendorEnterprise).Name("Enterprise Vendor").Type(RoleTypeVendor).Tier(TierEnterprise).
		Describe("Vendor operating as an agency with its own team").
		GrantPatterns("service:*", "booking:view", "booking:manage", "project:view",
			"analytics:view", "team:*", "user:view", "user:invite").
		MustBuild()
}
