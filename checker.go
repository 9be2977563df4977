package accesskit

// Checker answers permission questions for one principal snapshot.
// It is created once per request, typically by Middleware.Authenticate, and
// stored in context for use in handlers. The permission union is computed
// once; the snapshot never changes afterwards.
type Checker struct {
	principal *Principal
	perms     PermissionSet
	eligible  bool
}

// NewChecker creates a Checker over a private copy of p.
func NewChecker(p *Principal) *Checker {
	return newChecker(p.Clone())
}

func newChecker(p *Principal) *Checker {
	c := &Checker{principal: p}
	if p != nil && p.Active && len(p.Roles) > 0 {
		c.eligible = true
		c.perms = p.Permissions()
	}
	return c
}

// Principal returns a copy of the snapshot the checker was built from.
func (c *Checker) Principal() *Principal {
	return c.principal.Clone()
}

// UserID returns the principal ID this checker is for.
func (c *Checker) UserID() string {
	if c.principal == nil {
		return ""
	}
	return c.principal.ID
}

// OrganizationID returns the principal's organization.
func (c *Checker) OrganizationID() string {
	if c.principal == nil {
		return ""
	}
	return c.principal.OrganizationID
}

// Permissions returns the effective permissions. Inactive principals have none.
func (c *Checker) Permissions() []Permission {
	if !c.eligible {
		return nil
	}
	return c.perms.Slice()
}

// HasPermission checks if the principal holds perm.
//
// Example:
//
//	if checker.HasPermission(accesskit.PermServiceCreate) {
//	    // show the "new service" button
//	}
func (c *Checker) HasPermission(perm Permission) bool {
	return c.eligible && c.perms.Has(perm)
}

// HasPermissionOn checks perm against a resource owned by some organization.
func (c *Checker) HasPermissionOn(perm Permission, res ResourceRef) bool {
	if !c.HasPermission(perm) || res.ID == "" {
		return false
	}
	return c.sameOrganization(res.OrganizationID) || c.platformAdmin()
}

// HasAnyPermission checks if the principal holds any of perms.
func (c *Checker) HasAnyPermission(perms []Permission) bool {
	for _, p := range perms {
		if c.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the principal holds every one of perms.
func (c *Checker) HasAllPermissions(perms []Permission) bool {
	for _, p := range perms {
		if !c.HasPermission(p) {
			return false
		}
	}
	return true
}

// CanManageUser checks if the principal may manage target.
func (c *Checker) CanManageUser(target *Principal) bool {
	actor := c.principal
	if actor == nil || target == nil || !actor.Active {
		return false
	}
	if actor.ID != "" && actor.ID == target.ID {
		return true
	}
	if c.platformAdmin() {
		return true
	}
	if c.HasPermission(PermUserManage) || c.HasPermission(PermTeamManage) {
		return c.sameOrganization(target.OrganizationID)
	}
	return false
}

// CanAccessProject checks view access to a project.
func (c *Checker) CanAccessProject(projectID, projectOrganizationID string) bool {
	return c.projectCheck(PermProjectView, projectID, projectOrganizationID)
}

// CanModifyProject checks edit access to a project.
func (c *Checker) CanModifyProject(projectID, projectOrganizationID string) bool {
	return c.projectCheck(PermProjectEdit, projectID, projectOrganizationID)
}

func (c *Checker) projectCheck(perm Permission, projectID, projectOrganizationID string) bool {
	if !c.eligible || projectID == "" {
		return false
	}
	if c.platformAdmin() {
		return true
	}
	return c.HasPermission(perm) && c.sameOrganization(projectOrganizationID)
}

// MaxFreelancerTier returns the highest vendor tier of the principal.
func (c *Checker) MaxFreelancerTier() (Tier, bool) {
	return MaxFreelancerTier(c.principal)
}

// IsOwner checks if the principal owns res.
func (c *Checker) IsOwner(res ResourceRef) bool {
	return IsOwner(c.principal, res)
}

// IsPlatformAdmin reports whether the principal holds PermPlatformAdmin.
func (c *Checker) IsPlatformAdmin() bool {
	return c.platformAdmin()
}

func (c *Checker) platformAdmin() bool {
	return c.HasPermission(PermPlatformAdmin)
}

func (c *Checker) sameOrganization(organizationID string) bool {
	return c.principal != nil && c.principal.OrganizationID != "" &&
		c.principal.OrganizationID == organizationID
}
