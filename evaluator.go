package accesskit

// The evaluator functions are pure: they read the principal passed in and
// never fail. Every ambiguous or missing input is a deny.

// HasPermission reports whether an active principal holds perm through any
// of its roles. A principal without an organization can still pass.
func HasPermission(p *Principal, perm Permission) bool {
	return newChecker(p).HasPermission(perm)
}

// HasPermissionOn is the resource-scoped form of HasPermission. In addition
// to holding perm, the principal's organization must own the resource,
// unless the principal holds PermPlatformAdmin.
func HasPermissionOn(p *Principal, perm Permission, res ResourceRef) bool {
	return newChecker(p).HasPermissionOn(perm, res)
}

// HasAnyPermission reports whether at least one of perms is held.
// An empty list is always false.
func HasAnyPermission(p *Principal, perms []Permission) bool {
	return newChecker(p).HasAnyPermission(perms)
}

// HasAllPermissions reports whether every one of perms is held.
// An empty list is always true.
func HasAllPermissions(p *Principal, perms []Permission) bool {
	return newChecker(p).HasAllPermissions(perms)
}

// CanManageUser reports whether actor may manage target: always for
// themselves, anyone for platform admins, and members of the same
// organization for holders of user:manage or team:manage.
func CanManageUser(actor, target *Principal) bool {
	return newChecker(actor).CanManageUser(target)
}

// CanAccessProject reports whether p may view the project.
func CanAccessProject(p *Principal, projectID, projectOrganizationID string) bool {
	return newChecker(p).CanAccessProject(projectID, projectOrganizationID)
}

// CanModifyProject reports whether p may edit the project.
func CanModifyProject(p *Principal, projectID, projectOrganizationID string) bool {
	return newChecker(p).CanModifyProject(projectID, projectOrganizationID)
}

// MaxFreelancerTier returns the highest tier among p's vendor roles. The
// boolean is false when p holds no vendor role. Tiers on other role types
// are ignored.
func MaxFreelancerTier(p *Principal) (Tier, bool) {
	if p == nil {
		return "", false
	}
	var (
		best  Tier
		found bool
	)
	for _, r := range p.Roles {
		if r.Type != RoleTypeVendor {
			continue
		}
		if !found || r.Tier.Outranks(best) {
			best = r.Tier
			found = true
		}
	}
	return best, found
}

// IsOwner reports whether p is the recorded owner of res. Permissions play
// no part in this check.
func IsOwner(p *Principal, res ResourceRef) bool {
	return p != nil && p.ID != "" && p.ID == res.OwnerID
}

// Explanation reasons.
const (
	ReasonNoPrincipal          = "no principal"
	ReasonInactive             = "principal is inactive"
	ReasonNoRoles              = "principal has no roles"
	ReasonMissingPermission    = "permission not granted"
	ReasonMissingResource      = "resource reference is incomplete"
	ReasonOrganizationMismatch = "resource belongs to another organization"
	ReasonNotOwner             = "principal is not the resource owner"
	ReasonGranted              = "granted by role"
	ReasonPlatformAdmin        = "granted by role with platform admin bypass"
)

// Explanation describes how a single permission decision was reached.
type Explanation struct {
	Allowed           bool
	Reason            string
	MatchedRoles      []string
	CrossOrganization bool
}

// Explain evaluates perm for p like HasPermission, or HasPermissionOn when
// res is non-nil, and reports why.
func Explain(p *Principal, perm Permission, res *ResourceRef) Explanation {
	c := newChecker(p)
	switch {
	case p == nil:
		return Explanation{Reason: ReasonNoPrincipal}
	case !p.Active:
		return Explanation{Reason: ReasonInactive}
	case len(p.Roles) == 0:
		return Explanation{Reason: ReasonNoRoles}
	}

	var matched []string
	for _, r := range p.Roles {
		if r.Grants(perm) {
			matched = append(matched, r.ID)
		}
	}
	if len(matched) == 0 {
		return Explanation{Reason: ReasonMissingPermission}
	}
	if res == nil {
		return Explanation{Allowed: true, Reason: ReasonGranted, MatchedRoles: matched}
	}

	cross := p.OrganizationID == "" || p.OrganizationID != res.OrganizationID
	switch {
	case res.ID == "":
		return Explanation{Reason: ReasonMissingResource, MatchedRoles: matched}
	case !cross:
		return Explanation{Allowed: true, Reason: ReasonGranted, MatchedRoles: matched}
	case c.platformAdmin():
		return Explanation{Allowed: true, Reason: ReasonPlatformAdmin, MatchedRoles: matched, CrossOrganization: true}
	default:
		return Explanation{Reason: ReasonOrganizationMismatch, MatchedRoles: matched, CrossOrganization: true}
	}
}
