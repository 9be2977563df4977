package accesskit

// Fixtures shared by the pure tests. They build principals directly so the
// evaluator can be exercised without a store.

func testRole(id string, perms ...Permission) Role {
	return Role{ID: id, Name: id, Type: RoleTypeBuyer, Permissions: perms, System: true}
}

func vendorRole(id string, tier Tier) Role {
	return Role{ID: id, Name: id, Type: RoleTypeVendor, Tier: tier, Permissions: []Permission{PermServiceView}, System: true}
}

func testPrincipal(id, org string, roles ...Role) *Principal {
	return &Principal{ID: id, Email: id + "@example.com", OrganizationID: org, Roles: roles, Active: true}
}

func inactive(p *Principal) *Principal {
	p.Active = false
	return p
}

func platformAdmin(id, org string) *Principal {
	return testPrincipal(id, org, DefaultCatalog().MustRole(RolePlatformAdmin))
}

func orgAdmin(id, org string) *Principal {
	return testPrincipal(id, org, DefaultCatalog().MustRole(RoleOrganizationAdmin))
}
