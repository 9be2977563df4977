package accesskit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogBuilder tests the fluent role definition API
func TestCatalogBuilder(t *testing.T) {
	c, err := NewCatalogBuilder("v1").
		Role("buyer").Name("Buyer").Type(RoleTypeBuyer).
		Grants(PermServiceView, PermBookingCreate, PermServiceView).
		Role("vendor_pro").Type(RoleTypeVendor).Tier(TierPremium).
		GrantPatterns("service:*", "booking:view").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "v1", c.Version())
	require.Len(t, c.Roles(), 2)

	buyer, ok := c.Role("buyer")
	require.True(t, ok)
	assert.Equal(t, "Buyer", buyer.Name)
	assert.True(t, buyer.System)
	assert.False(t, buyer.IsCustom())
	assert.Equal(t, []Permission{PermServiceView, PermBookingCreate}, buyer.Permissions)

	vendor := c.MustRole("vendor_pro")
	assert.Equal(t, "vendor_pro", vendor.Name)
	assert.Equal(t, TierPremium, vendor.Tier)
	assert.ElementsMatch(t, []Permission{
		PermServiceView, PermServiceCreate, PermServiceEdit, PermServiceDelete, PermBookingView,
	}, vendor.Permissions)

	assert.True(t, c.IsSystemRole("buyer"))
	assert.False(t, c.IsSystemRole("admin"))
	assert.Panics(t, func() { c.MustRole("admin") })
}

// TestCatalogBuilderErrors tests that every definition problem is a configuration error
func TestCatalogBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Catalog, error)
	}{
		{"missing version", func() (*Catalog, error) {
			return NewCatalogBuilder("").Role("a").Type(RoleTypeBuyer).Grants(PermServiceView).Build()
		}},
		{"no roles", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Build()
		}},
		{"unknown type", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Role("a").Type("guest").Grants(PermServiceView).Build()
		}},
		{"unknown tier", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Role("a").Type(RoleTypeVendor).Tier("gold").Grants(PermServiceView).Build()
		}},
		{"unknown permission", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Role("a").Type(RoleTypeBuyer).Grants(Permission(99)).Build()
		}},
		{"unknown pattern", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Role("a").Type(RoleTypeBuyer).GrantPatterns("widget:*").Build()
		}},
		{"no permissions", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Role("a").Type(RoleTypeBuyer).Build()
		}},
		{"duplicate role", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").
				Role("a").Type(RoleTypeBuyer).Grants(PermServiceView).
				Role("a").Type(RoleTypeBuyer).Grants(PermServiceView).
				Build()
		}},
		{"empty ID", func() (*Catalog, error) {
			return NewCatalogBuilder("v1").Role("").Type(RoleTypeBuyer).Grants(PermServiceView).Build()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.build()
			assert.Nil(t, c)
			assert.True(t, IsConfiguration(err), "got %v", err)
		})
	}

	assert.Panics(t, func() { NewCatalogBuilder("v1").MustBuild() })
}

// TestCatalogRolesAreCopies tests that callers cannot mutate the catalog
func TestCatalogRolesAreCopies(t *testing.T) {
	c := DefaultCatalog()
	r := c.MustRole(RoleBuyer)
	r.Permissions[0] = PermPlatformAdmin

	roles := c.Roles()
	roles[0].Permissions = nil

	assert.False(t, c.MustRole(RoleBuyer).Grants(PermPlatformAdmin))
	assert.NotEmpty(t, c.Roles()[0].Permissions)
}

// TestDefaultCatalog tests the built-in marketplace roles
func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, DefaultCatalogVersion, c.Version())

	admin := c.MustRole(RolePlatformAdmin)
	assert.ElementsMatch(t, AllPermissions(), admin.Permissions)

	for _, id := range []string{RoleOrganizationOwner, RoleOrganizationAdmin, RoleTeamManager,
		RoleVerificationReviewer, RoleBuyer, RoleVendorBasic, RoleVendorVerified, RoleVendorPremium, RoleVendorEnterprise} {
		r := c.MustRole(id)
		assert.False(t, r.Grants(PermPlatformAdmin), "%s must not grant platform:admin", id)
		assert.True(t, r.System)
	}

	tiers := map[string]Tier{
		RoleVendorBasic:      TierBasic,
		RoleVendorVerified:   TierVerified,
		RoleVendorPremium:    TierPremium,
		RoleVendorEnterprise: TierEnterprise,
	}
	for id, tier := range tiers {
		r := c.MustRole(id)
		assert.Equal(t, RoleTypeVendor, r.Type)
		assert.Equal(t, tier, r.Tier)
	}

	assert.True(t, c.MustRole(RoleOrganizationAdmin).Grants(PermUserManage))
	assert.False(t, c.MustRole(RoleBuyer).Grants(PermServiceDelete))
}

const testCatalogYAML = `
version: test-1
roles:
  - id: buyer
    name: Buyer
    type: buyer
    permissions: ["service:view", "booking:*"]
  - id: vendor_enterprise
    type: vendor
    tier: enterprise
    description: Agency vendor
    permissions: ["service:*", "*:view"]
`

// TestParseCatalog tests loading a catalog from YAML
func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	assert.Equal(t, "test-1", c.Version())

	buyer := c.MustRole("buyer")
	assert.Equal(t, "Buyer", buyer.Name)
	assert.ElementsMatch(t, []Permission{
		PermServiceView, PermBookingView, PermBookingCreate, PermBookingManage, PermBookingCancel,
	}, buyer.Permissions)

	vendor := c.MustRole("vendor_enterprise")
	assert.Equal(t, "vendor_enterprise", vendor.Name)
	assert.Equal(t, "Agency vendor", vendor.Description)
	assert.Equal(t, TierEnterprise, vendor.Tier)
	assert.True(t, vendor.Grants(PermAnalyticsView))
}

// TestParseCatalogErrors tests that malformed catalogs fail fast
func TestParseCatalogErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":      "version: v\nroles:\n  - id: a\n    type: buyer\n    perms: [\"service:view\"]\n",
		"unknown type":       "version: v\nroles:\n  - id: a\n    type: guest\n    permissions: [\"service:view\"]\n",
		"unknown tier":       "version: v\nroles:\n  - id: a\n    type: vendor\n    tier: gold\n    permissions: [\"service:view\"]\n",
		"unknown permission": "version: v\nroles:\n  - id: a\n    type: buyer\n    permissions: [\"service:steal\"]\n",
		"missing version":    "roles:\n  - id: a\n    type: buyer\n    permissions: [\"service:view\"]\n",
		"not yaml":           "{{{",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.True(t, IsConfiguration(err), "got %v", err)
		})
	}
}

// TestLoadCatalogFile tests reading a catalog from disk
func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o600))

	c, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.True(t, c.IsSystemRole("buyer"))

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, IsConfiguration(err))
}
