package accesskit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPrincipal(perms ...Permission) *Principal {
	return &Principal{
		ID:             "user-1",
		OrganizationID: "org-123",
		Roles:          []Role{{ID: "marketplace_member", Type: RoleTypeBuyer, Permissions: perms, System: true}},
		Active:         true,
	}
}

// TestScenarioPermissionUnion tests a plain permission lookup
func TestScenarioPermissionUnion(t *testing.T) {
	p := scenarioPrincipal(PermServiceView, PermBookingCreate)

	assert.True(t, HasPermission(p, PermServiceView))
	assert.False(t, HasPermission(p, PermServiceDelete))
}

// TestScenarioCrossOrganization tests that holding a permission is not enough on another tenant's resource
func TestScenarioCrossOrganization(t *testing.T) {
	p := scenarioPrincipal(PermServiceView, PermBookingCreate, PermServiceEdit)
	res := Resource(ResourceService, "svc-9", "org-456")

	assert.True(t, HasPermission(p, PermServiceEdit))
	assert.False(t, HasPermissionOn(p, PermServiceEdit, res))

	d := Evaluate(Resolved(p), RequireAllOf(PermServiceEdit).On(res))
	assert.Equal(t, OutcomeDenied, d.Outcome)
	assert.Equal(t, ReasonOrganizationMismatch, d.Reason)
}

// TestScenarioUnauthenticated tests that anonymous requests never reach evaluation
func TestScenarioUnauthenticated(t *testing.T) {
	resolverCalls := 0
	resolver := ResolverFunc(func(context.Context, string) (*Principal, error) {
		resolverCalls++
		return nil, NewError(ErrUnauthenticated, "unexpected")
	})
	var audited []DecisionRecord
	guard := NewGuard(WithAuditor(AuditorFunc(func(_ context.Context, rec DecisionRecord) error {
		audited = append(audited, rec)
		return nil
	})))
	mw := NewMiddleware(resolver, guard, WithOwnershipLookup(OwnershipLookupFunc(
		func(context.Context, ResourceKind, string) (ResourceRef, error) {
			t.Fatal("ownership must not be looked up for anonymous requests")
			return ResourceRef{}, nil
		})))

	reached := false
	h := mw.Authenticate()(mw.RequirePermission(PermServiceEdit, StaticResource(ResourceService, "svc-1"))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true })))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/services/svc-1", nil))

	assert.False(t, reached)
	assert.Zero(t, resolverCalls)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, KindAuthentication, body.Error.Type)
	assert.Equal(t, http.StatusUnauthorized, body.Error.StatusCode)

	require.Len(t, audited, 1)
	assert.Equal(t, OutcomeUnauthenticated, audited[0].Outcome)
	assert.Empty(t, audited[0].PrincipalID)
}

// TestScenarioVendorWorkflow walks a vendor through the guard and UI gates
func TestScenarioVendorWorkflow(t *testing.T) {
	catalog := DefaultCatalog()
	vendor := testPrincipal("vendor-1", "org-1", catalog.MustRole(RoleVendorPremium))
	colleague := testPrincipal("vendor-2", "org-1", catalog.MustRole(RoleVendorPremium))
	listing := Resource(ResourceService, "svc-1", "org-1").OwnedBy(vendor.ID)

	tier, ok := MaxFreelancerTier(vendor)
	require.True(t, ok)
	assert.Equal(t, TierPremium, tier)

	edit := RequireAllOf(PermServiceEdit).On(listing)
	assert.True(t, Evaluate(Resolved(vendor), edit).Allowed())
	assert.True(t, Evaluate(Resolved(colleague), edit).Allowed(), "same organization may edit")
	assert.False(t, Evaluate(Resolved(colleague), edit.OwnedOnly()).Allowed(), "only the owner may edit owner-only fields")

	button := func(p *Principal) string {
		return Gate(Evaluate(Resolved(p), RequireAnyOf(PermAnalyticsView, PermBillingView)),
			func() string { return "analytics" },
			func() string { return "upgrade" })
	}
	assert.Equal(t, "analytics", button(vendor))
	assert.Equal(t, "upgrade", button(testPrincipal("basic", "org-1", catalog.MustRole(RoleVendorBasic))))
}
