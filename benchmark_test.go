package accesskit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func benchPrincipal() *Principal {
	c := DefaultCatalog()
	return testPrincipal("bench", "org-1",
		c.MustRole(RoleBuyer),
		c.MustRole(RoleVendorEnterprise),
		c.MustRole(RoleTeamManager),
	)
}

func BenchmarkHasPermission(b *testing.B) {
	p := benchPrincipal()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HasPermission(p, PermTeamManage)
	}
}

func BenchmarkCheckerHasPermission(b *testing.B) {
	c := NewChecker(benchPrincipal())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.HasPermission(PermTeamManage)
	}
}

func BenchmarkHasAllPermissions(b *testing.B) {
	c := NewChecker(benchPrincipal())
	perms := []Permission{PermServiceView, PermServiceEdit, PermBookingManage, PermTeamManage}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.HasAllPermissions(perms)
	}
}

func BenchmarkEvaluateResource(b *testing.B) {
	p := benchPrincipal()
	req := RequireAllOf(PermServiceEdit).On(Resource(ResourceService, "svc-1", "org-1").OwnedBy("bench")).OwnedOnly()
	state := Resolved(p)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(state, req)
	}
}

func BenchmarkGuardCheck(b *testing.B) {
	g := NewGuard(WithAuditor(FilterAuditor(AuditDenied, AuditorFunc(func(context.Context, DecisionRecord) error { return nil }))))
	state := Resolved(benchPrincipal())
	req := RequireAnyOf(PermAnalyticsView, PermBillingView)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Check(ctx, state, req)
	}
}

func BenchmarkExpandPattern(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ExpandPattern("*:view")
	}
}

func BenchmarkMiddleware(b *testing.B) {
	p := benchPrincipal()
	mw := NewMiddleware(ResolverFunc(func(context.Context, string) (*Principal, error) { return p, nil }), nil)
	h := mw.Authenticate()(mw.RequireAll(PermServiceView, PermBookingView)(http.HandlerFunc(okHandler)))
	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	req.Header.Set("Authorization", "Bearer bench")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
