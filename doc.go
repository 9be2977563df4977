// Package accesskit is the authorization core of a multi-tenant services
// marketplace: it decides what an authenticated principal may do, in which
// organization, on which resource.
//
// # Core Concepts
//
// Permission: a closed enumeration of resource:action tokens such as
// "service:edit" or "billing:manage". Unknown tokens are rejected at the
// boundary; nothing is matched as a string at check time.
//
// Role: a named bundle of permissions. System roles come from a versioned
// Catalog and cannot be changed at runtime. Organizations may define custom
// roles, which never reach beyond their organization.
//
// Principal: an immutable snapshot of a user, its organization and its
// roles. Effective permissions are the union of all role grants.
//
// Organization: the tenant boundary. Resource checks require the principal
// and the resource to share an organization, unless the principal holds
// platform:admin.
//
// # Evaluation
//
// The evaluator is pure and total:
//
//	accesskit.HasPermission(p, accesskit.PermServiceEdit)
//	accesskit.HasPermissionOn(p, accesskit.PermProjectEdit, project)
//	accesskit.CanManageUser(actor, target)
//	tier, ok := accesskit.MaxFreelancerTier(p)
//
// Nil or inactive principals are denied; nothing panics.
//
// # Guard
//
// Evaluate turns a PrincipalState and a Requirement into a Decision with
// one of four outcomes: loading, unauthenticated, denied or allowed. Guard
// adds logging, metrics and decision auditing on top:
//
//	guard := accesskit.NewGuard(accesskit.WithAuditor(service), accesskit.WithMetrics(metrics))
//	d := guard.Check(ctx, accesskit.Resolved(p),
//	    accesskit.RequireAllOf(accesskit.PermServiceEdit).On(ref).OwnedOnly())
//
// # Middleware Usage
//
//	mw := accesskit.NewMiddleware(accesskit.NewTokenResolver(secret, issuer, service), guard,
//	    accesskit.WithOwnershipLookup(service))
//
//	router.Use(middleware.RequestID, mw.Authenticate(), mw.InjectAuditContext())
//	router.With(mw.RequirePermission(accesskit.PermProjectEdit,
//	    accesskit.ResourceFromParam(accesskit.ResourceProject, "projectID"))).
//	    Put("/projects/{projectID}", updateProject)
//
// Denials are written as {"error":{"type","message","statusCode"}} with
// 401 for missing authentication and 403 otherwise.
//
// # Store
//
// Service is a Postgres-backed reference store built on dbkit. It loads
// principals, administers organizations and roles, records resource
// ownership and keeps two audit trails: role changes and access decisions.
package accesskit
