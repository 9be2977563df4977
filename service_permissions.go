package accesskit

import "context"

// ============================================================================
// STORE-BACKED CHECKS
// ============================================================================

// The methods below load a fresh principal for every call. Request paths
// should resolve once and use the pure evaluator instead.

// Can reports whether a stored user holds perm. Lookup failures deny.
//
// Example:
//
//	if service.Can(ctx, userID, accesskit.PermBillingManage) {
//	    // user can manage billing
//	}
func (s *Service) Can(ctx context.Context, userID string, perm Permission) bool {
	p, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		s.logger.Debug().Err(err).Str("user_id", userID).Msg("principal load failed, denying")
		return false
	}
	return HasPermission(p, perm)
}

// CanOn reports whether a stored user holds perm on a registered resource.
// Unknown resources deny.
func (s *Service) CanOn(ctx context.Context, userID string, perm Permission, kind ResourceKind, resourceID string) bool {
	p, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		return false
	}
	res, err := s.LookupResource(ctx, kind, resourceID)
	if err != nil {
		return false
	}
	return HasPermissionOn(p, perm, res)
}

// ExplainAccess loads a user and, if resourceID is set, the resource, and
// explains the permission check. It backs support tooling.
func (s *Service) ExplainAccess(ctx context.Context, userID string, perm Permission, kind ResourceKind, resourceID string) (Explanation, error) {
	p, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		return Explanation{}, err
	}
	if resourceID == "" {
		return Explain(p, perm, nil), nil
	}
	res, err := s.LookupResource(ctx, kind, resourceID)
	if err != nil {
		return Explanation{}, err
	}
	return Explain(p, perm, &res), nil
}

// CheckRequirement loads a user and evaluates req without auditing.
func (s *Service) CheckRequirement(ctx context.Context, userID string, req Requirement) (Decision, error) {
	p, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return Evaluate(Resolved(nil), req), nil
		}
		return Decision{}, err
	}
	return Evaluate(Resolved(p), req), nil
}
