package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// DATA RETRIEVAL
// ============================================================================

// GetUserAssignments returns a user's role assignments, oldest first.
func (s *Service) GetUserAssignments(ctx context.Context, userID string) ([]RoleAssignment, error) {
	var assignments []RoleAssignment
	err := dbkit.WithErr1(s.db.NewSelect().Model(&assignments).
		Where("user_id = ?", userID).
		Order("created_at ASC", "id ASC").
		Scan(ctx), "GetUserAssignments").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return assignments, nil
}

// GetOrganizationMembers returns the IDs of users that belong to an organization.
func (s *Service) GetOrganizationMembers(ctx context.Context, organizationID string) ([]string, error) {
	var ids []string
	err := dbkit.WithErr1(s.db.NewSelect().Model((*UserRecord)(nil)).
		Column("id").
		Where("organization_id = ?", organizationID).
		Order("id ASC").
		Scan(ctx, &ids), "GetOrganizationMembers").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return ids, nil
}

// GetUsersWithRole returns the IDs of users holding roleID, optionally
// restricted to one organization.
func (s *Service) GetUsersWithRole(ctx context.Context, roleID, organizationID string) ([]string, error) {
	var ids []string
	q := s.db.NewSelect().Model((*RoleAssignment)(nil)).
		Column("user_id").
		Where("role_id = ?", roleID)
	if organizationID != "" {
		q = q.Where("organization_id = ?", organizationID)
	}
	err := dbkit.WithErr1(q.Order("user_id ASC").Scan(ctx, &ids), "GetUsersWithRole").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	return ids, nil
}

// GetChecker loads a user and returns a Checker over the snapshot.
// This can be stored in context for efficient permission checking in handlers.
func (s *Service) GetChecker(ctx context.Context, userID string) (*Checker, error) {
	p, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newChecker(p), nil
}

// GetCheckerFromContext reloads the principal stored in ctx.
func (s *Service) GetCheckerFromContext(ctx context.Context) (*Checker, error) {
	p := PrincipalFromContext(ctx)
	if p == nil || p.ID == "" {
		return nil, NewError(ErrUnauthenticated, "no principal in context")
	}
	return s.GetChecker(ctx, p.ID)
}
