package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// UserInput creates or updates a user's identity and membership.
type UserInput struct {
	ID             string `validate:"required,max=128"`
	Email          string `validate:"required,email"`
	DisplayName    string `validate:"max=128"`
	OrganizationID string `validate:"max=128"`
}

// LoadPrincipal implements PrincipalLoader. It assembles an immutable
// principal snapshot from the user, its assignments and its organization.
// A user whose organization is missing or not active is loaded as inactive.
// Only assignments made in the user's current organization count.
func (s *Service) LoadPrincipal(ctx context.Context, userID string) (*Principal, error) {
	var user UserRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&user).Where("id = ?", userID).Limit(1).Scan(ctx), "LoadPrincipalUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
		}
		return nil, err
	}

	var assignments []RoleAssignment
	q := s.db.NewSelect().Model(&assignments).Where("user_id = ?", userID)
	if user.OrganizationID == "" {
		q = q.Where("organization_id IS NULL")
	} else {
		q = q.Where("organization_id = ?", user.OrganizationID)
	}
	err = dbkit.WithErr1(q.Order("created_at ASC", "id ASC").Scan(ctx), "LoadPrincipalAssignments").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}

	roles, err := s.rolesForAssignments(ctx, user, assignments)
	if err != nil {
		return nil, err
	}

	active := user.Active
	if user.OrganizationID != "" {
		org, err := s.GetOrganization(ctx, user.OrganizationID)
		switch {
		case IsNotFound(err):
			s.logger.Warn().Str("user_id", userID).Str("organization_id", user.OrganizationID).
				Msg("principal references a missing organization")
			active = false
		case err != nil:
			return nil, err
		case !org.IsActive():
			active = false
		}
	}

	return &Principal{
		ID:             user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		OrganizationID: user.OrganizationID,
		Roles:          roles,
		Active:         active,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}, nil
}

func (s *Service) rolesForAssignments(ctx context.Context, user UserRecord, assignments []RoleAssignment) ([]Role, error) {
	var customIDs []string
	for _, a := range assignments {
		if !s.catalog.IsSystemRole(a.RoleID) {
			customIDs = append(customIDs, a.RoleID)
		}
	}

	custom := make(map[string]Role, len(customIDs))
	if len(customIDs) > 0 {
		var recs []RoleRecord
		err := dbkit.WithErr1(s.db.NewSelect().Model(&recs).Where("id IN (?)", bun.In(customIDs)).Scan(ctx), "LoadPrincipalRoles").Err()
		if err != nil && !dbkit.IsNotFound(err) {
			return nil, err
		}
		for i := range recs {
			role, err := recs[i].toRole()
			if err != nil {
				return nil, err
			}
			if role.OrganizationID != user.OrganizationID {
				s.logger.Warn().Str("user_id", user.ID).Str("role_id", role.ID).
					Msg("ignoring custom role from another organization")
				continue
			}
			custom[role.ID] = role
		}
	}

	roles := make([]Role, 0, len(assignments))
	for _, a := range assignments {
		if r, ok := s.catalog.Role(a.RoleID); ok {
			roles = append(roles, r)
			continue
		}
		if r, ok := custom[a.RoleID]; ok {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// LoadPrincipalWithRetry loads a principal, retrying transient database errors.
func (s *Service) LoadPrincipalWithRetry(ctx context.Context, userID string) (*Principal, error) {
	var p *Principal
	start := time.Now()
	err := s.retry.do(ctx, func() error {
		var err error
		p, err = s.LoadPrincipal(ctx, userID)
		return err
	})
	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return p, err
}

// UpsertUser creates a user or updates its identity and membership.
// New users start active. Moving a user to another organization drops the
// role assignments granted in the previous one.
func (s *Service) UpsertUser(ctx context.Context, input UserInput) error {
	if err := s.validateInput(input); err != nil {
		return err
	}
	if input.OrganizationID != "" {
		if _, err := s.GetOrganization(ctx, input.OrganizationID); err != nil {
			return err
		}
	}

	now := time.Now()
	rec := &UserRecord{
		ID:             input.ID,
		Email:          input.Email,
		DisplayName:    input.DisplayName,
		OrganizationID: input.OrganizationID,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result, err := s.db.NewInsert().Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("display_name = EXCLUDED.display_name").
		Set("organization_id = EXCLUDED.organization_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpsertUser").Err(); err != nil {
		return err
	}

	var organizationID any
	if input.OrganizationID != "" {
		organizationID = input.OrganizationID
	}
	result, err = s.db.NewDelete().Model((*RoleAssignment)(nil)).
		Where("user_id = ?", input.ID).
		Where("organization_id IS DISTINCT FROM ?", organizationID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpsertUserAssignments").Err(); err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		s.logger.Info().Str("user_id", input.ID).Str("organization_id", input.OrganizationID).
			Int64("dropped", n).Msg("dropped role assignments from previous organization")
	}
	return nil
}

// SetUserActive activates or deactivates a user. The actor must be able to
// manage the target.
func (s *Service) SetUserActive(ctx context.Context, actor *Principal, userID string, active bool) error {
	target, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		return err
	}
	if !CanManageUser(actor, target) {
		return NewError(ErrUnauthorized, "cannot manage this user").
			WithUser(userID).
			WithActor(actorID(actor))
	}

	result, err := s.db.NewUpdate().Model((*UserRecord)(nil)).
		Set("active = ?", active).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return dbkit.WithErr(result, err, "SetUserActive").Err()
}

func actorID(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.ID
}
