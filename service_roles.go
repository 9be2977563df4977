package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// RoleInput describes a custom role.
type RoleInput struct {
	OrganizationID string       `validate:"required,max=128"`
	Name           string       `validate:"required,max=64"`
	Description    string       `validate:"max=256"`
	Type           RoleType     `validate:"required,oneof=buyer vendor admin"`
	Tier           Tier         `validate:"omitempty,oneof=basic verified premium enterprise custom"`
	Permissions    []Permission `validate:"required,min=1,dive,min=1"`
}

// CreateCustomRole defines a role for one organization. The actor needs
// role:manage in that organization and may only bundle permissions it holds
// itself. platform:admin can never be part of a custom role.
func (s *Service) CreateCustomRole(ctx context.Context, actor *Principal, input RoleInput) (*Role, error) {
	perms, err := s.checkRoleInput(actor, input)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetOrganization(ctx, input.OrganizationID); err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &RoleRecord{
		ID:             s.newID(),
		OrganizationID: input.OrganizationID,
		Name:           input.Name,
		Description:    input.Description,
		Type:           string(input.Type),
		Tier:           string(input.Tier),
		Permissions:    permissionStrings(perms),
		CreatedBy:      actorID(actor),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result, err := s.db.NewInsert().Model(rec).Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreateCustomRole").Err(); err != nil {
		return nil, err
	}

	role, err := rec.toRole()
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateCustomRole replaces a custom role's definition. System roles are
// immutable and the role cannot move to another organization.
func (s *Service) UpdateCustomRole(ctx context.Context, actor *Principal, roleID string, input RoleInput) (*Role, error) {
	if s.catalog.IsSystemRole(roleID) {
		return nil, NewError(ErrSystemRole, "role "+roleID+" is defined by the catalog")
	}
	perms, err := s.checkRoleInput(actor, input)
	if err != nil {
		return nil, err
	}
	rec, err := s.getCustomRoleRecord(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if rec.OrganizationID != input.OrganizationID {
		return nil, NewError(ErrInvalidRole, "custom roles cannot change organization").
			WithOrganization(rec.OrganizationID)
	}

	rec.Name = input.Name
	rec.Description = input.Description
	rec.Type = string(input.Type)
	rec.Tier = string(input.Tier)
	rec.Permissions = permissionStrings(perms)
	rec.UpdatedAt = time.Now()

	result, err := s.db.NewUpdate().Model(rec).
		Column("name", "description", "type", "tier", "permissions", "updated_at").
		WherePK().
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateCustomRole").Err(); err != nil {
		return nil, err
	}

	role, err := rec.toRole()
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteCustomRole removes a custom role and every assignment of it.
func (s *Service) DeleteCustomRole(ctx context.Context, actor *Principal, roleID string) error {
	if s.catalog.IsSystemRole(roleID) {
		return NewError(ErrSystemRole, "role "+roleID+" is defined by the catalog")
	}
	rec, err := s.getCustomRoleRecord(ctx, roleID)
	if err != nil {
		return err
	}
	if !canAdministerOrganization(actor, PermRoleManage, rec.OrganizationID) {
		return NewError(ErrUnauthorized, "cannot manage roles of this organization").
			WithPermission(PermRoleManage).
			WithOrganization(rec.OrganizationID).
			WithActor(actorID(actor))
	}

	return s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		_, err := tx.db.NewDelete().Model((*RoleAssignment)(nil)).Where("role_id = ?", roleID).Exec(ctx)
		if err := dbkit.WithErr1(err, "DeleteRoleAssignments").Err(); err != nil {
			return err
		}
		result, err := tx.db.NewDelete().Model((*RoleRecord)(nil)).Where("id = ?", roleID).Exec(ctx)
		return dbkit.WithErr(result, err, "DeleteCustomRole").Err()
	})
}

func (s *Service) checkRoleInput(actor *Principal, input RoleInput) ([]Permission, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if !canAdministerOrganization(actor, PermRoleManage, input.OrganizationID) {
		return nil, NewError(ErrUnauthorized, "cannot manage roles of this organization").
			WithPermission(PermRoleManage).
			WithOrganization(input.OrganizationID).
			WithActor(actorID(actor))
	}

	perms := make([]Permission, 0, len(input.Permissions))
	for _, p := range input.Permissions {
		if !p.Valid() {
			return nil, NewError(ErrInvalidPermission, p.String())
		}
		if p == PermPlatformAdmin {
			return nil, NewError(ErrInvalidRole, "custom roles cannot grant platform:admin").
				WithPermission(p)
		}
		perms = appendUnique(perms, p)
	}
	if p, ok := exceedsActor(actor, perms); ok {
		return nil, NewError(ErrCannotAssign, "role would grant a permission the actor does not hold").
			WithPermission(p).
			WithActor(actorID(actor))
	}
	tiered := Role{Type: input.Type, Tier: input.Tier}
	if isVerifiedTier(tiered) && !newChecker(actor).IsPlatformAdmin() && !HasPermission(actor, PermVerificationReview) {
		return nil, NewError(ErrCannotAssign, "vendor tier requires verification review").
			WithPermission(PermVerificationReview).
			WithActor(actorID(actor))
	}
	return perms, nil
}

// ListRoles returns the catalog roles followed by the custom roles of an organization.
func (s *Service) ListRoles(ctx context.Context, organizationID string) ([]Role, error) {
	roles := s.catalog.Roles()
	if organizationID == "" {
		return roles, nil
	}

	var recs []RoleRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&recs).
		Where("organization_id = ?", organizationID).
		Order("name ASC").
		Scan(ctx), "ListRoles").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	for i := range recs {
		r, err := recs[i].toRole()
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// AssignRole grants a role to a user. The actor must be able to manage the
// target and may only grant permissions it holds, unless it is a platform
// admin. Nobody but a platform admin changes their own roles, and vendor
// tiers above basic need verification:review. Custom roles can only be
// granted inside their organization.
//
// Example:
//
//	ctx = accesskit.WithRequestID(ctx, reqID)
//	err := service.AssignRole(ctx, actor, "user_42", accesskit.RoleVendorVerified)
func (s *Service) AssignRole(ctx context.Context, actor *Principal, userID, roleID string) error {
	target, role, err := s.checkAssignment(ctx, actor, userID, roleID)
	if err != nil {
		return err
	}

	assignment := &RoleAssignment{
		UserID:         userID,
		RoleID:         roleID,
		OrganizationID: target.OrganizationID,
		CreatedAt:      time.Now(),
	}
	result, err := s.db.NewInsert().
		Model(assignment).
		On("CONFLICT (user_id, role_id) DO NOTHING").
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "AssignRole").Err(); err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return NewError(ErrRoleAlreadyAssigned, "user already has this role").
			WithUser(userID).
			WithActor(actorID(actor))
	}

	s.recordRoleChange(ctx, actor, AuditActionAssigned, target, role, append(target.RoleIDs(), roleID))
	return nil
}

// RevokeRole removes a role from a user under the same rules as AssignRole.
func (s *Service) RevokeRole(ctx context.Context, actor *Principal, userID, roleID string) error {
	target, role, err := s.checkAssignment(ctx, actor, userID, roleID)
	if err != nil {
		return err
	}

	result, err := s.db.NewDelete().Model((*RoleAssignment)(nil)).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RevokeRole").Err(); err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return NewError(ErrRoleNotAssigned, "user does not have this role").
			WithUser(userID).
			WithActor(actorID(actor))
	}

	remaining := make([]string, 0, len(target.Roles))
	for _, id := range target.RoleIDs() {
		if id != roleID {
			remaining = append(remaining, id)
		}
	}
	s.recordRoleChange(ctx, actor, AuditActionRevoked, target, role, remaining)
	return nil
}

func (s *Service) checkAssignment(ctx context.Context, actor *Principal, userID, roleID string) (*Principal, Role, error) {
	target, err := s.LoadPrincipal(ctx, userID)
	if err != nil {
		return nil, Role{}, err
	}
	role, err := s.resolveRole(ctx, roleID)
	if err != nil {
		return nil, Role{}, err
	}

	if err := checkGrant(actor, target, role); err != nil {
		return nil, Role{}, err
	}
	return target, role, nil
}

// checkGrant applies the assignment rules to a loaded target.
func checkGrant(actor, target *Principal, role Role) error {
	if !CanManageUser(actor, target) {
		return NewError(ErrCannotAssign, "cannot manage this user").
			WithUser(target.ID).
			WithActor(actorID(actor))
	}
	admin := newChecker(actor).IsPlatformAdmin()
	if !admin && actor.ID == target.ID {
		return NewError(ErrCannotAssign, "cannot change own roles").
			WithUser(target.ID).
			WithActor(actorID(actor))
	}
	if !admin && isVerifiedTier(role) && !HasPermission(actor, PermVerificationReview) {
		return NewError(ErrCannotAssign, "vendor tier requires verification review").
			WithPermission(PermVerificationReview).
			WithUser(target.ID).
			WithActor(actorID(actor))
	}
	if role.IsCustom() && role.OrganizationID != target.OrganizationID {
		return NewError(ErrCannotAssign, "custom role belongs to another organization").
			WithUser(target.ID).
			WithOrganization(role.OrganizationID)
	}
	if p, ok := exceedsActor(actor, role.Permissions); ok {
		return NewError(ErrCannotAssign, "role grants a permission the actor does not hold").
			WithPermission(p).
			WithUser(target.ID).
			WithActor(actorID(actor))
	}
	return nil
}

func (s *Service) recordRoleChange(ctx context.Context, actor *Principal, action AuditAction, target *Principal, role Role, newRoles []string) {
	audit := GetAuditContext(ctx)
	entry := &AuditEntry{
		ActorID:        actorID(actor),
		Action:         action,
		TargetUserID:   target.ID,
		RoleID:         role.ID,
		OrganizationID: target.OrganizationID,
		PreviousRoles:  target.RoleIDs(),
		NewRoles:       newRoles,
		IPAddress:      audit.IPAddress,
		UserAgent:      audit.UserAgent,
		RequestID:      audit.RequestID,
	}
	if err := s.logAudit(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("user_id", target.ID).Str("role_id", role.ID).
			Msg("failed to write role audit entry")
	}
}
