package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// OrganizationInput describes a new organization.
type OrganizationInput struct {
	Name     string           `validate:"required,max=128"`
	Type     OrganizationType `validate:"required,oneof=primary subsidiary channel_partner"`
	ParentID string           `validate:"required_unless=Type primary"`
}

// CreateOrganization creates an organization. Primary organizations can only
// be created by platform admins. Subsidiaries and channel partners can also
// be created by holders of organization:manage in the parent organization.
func (s *Service) CreateOrganization(ctx context.Context, actor *Principal, input OrganizationInput) (*Organization, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	org := Organization{
		ID:        s.newID(),
		Name:      input.Name,
		Type:      input.Type,
		ParentID:  input.ParentID,
		Status:    OrganizationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}

	if org.Type == OrganizationPrimary {
		if !newChecker(actor).IsPlatformAdmin() {
			return nil, NewError(ErrUnauthorized, "only platform admins create primary organizations").
				WithPermission(PermPlatformAdmin).
				WithActor(actorID(actor))
		}
	} else {
		parent, err := s.GetOrganization(ctx, org.ParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsActive() {
			return nil, NewError(ErrInvalidOrganization, "parent organization is not active").
				WithOrganization(parent.ID)
		}
		if !canAdministerOrganization(actor, PermOrganizationManage, parent.ID) {
			return nil, NewError(ErrUnauthorized, "cannot create organizations under this parent").
				WithPermission(PermOrganizationManage).
				WithOrganization(parent.ID).
				WithActor(actorID(actor))
		}
	}

	rec := &OrganizationRecord{
		ID:        org.ID,
		Name:      org.Name,
		Type:      string(org.Type),
		ParentID:  org.ParentID,
		Status:    string(org.Status),
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
	result, err := s.db.NewInsert().Model(rec).Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreateOrganization").Err(); err != nil {
		return nil, err
	}

	s.logger.Info().Str("organization_id", org.ID).Str("type", string(org.Type)).
		Str("actor_id", actorID(actor)).Msg("organization created")
	return &org, nil
}

// GetOrganization returns an organization by ID.
func (s *Service) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	var rec OrganizationRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rec).Where("id = ?", id).Limit(1).Scan(ctx), "GetOrganization").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "organization not found").WithOrganization(id)
		}
		return nil, err
	}
	org := rec.toOrganization()
	return &org, nil
}

// ListSubsidiaries returns the direct children of an organization.
func (s *Service) ListSubsidiaries(ctx context.Context, parentID string) ([]Organization, error) {
	var recs []OrganizationRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&recs).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Scan(ctx), "ListSubsidiaries").Err()
	if err != nil && !dbkit.IsNotFound(err) {
		return nil, err
	}
	out := make([]Organization, len(recs))
	for i := range recs {
		out[i] = recs[i].toOrganization()
	}
	return out, nil
}

// SetOrganizationStatus changes an organization's status. Platform admins may
// change any organization; holders of organization:manage may change the
// direct children of their own organization. Members of a suspended or
// archived organization are loaded as inactive.
func (s *Service) SetOrganizationStatus(ctx context.Context, actor *Principal, organizationID string, status OrganizationStatus) error {
	if !status.Valid() {
		return NewError(ErrInvalidOrganization, "unknown organization status "+string(status))
	}
	org, err := s.GetOrganization(ctx, organizationID)
	if err != nil {
		return err
	}
	if !canAdministerOrganization(actor, PermOrganizationManage, org.ParentID) {
		return NewError(ErrUnauthorized, "cannot change this organization's status").
			WithPermission(PermOrganizationManage).
			WithOrganization(organizationID).
			WithActor(actorID(actor))
	}

	result, err := s.db.NewUpdate().Model((*OrganizationRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", organizationID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "SetOrganizationStatus").Err(); err != nil {
		return err
	}

	s.logger.Info().Str("organization_id", organizationID).Str("status", string(status)).
		Str("actor_id", actorID(actor)).Msg("organization status changed")
	return nil
}
