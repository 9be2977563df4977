package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// RegisterResource records or updates who owns a resource. Domain services
// call it when they create a service, project, booking and so on.
func (s *Service) RegisterResource(ctx context.Context, ref ResourceRef) error {
	if !ref.Kind.Valid() {
		return NewError(ErrInvalidInput, "unknown resource kind "+string(ref.Kind))
	}
	if ref.ID == "" || ref.OrganizationID == "" {
		return NewError(ErrInvalidInput, "resource ID and organization are required").
			WithResource(ref.ID)
	}

	now := time.Now()
	rec := &ResourceRecord{
		Kind:           string(ref.Kind),
		ID:             ref.ID,
		OrganizationID: ref.OrganizationID,
		OwnerID:        ref.OwnerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result, err := s.db.NewInsert().Model(rec).
		On("CONFLICT (kind, id) DO UPDATE").
		Set("organization_id = EXCLUDED.organization_id").
		Set("owner_id = EXCLUDED.owner_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return dbkit.WithErr(result, err, "RegisterResource").Err()
}

// LookupResource implements OwnershipLookup.
func (s *Service) LookupResource(ctx context.Context, kind ResourceKind, id string) (ResourceRef, error) {
	var rec ResourceRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rec).
		Where("kind = ? AND id = ?", string(kind), id).
		Limit(1).
		Scan(ctx), "LookupResource").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return ResourceRef{}, NewError(ErrNotFound, "resource not found").WithResource(id)
		}
		return ResourceRef{}, err
	}
	return rec.toRef(), nil
}

// ResourceExists reports whether ownership is recorded for a resource.
func (s *Service) ResourceExists(ctx context.Context, kind ResourceKind, id string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*ResourceRecord)(nil)).
		Where("kind = ? AND id = ?", string(kind), id).
		Exists(ctx)
	return exists, dbkit.WithErr1(err, "ResourceExists").Err()
}

// DeleteResource forgets a resource's ownership record.
func (s *Service) DeleteResource(ctx context.Context, kind ResourceKind, id string) error {
	result, err := s.db.NewDelete().Model((*ResourceRecord)(nil)).
		Where("kind = ? AND id = ?", string(kind), id).
		Exec(ctx)
	return dbkit.WithErr(result, err, "DeleteResource").Err()
}
