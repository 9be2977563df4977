package accesskit

import (
	"context"
	"errors"

	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an extension to Service
type MigrationService struct {
	*Service
}

// NewMigrationService creates a new migration service extension
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// Migrations returns the schema of the reference store.
// Use db.Migrate(ctx, accesskit.Migrations()) to apply them directly.
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "accesskit-001",
			Description: "Create organizations table",
			SQL: `
                CREATE TABLE IF NOT EXISTS organizations (
                    id TEXT PRIMARY KEY,
                    name TEXT NOT NULL,
                    type TEXT NOT NULL,
                    parent_id TEXT REFERENCES organizations(id),
                    status TEXT NOT NULL DEFAULT 'active',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE INDEX IF NOT EXISTS idx_organizations_parent ON organizations(parent_id)`,
		},
		{
			ID:          "accesskit-002",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    id TEXT PRIMARY KEY,
                    email TEXT NOT NULL,
                    display_name TEXT,
                    organization_id TEXT REFERENCES organizations(id),
                    active BOOLEAN NOT NULL DEFAULT TRUE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE INDEX IF NOT EXISTS idx_users_organization ON users(organization_id)`,
		},
		{
			ID:          "accesskit-003",
			Description: "Create custom_roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS custom_roles (
                    id UUID PRIMARY KEY,
                    organization_id TEXT NOT NULL REFERENCES organizations(id),
                    name TEXT NOT NULL,
                    description TEXT,
                    type TEXT NOT NULL,
                    tier TEXT,
                    permissions TEXT[] NOT NULL DEFAULT '{}',
                    created_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (organization_id, name)
                )`,
		},
		{
			ID:          "accesskit-004",
			Description: "Create role_assignments table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_assignments (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
                    role_id TEXT NOT NULL,
                    organization_id TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (user_id, role_id)
                );
                CREATE INDEX IF NOT EXISTS idx_role_assignments_role ON role_assignments(role_id)`,
		},
		{
			ID:          "accesskit-005",
			Description: "Create resource_ownership table",
			SQL: `
                CREATE TABLE IF NOT EXISTS resource_ownership (
                    kind TEXT NOT NULL,
                    id TEXT NOT NULL,
                    organization_id TEXT NOT NULL,
                    owner_id TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (kind, id)
                )`,
		},
		{
			ID:          "accesskit-006",
			Description: "Create role_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    target_user_id TEXT NOT NULL,
                    role_id TEXT NOT NULL,
                    organization_id TEXT,
                    previous_roles TEXT[],
                    new_roles TEXT[],
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                );
                CREATE INDEX IF NOT EXISTS idx_role_audit_log_target ON role_audit_log(target_user_id, timestamp DESC)`,
		},
		{
			ID:          "accesskit-007",
			Description: "Create access_decision_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS access_decision_log (
                    id UUID PRIMARY KEY,
                    timestamp TIMESTAMPTZ NOT NULL,
                    principal_id TEXT,
                    organization_id TEXT,
                    outcome TEXT NOT NULL,
                    reason TEXT,
                    permissions TEXT[],
                    mode TEXT,
                    owner_only BOOLEAN NOT NULL DEFAULT FALSE,
                    resource_kind TEXT,
                    resource_id TEXT,
                    resource_organization_id TEXT,
                    cross_organization BOOLEAN NOT NULL DEFAULT FALSE,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                );
                CREATE INDEX IF NOT EXISTS idx_access_decision_log_principal ON access_decision_log(principal_id, timestamp DESC);
                CREATE INDEX IF NOT EXISTS idx_access_decision_log_cross_org ON access_decision_log(timestamp DESC) WHERE cross_organization`,
		},
	}
}

// Migrations returns all database migrations required by the store.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return Migrations()
}

// RunMigrations applies pending migrations and returns the IDs it applied.
// It needs a top-level dbkit.DBKit handle, not a transaction.
func (ms *MigrationService) RunMigrations(ctx context.Context) ([]string, error) {
	db, ok := ms.db.(*dbkit.DBKit)
	if !ok {
		return nil, errors.New("migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, ms.Migrations())
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(result.Applied))
	for _, m := range result.Applied {
		applied = append(applied, m.ID)
		ms.logger.Info().Str("migration", m.ID).Msg("applied migration")
	}
	return applied, nil
}
