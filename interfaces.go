package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database is the handle a Service runs its queries on.
type Database interface {
	dbkit.IDB
}

// TransactionManager runs work atomically against the store.
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Service) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error
}

// MigrationManager applies the store schema.
type MigrationManager interface {
	Migrations() []dbkit.Migration
	RunMigrations(ctx context.Context) ([]string, error)
}

// HealthMonitor reports on the database behind the store.
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager tunes the connection pool.
type PoolManager interface {
	ConfigureConnectionPool(cfg PoolConfig) error
	GetConnectionPoolConfig() PoolConfig
	OptimizeConnectionPool() error
	ResetConnectionPool() error
}

// RoleAdministrator changes who holds which roles.
type RoleAdministrator interface {
	CreateCustomRole(ctx context.Context, actor *Principal, input RoleInput) (*Role, error)
	UpdateCustomRole(ctx context.Context, actor *Principal, roleID string, input RoleInput) (*Role, error)
	DeleteCustomRole(ctx context.Context, actor *Principal, roleID string) error
	AssignRole(ctx context.Context, actor *Principal, userID, roleID string) error
	RevokeRole(ctx context.Context, actor *Principal, userID, roleID string) error
	ListRoles(ctx context.Context, organizationID string) ([]Role, error)
}

// TransactionMonitor exposes transaction statistics.
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}

var (
	_ PrincipalLoader    = (*Service)(nil)
	_ OwnershipLookup    = (*Service)(nil)
	_ Auditor            = (*Service)(nil)
	_ TransactionManager = (*Service)(nil)
	_ RoleAdministrator  = (*Service)(nil)
	_ TransactionMonitor = (*Service)(nil)
	_ MigrationManager   = (*MigrationService)(nil)
	_ HealthMonitor      = (*HealthService)(nil)
	_ PoolManager        = (*PoolService)(nil)
	_ Database           = (*dbkit.DBKit)(nil)
	_ Database           = (*dbkit.Tx)(nil)
)
