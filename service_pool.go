package accesskit

import (
	"errors"
	"time"

	"github.com/fernandezvara/dbkit"
)

// PoolConfig sizes the database connection pool. It is embedded in Config
// under ACCESSKIT_POOL_*.
type PoolConfig struct {
	MaxOpenConnections    int           `envconfig:"MAX_OPEN_CONNECTIONS" default:"25"`
	MaxIdleConnections    int           `envconfig:"MAX_IDLE_CONNECTIONS" default:"5"`
	ConnectionMaxLifetime time.Duration `envconfig:"CONNECTION_MAX_LIFETIME" default:"30m"`
	ConnectionMaxIdleTime time.Duration `envconfig:"CONNECTION_MAX_IDLE_TIME" default:"5m"`
}

// DefaultPoolConfig returns the pool settings used when nothing is configured.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}

// Validate checks the pool sizes are usable.
func (c PoolConfig) Validate() error {
	if c.MaxOpenConnections <= 0 {
		return NewError(ErrConfiguration, "pool max open connections must be positive")
	}
	if c.MaxIdleConnections < 0 || c.MaxIdleConnections > c.MaxOpenConnections {
		return NewError(ErrConfiguration, "pool max idle connections must be between 0 and max open connections")
	}
	return nil
}

var errPoolUnavailable = errors.New("connection pool configuration requires a dbkit.DBKit instance")

// PoolService provides connection pool management functionality as an extension to Service
type PoolService struct {
	*Service
	current PoolConfig
}

// NewPoolService creates a new pool service extension
func NewPoolService(service *Service) *PoolService {
	return &PoolService{Service: service, current: DefaultPoolConfig()}
}

// ConfigureConnectionPool applies pool settings to the underlying database.
func (ps *PoolService) ConfigureConnectionPool(cfg PoolConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, ok := ps.db.(*dbkit.DBKit)
	if !ok || db.Bun() == nil {
		return errPoolUnavailable
	}

	bunDB := db.Bun()
	bunDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	bunDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	bunDB.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
	bunDB.SetConnMaxIdleTime(cfg.ConnectionMaxIdleTime)
	ps.current = cfg

	ps.logger.Info().
		Int("max_open", cfg.MaxOpenConnections).
		Int("max_idle", cfg.MaxIdleConnections).
		Dur("max_lifetime", cfg.ConnectionMaxLifetime).
		Dur("max_idle_time", cfg.ConnectionMaxIdleTime).
		Msg("connection pool configured")
	return nil
}

// GetConnectionPoolConfig returns the last applied settings.
func (ps *PoolService) GetConnectionPoolConfig() PoolConfig {
	return ps.current
}

// OptimizeConnectionPool grows the pool when most connections are busy and
// shrinks it when most are idle. Guard checks are pure, so pool pressure
// comes from principal loads and audit writes.
func (ps *PoolService) OptimizeConnectionPool() error {
	stats := NewHealthService(ps.Service).GetPoolStats()
	if stats.MaxOpenConnections == 0 {
		return errPoolUnavailable
	}

	next := ps.current
	switch {
	case float64(stats.InUse)/float64(stats.MaxOpenConnections) > 0.8:
		next.MaxOpenConnections = next.MaxOpenConnections * 3 / 2
		next.MaxIdleConnections = next.MaxIdleConnections * 3 / 2
	case float64(stats.Idle)/float64(stats.MaxOpenConnections) > 0.8:
		next.MaxOpenConnections = next.MaxOpenConnections * 3 / 4
		next.MaxIdleConnections = next.MaxIdleConnections * 3 / 4
	}
	next.MaxOpenConnections = max(next.MaxOpenConnections, 5)
	next.MaxIdleConnections = min(max(next.MaxIdleConnections, 2), next.MaxOpenConnections)

	return ps.ConfigureConnectionPool(next)
}

// ResetConnectionPool restores DefaultPoolConfig.
func (ps *PoolService) ResetConnectionPool() error {
	return ps.ConfigureConnectionPool(DefaultPoolConfig())
}
