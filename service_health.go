package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// HealthService provides health monitoring functionality as an extension to Service
type HealthService struct {
	*Service
}

// NewHealthService creates a new health service extension
func NewHealthService(service *Service) *HealthService {
	return &HealthService{Service: service}
}

// Health reports database reachability, latency and pool usage.
// Inside a transaction only a ping is possible.
func (hs *HealthService) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := hs.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}

	status := dbkit.HealthStatus{Healthy: true}
	if err := hs.Ping(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	return status
}

// IsHealthy reports whether the database answers and recent transactions
// mostly succeed.
func (hs *HealthService) IsHealthy(ctx context.Context) bool {
	if !hs.IsTransactionHealthy() {
		return false
	}
	if db, ok := hs.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return hs.Ping(ctx) == nil
}

// GetPoolStats returns connection pool statistics, or zero values inside a transaction.
func (hs *HealthService) GetPoolStats() dbkit.PoolStats {
	if db, ok := hs.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}

// Ping runs a trivial query with a short timeout.
func (hs *HealthService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var one int
	err := hs.db.NewSelect().ColumnExpr("1").Scan(ctx, &one)
	return dbkit.WithErr1(err, "Ping").Err()
}
