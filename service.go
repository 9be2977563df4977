package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the reference store behind the access core. It loads
// principals, administers organizations and roles, records ownership and
// keeps the audit trails. It integrates with the database through dbkit.
//
// Error Handling:
// Database failures are wrapped with dbkit's chainable error helpers so they
// keep operation names and can be classified with dbkit.IsNotFound or
// dbkit.IsDuplicate. Domain failures wrap the accesskit sentinels:
//
//	err := service.AssignRole(ctx, actor, userID, accesskit.RoleVendorPremium)
//	if accesskit.IsCannotAssign(err) {
//	    // actor may not grant this role
//	}
type Service struct {
	db        dbkit.IDB
	catalog   *Catalog
	validate  *validator.Validate
	logger    zerolog.Logger
	txMonitor *transactionMonitor
	retry     retryPolicy
	newID     func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithRetry sets how LoadPrincipalWithRetry retries transient failures.
func WithRetry(attempts int, baseDelay time.Duration) ServiceOption {
	return func(s *Service) {
		s.retry = retryPolicy{attempts: attempts, baseDelay: baseDelay}
	}
}

// NewService creates a new Service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := accesskit.NewService(accesskit.DefaultCatalog(), db)
func NewService(catalog *Catalog, db dbkit.IDB, opts ...ServiceOption) *Service {
	s := &Service{
		db:        db,
		catalog:   catalog,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    zerolog.Nop(),
		txMonitor: newTransactionMonitor(),
		retry:     defaultRetryPolicy,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the system role catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// withDB returns a shallow copy of s bound to another handle, used inside transactions.
func (s *Service) withDB(db dbkit.IDB) *Service {
	cp := *s
	cp.db = db
	return &cp
}

// ============================================================================
// AUDIT LOGS
// ============================================================================

// RecordDecision implements Auditor by storing the decision.
func (s *Service) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	_, err := s.db.NewInsert().Model(newDecisionLog(s.newID(), rec)).Exec(ctx)
	return dbkit.WithErr1(err, "RecordDecision").Err()
}

// GetDecisionLog retrieves stored access decisions, newest first.
func (s *Service) GetDecisionLog(ctx context.Context, filter DecisionLogFilter) ([]DecisionLog, error) {
	var logs []DecisionLog
	q := s.db.NewSelect().Model(&logs)
	if filter.PrincipalID != "" {
		q = q.Where("principal_id = ?", filter.PrincipalID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.ResourceID != "" {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Outcome != "" {
		q = q.Where("outcome = ?", filter.Outcome)
	}
	if filter.CrossOrganizationOnly {
		q = q.Where("cross_organization = TRUE")
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}
	q = q.Limit(pageLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := dbkit.WithErr1(q.Order("timestamp DESC").Scan(ctx), "GetDecisionLog").Err()
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// GetAuditLog retrieves role audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]RoleAuditLog, error) {
	var logs []RoleAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetUserID != "" {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.RoleID != "" {
		q = q.Where("role_id = ?", filter.RoleID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}
	q = q.Limit(pageLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := dbkit.WithErr1(q.Order("timestamp DESC").Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	}
	return limit
}
