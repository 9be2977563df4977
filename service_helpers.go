package accesskit

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
}

var defaultRetryPolicy = retryPolicy{attempts: 3, baseDelay: 100 * time.Millisecond}

// do runs fn until it succeeds, fails with a non-transient error, runs out
// of attempts or ctx is done. Waits grow exponentially with 10% jitter.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	attempts := max(p.attempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isTransientError(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		backoff := p.baseDelay * time.Duration(1<<uint(attempt))
		jitter := time.Duration(float64(backoff) * 0.1 * (0.5 + rand.Float64()))
		timer := time.NewTimer(backoff + jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}

var transientErrors = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"deadlock",
	"lock wait timeout",
	"temporary failure",
	"try again",
	"resource temporarily unavailable",
	"too many connections",
}

// isTransientError checks if an error is transient and can be retried.
// Domain errors are never transient.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var domain *Error
	if errors.As(err, &domain) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, t := range transientErrors {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

func (s *Service) validateInput(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return NewError(ErrInvalidInput, fe.Field()+" failed "+fe.Tag()+" validation")
		}
		return NewError(ErrInvalidInput, err.Error())
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	return dbkit.WithErr1(err, "LogAudit").Err()
}

// resolveRole finds a role by ID in the catalog first, then among custom roles.
func (s *Service) resolveRole(ctx context.Context, roleID string) (Role, error) {
	if r, ok := s.catalog.Role(roleID); ok {
		return r, nil
	}
	rec, err := s.getCustomRoleRecord(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	return rec.toRole()
}

func (s *Service) getCustomRoleRecord(ctx context.Context, roleID string) (*RoleRecord, error) {
	if _, err := uuid.Parse(roleID); err != nil {
		return nil, NewError(ErrNotFound, "role not found")
	}
	var rec RoleRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rec).Where("id = ?", roleID).Limit(1).Scan(ctx), "GetCustomRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "role not found")
		}
		return nil, err
	}
	return &rec, nil
}

// canAdministerOrganization reports whether actor holds perm inside
// organizationID, or is a platform admin.
func canAdministerOrganization(actor *Principal, perm Permission, organizationID string) bool {
	c := newChecker(actor)
	if c.IsPlatformAdmin() {
		return true
	}
	return organizationID != "" && c.HasPermission(perm) && c.OrganizationID() == organizationID
}

// exceedsActor reports the first permission in perms the actor does not hold.
// Platform admins may grant anything.
func exceedsActor(actor *Principal, perms []Permission) (Permission, bool) {
	c := newChecker(actor)
	if c.IsPlatformAdmin() {
		return 0, false
	}
	for _, p := range perms {
		if !c.HasPermission(p) {
			return p, true
		}
	}
	return 0, false
}

// isVerifiedTier reports whether granting or revoking role changes a vendor
// tier above basic. Those changes belong to verification review.
func isVerifiedTier(role Role) bool {
	return role.Type == RoleTypeVendor && role.Tier.Outranks(TierBasic)
}
