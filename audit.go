package accesskit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DecisionRecord is the audit trail entry for one guard decision.
type DecisionRecord struct {
	Timestamp         time.Time
	PrincipalID       string
	OrganizationID    string
	Outcome           Outcome
	Reason            string
	Permissions       []Permission
	Mode              Mode
	OwnerOnly         bool
	Resource          *ResourceRef
	CrossOrganization bool
	Audit             AuditContext
}

// NewDecisionRecord builds a record for d using the audit values stored in ctx.
func NewDecisionRecord(ctx context.Context, d Decision, at time.Time) DecisionRecord {
	rec := DecisionRecord{
		Timestamp:         at.UTC(),
		PrincipalID:       d.PrincipalID,
		OrganizationID:    d.OrganizationID,
		Outcome:           d.Outcome,
		Reason:            d.Reason,
		Permissions:       append([]Permission(nil), d.Requirement.Permissions...),
		Mode:              d.Requirement.Mode,
		OwnerOnly:         d.Requirement.OwnerOnly,
		CrossOrganization: d.CrossOrganization,
		Audit:             GetAuditContext(ctx),
	}
	if d.Requirement.Resource != nil {
		res := *d.Requirement.Resource
		rec.Resource = &res
	}
	return rec
}

// Auditor receives guard decisions.
type Auditor interface {
	RecordDecision(ctx context.Context, rec DecisionRecord) error
}

// AuditorFunc adapts a function to Auditor.
type AuditorFunc func(ctx context.Context, rec DecisionRecord) error

// RecordDecision implements Auditor.
func (f AuditorFunc) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	return f(ctx, rec)
}

// MultiAuditor fans a record out to several auditors and joins their errors.
type MultiAuditor []Auditor

// RecordDecision implements Auditor.
func (m MultiAuditor) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	var errs []error
	for _, a := range m {
		if err := a.RecordDecision(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AuditMode selects which decisions are recorded.
type AuditMode string

const (
	AuditAll    AuditMode = "all"
	AuditDenied AuditMode = "denied"
	AuditNone   AuditMode = "none"
)

// Valid reports whether m is a known mode.
func (m AuditMode) Valid() bool {
	switch m {
	case AuditAll, AuditDenied, AuditNone:
		return true
	}
	return false
}

// FilterAuditor applies mode before forwarding to next. Cross-organization
// attempts are always forwarded unless mode is AuditNone. A nil next
// discards every record.
func FilterAuditor(mode AuditMode, next Auditor) Auditor {
	if next == nil {
		return AuditorFunc(func(context.Context, DecisionRecord) error { return nil })
	}
	return AuditorFunc(func(ctx context.Context, rec DecisionRecord) error {
		switch mode {
		case AuditNone:
			return nil
		case AuditDenied:
			if rec.Outcome == OutcomeAllowed && !rec.CrossOrganization {
				return nil
			}
		}
		return next.RecordDecision(ctx, rec)
	})
}

// LogAuditor writes decision records to a zerolog logger. Cross-organization
// attempts are logged at warn level.
type LogAuditor struct {
	logger zerolog.Logger
}

// NewLogAuditor creates a LogAuditor.
func NewLogAuditor(logger zerolog.Logger) *LogAuditor {
	return &LogAuditor{logger: logger.With().Str("component", "access_audit").Logger()}
}

// RecordDecision implements Auditor.
func (a *LogAuditor) RecordDecision(_ context.Context, rec DecisionRecord) error {
	level := zerolog.InfoLevel
	if rec.CrossOrganization {
		level = zerolog.WarnLevel
	}
	ev := a.logger.WithLevel(level).Bool("cross_organization", rec.CrossOrganization)
	if rec.Resource != nil {
		ev = ev.Str("resource", rec.Resource.String()).
			Str("resource_organization_id", rec.Resource.OrganizationID)
	}
	ev.Time("at", rec.Timestamp).
		Str("principal_id", rec.PrincipalID).
		Str("organization_id", rec.OrganizationID).
		Str("outcome", rec.Outcome.String()).
		Str("reason", rec.Reason).
		Strs("permissions", permissionStrings(rec.Permissions)).
		Str("mode", rec.Mode.String()).
		Bool("owner_only", rec.OwnerOnly).
		Str("ip", rec.Audit.IPAddress).
		Str("request_id", rec.Audit.RequestID).
		Msg("access " + rec.Outcome.String())
	return nil
}
