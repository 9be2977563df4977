package accesskit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct {
	records []DecisionRecord
	err     error
}

func (a *recordingAuditor) RecordDecision(_ context.Context, rec DecisionRecord) error {
	a.records = append(a.records, rec)
	return a.err
}

// TestNewDecisionRecord tests building audit records from decisions
func TestNewDecisionRecord(t *testing.T) {
	p := testPrincipal("u1", "org-1", testRole("viewer", PermServiceView))
	req := RequireAllOf(PermServiceView).On(Resource(ResourceService, "s1", "org-2"))
	d := Evaluate(Resolved(p), req)

	ctx := WithIPAddress(WithRequestID(context.Background(), "req-1"), "10.0.0.1")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	rec := NewDecisionRecord(ctx, d, at)

	assert.Equal(t, at.UTC(), rec.Timestamp)
	assert.Equal(t, "u1", rec.PrincipalID)
	assert.Equal(t, "org-1", rec.OrganizationID)
	assert.Equal(t, OutcomeDenied, rec.Outcome)
	assert.Equal(t, ReasonOrganizationMismatch, rec.Reason)
	assert.Equal(t, []Permission{PermServiceView}, rec.Permissions)
	assert.True(t, rec.CrossOrganization)
	assert.Equal(t, "req-1", rec.Audit.RequestID)
	assert.Equal(t, "10.0.0.1", rec.Audit.IPAddress)

	require.NotNil(t, rec.Resource)
	rec.Resource.ID = "changed"
	assert.Equal(t, "s1", d.Requirement.Resource.ID, "record holds its own copy")
}

// TestFilterAuditor tests audit modes
func TestFilterAuditor(t *testing.T) {
	allowed := DecisionRecord{Outcome: OutcomeAllowed}
	denied := DecisionRecord{Outcome: OutcomeDenied}
	crossAllowed := DecisionRecord{Outcome: OutcomeAllowed, CrossOrganization: true}

	tests := []struct {
		mode AuditMode
		want int
	}{
		{AuditAll, 3},
		{AuditDenied, 2},
		{AuditNone, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			next := &recordingAuditor{}
			a := FilterAuditor(tt.mode, next)
			for _, rec := range []DecisionRecord{allowed, denied, crossAllowed} {
				require.NoError(t, a.RecordDecision(context.Background(), rec))
			}
			assert.Len(t, next.records, tt.want)
		})
	}

	t.Run("nil next", func(t *testing.T) {
		a := FilterAuditor(AuditAll, nil)
		assert.NotPanics(t, func() {
			assert.NoError(t, a.RecordDecision(context.Background(), denied))
		})
		g := NewGuard(WithAuditor(a))
		assert.NotPanics(t, func() { g.Check(context.Background(), Resolved(nil), RequireAllOf(PermServiceView)) })
	})

	assert.True(t, AuditDenied.Valid())
	assert.False(t, AuditMode("sometimes").Valid())
}

// TestMultiAuditor tests fan-out and error joining
func TestMultiAuditor(t *testing.T) {
	first := &recordingAuditor{err: errors.New("first failed")}
	second := &recordingAuditor{}
	third := &recordingAuditor{err: errors.New("third failed")}

	err := MultiAuditor{first, second, third}.RecordDecision(context.Background(), DecisionRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
	assert.Contains(t, err.Error(), "third failed")
	assert.Len(t, second.records, 1, "later auditors still run after a failure")

	assert.NoError(t, MultiAuditor{}.RecordDecision(context.Background(), DecisionRecord{}))
}

// TestLogAuditor tests structured decision logging
func TestLogAuditor(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogAuditor(zerolog.New(&buf))

	res := Resource(ResourceBooking, "b1", "org-2")
	require.NoError(t, a.RecordDecision(context.Background(), DecisionRecord{
		PrincipalID:       "u1",
		OrganizationID:    "org-1",
		Outcome:           OutcomeDenied,
		Reason:            ReasonOrganizationMismatch,
		Permissions:       []Permission{PermBookingManage},
		Resource:          &res,
		CrossOrganization: true,
	}))

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"component":"access_audit"`)
	assert.Contains(t, out, `"resource":"booking:b1"`)
	assert.Contains(t, out, `"permissions":["booking:manage"]`)
	assert.Contains(t, out, `"message":"access denied"`)

	buf.Reset()
	require.NoError(t, a.RecordDecision(context.Background(), DecisionRecord{PrincipalID: "u1", Outcome: OutcomeAllowed}))
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.NotContains(t, buf.String(), `"resource"`)
}
