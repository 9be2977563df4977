package accesskit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// storeFixture wires a Service to the database named by TEST_DATABASE_URL.
// Every fixture uses fresh IDs so tests can share one database.
type storeFixture struct {
	t    *testing.T
	ctx  context.Context
	db   *dbkit.DBKit
	svc  *Service
	root *Principal
}

// newStoreFixture skips the test when no database is reachable.
func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set - skipping database test")
	}

	db, err := dbkit.New(dbkit.Config{URL: url})
	if err != nil {
		t.Skipf("database not available: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(DefaultCatalog(), db, WithRetry(2, time.Millisecond))
	_, err = NewMigrationService(svc).RunMigrations(context.Background())
	require.NoError(t, err)

	return &storeFixture{
		t:    t,
		ctx:  context.Background(),
		db:   db,
		svc:  svc,
		root: platformAdmin(uniqueID("root"), ""),
	}
}

func uniqueID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// org creates an active primary organization.
func (f *storeFixture) org(name string) *Organization {
	f.t.Helper()
	org, err := f.svc.CreateOrganization(f.ctx, f.root, OrganizationInput{Name: name, Type: OrganizationPrimary})
	require.NoError(f.t, err)
	return org
}

// user stores a user in organizationID, grants roles as the platform admin
// and returns the loaded principal.
func (f *storeFixture) user(organizationID string, roles ...string) *Principal {
	f.t.Helper()
	id := uniqueID("user")
	require.NoError(f.t, f.svc.UpsertUser(f.ctx, UserInput{
		ID:             id,
		Email:          id + "@example.com",
		OrganizationID: organizationID,
	}))
	for _, r := range roles {
		require.NoError(f.t, f.svc.AssignRole(f.ctx, f.root, id, r))
	}
	return f.load(id)
}

func (f *storeFixture) load(userID string) *Principal {
	f.t.Helper()
	p, err := f.svc.LoadPrincipal(f.ctx, userID)
	require.NoError(f.t, err)
	return p
}
