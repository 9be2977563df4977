package accesskit

import (
	"context"
	"errors"
	"time"

	"github.com/fernandezvara/dbkit"
)

var errNoTransactionSupport = errors.New("transaction support requires a dbkit.DBKit or dbkit.Tx instance")

// Transaction runs fn inside a database transaction. fn receives a copy of
// the service bound to the transaction; the receiver itself is never
// rebound, so concurrent callers are unaffected. Returning an error rolls
// back. Nested calls use savepoints.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context, tx *accesskit.Service) error {
//	    if err := tx.AssignRole(ctx, actor, "user_1", accesskit.RoleBuyer); err != nil {
//	        return err
//	    }
//	    return tx.RevokeRole(ctx, actor, "user_1", accesskit.RoleVendorBasic)
//	})
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	default:
		err = errNoTransactionSupport
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// TransactionWithOptions is Transaction with explicit isolation and access
// mode. Options are ignored for nested transactions.
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Service) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	case *dbkit.DBKit:
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	default:
		err = errNoTransactionSupport
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// ReadOnlyTransaction runs fn in a read-only transaction, giving a consistent
// view across several reads.
//
// Example:
//
//	err := service.ReadOnlyTransaction(ctx, func(ctx context.Context, tx *accesskit.Service) error {
//	    p, err := tx.LoadPrincipal(ctx, userID)
//	    if err != nil {
//	        return err
//	    }
//	    roles, err = tx.ListRoles(ctx, p.OrganizationID)
//	    return err
//	})
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}
