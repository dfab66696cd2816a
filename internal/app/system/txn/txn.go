// Package txn runs multi-document MongoDB work atomically when the deployment
// allows it.
//
// Standalone servers and some DocumentDB setups reject transactions. Run
// detects that and re-runs the work without one, so callers get atomicity on
// replica sets and best-effort behavior elsewhere:
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    _, err := nodes.DeleteOne(ctx, filter)
//	    return err
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work. ctx carries the session when a transaction is
// active and must be passed to every database call.
type Func func(ctx context.Context) error

// Run executes fn inside a transaction, falling back to a plain call when
// sessions or transactions are unavailable. log may be nil.
//
// fn can be invoked more than once: the driver retries transient
// transaction errors, and the fallback runs it again after a rejected
// attempt. fn must reset any state it accumulates.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		warn(log, "failed to start session, running without transaction", err)
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		warn(log, "transactions not supported, running without transaction", err)
		return fn(ctx)
	}
	return err
}

// InTransaction reports whether ctx carries an active session, i.e. whether
// writes made with it will be rolled back if the surrounding Run fails.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

func warn(log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Warn(msg, zap.Error(err))
	}
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
//
// Codes: 20 (transaction numbers need a replica set member or mongos),
// 51 (IllegalOperation), 263 (operation not allowed in a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Message matching catches vendor variations. Two keywords are required
	// so an unrelated error mentioning "session" is not swallowed.
	msg := strings.ToLower(err.Error())
	matches := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			matches++
		}
	}
	return matches >= 2
}
