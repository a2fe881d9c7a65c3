package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TxOptions struct {
	// Isolation is passed to BEGIN; sql.LevelDefault leaves it to the driver.
	Isolation  sql.IsolationLevel
	MaxRetries int
	Logger     *logrus.Logger
}

// IsWriteConflict reports errors that running the whole transaction again can resolve:
// optimistic version mismatches, duplicate primary keys from a concurrent
// first writer, deadlocks and serialization failures.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrWriteConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062, 1205, 1213:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01":
			return true
		}
		return false
	}

	// sqlite reports through plain error strings
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// RunInTransaction runs fn in one transaction and reruns it from scratch with
// exponential backoff while it fails with a write conflict. Any other error
// is returned as is. Exhausting MaxRetries surfaces as ABORTED.
func RunInTransaction(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	maxTries := opts.MaxRetries
	if maxTries < 1 {
		maxTries = 1
	}
	var txOpts []*sql.TxOptions
	if opts.Isolation != sql.LevelDefault {
		txOpts = append(txOpts, &sql.TxOptions{Isolation: opts.Isolation})
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 20 * time.Millisecond
	expo.MaxInterval = 500 * time.Millisecond

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := db.WithContext(ctx).Transaction(fn, txOpts...)
		if err == nil {
			return struct{}{}, nil
		}
		if IsWriteConflict(err) {
			if opts.Logger != nil {
				opts.Logger.WithFields(logrus.Fields{
					"module":  "store.go",
					"attempt": attempt,
				}).Warn("transaction conflict: " + err.Error())
			}
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(uint(maxTries)))

	if err != nil && IsWriteConflict(err) {
		return NewAbortedError("transaction aborted after %d attempts: %v", attempt, err)
	}
	return err
}
