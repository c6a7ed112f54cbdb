// Package txrunner runs service writes inside a database transaction and
// retries the whole unit when the database reports a transient failure.
package txrunner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

const (
	DefaultAttempts = 3
	DefaultBackoff  = 50 * time.Millisecond
)

type Runner interface {
	// InTx runs fn in one transaction. fn may run more than once and must
	// only write through the dbctx it is handed.
	InTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error
}

type Option func(*gormRunner)

func WithAttempts(n int) Option {
	return func(r *gormRunner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(r *gormRunner) { r.backoff = d }
}

type gormRunner struct {
	db       *gorm.DB
	log      *logger.Logger
	attempts int
	backoff  time.Duration
}

func New(db *gorm.DB, log *logger.Logger, opts ...Option) Runner {
	r := &gormRunner{
		db:       db,
		log:      log.With("component", "TxRunner"),
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *gormRunner) InTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r.db == nil {
		return errors.New(op + ": transaction runner has nil db")
	}
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || !IsRetryable(err) || attempt == r.attempts {
			return err
		}
		r.log.Warn("transaction failed, retrying", "op", op, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return err
}

// IsRetryable reports serialization failures, deadlocks and lock timeouts.
// Context cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization") ||
		strings.Contains(msg, "database is locked")
}

// IsConflict reports unique constraint violations.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
