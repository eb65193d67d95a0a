// Package database provides PostgreSQL connection management using pgx,
// plus the transaction helpers the capacity-constrained claim sites
// depend on.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/config"
)

// SQLSTATE codes this core reacts to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries up to 5 times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	// Sensible pool defaults for a small service.
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			pingErr := pool.Ping(ctx)
			if pingErr == nil {
				return pool, nil
			}
			pool.Close()
			err = fmt.Errorf("ping: %w", pingErr)
		}
		log.Warn("db connect attempt failed", "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// IsUniqueViolation reports whether err is a uniqueness-constraint
// violation, the structural signal for an AlreadyClaimed outcome.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsSerializationFailure reports whether err is a serializable-isolation
// conflict the caller should retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeSerializationFailure
}

// TxBeginner is the subset of pgxpool.Pool the transaction helpers need.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// InSerializableTx runs fn at serializable isolation so count-then-insert
// sequences cannot write-skew past a capacity limit. A serialization
// failure is retried once with a fresh transaction; a second failure
// surfaces as apperr.ErrConflictRetry, which must never be conflated
// with the Full or AlreadyClaimed business outcomes.
func InSerializableTx(ctx context.Context, pool TxBeginner, log *slog.Logger, fn func(tx pgx.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := run(ctx, pool, opts, fn)
	if err == nil || !IsSerializationFailure(err) {
		return err
	}
	log.Debug("serialization conflict, retrying transaction once", "error", err)
	err = run(ctx, pool, opts, fn)
	if err != nil && IsSerializationFailure(err) {
		return fmt.Errorf("serializable transaction aborted twice: %w", apperr.ErrConflictRetry)
	}
	return err
}

func run(ctx context.Context, pool TxBeginner, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
