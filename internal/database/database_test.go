package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
)

// stubTx satisfies pgx.Tx for the transaction helpers, which only ever
// commit or roll back; everything else stays unimplemented.
type stubTx struct {
	pgx.Tx
}

func (stubTx) Commit(context.Context) error   { return nil }
func (stubTx) Rollback(context.Context) error { return nil }

type stubBeginner struct {
	begun int
}

func (b *stubBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.begun++
	return stubTx{}, nil
}

func serializationFailure() error {
	return &pgconn.PgError{Code: codeSerializationFailure, Message: "could not serialize access"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInSerializableTxRetriesConflictOnce(t *testing.T) {
	pool := &stubBeginner{}
	calls := 0
	err := InSerializableTx(context.Background(), pool, testLogger(), func(pgx.Tx) error {
		calls++
		if calls == 1 {
			return serializationFailure()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 || pool.begun != 2 {
		t.Fatalf("calls = %d, transactions begun = %d, want 2 and 2", calls, pool.begun)
	}
}

func TestInSerializableTxGivesUpAfterSecondConflict(t *testing.T) {
	pool := &stubBeginner{}
	calls := 0
	err := InSerializableTx(context.Background(), pool, testLogger(), func(pgx.Tx) error {
		calls++
		return serializationFailure()
	})
	if !errors.Is(err, apperr.ErrConflictRetry) {
		t.Fatalf("err = %v, want ErrConflictRetry", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want exactly 2", calls)
	}
}

func TestInSerializableTxDoesNotRetryBusinessErrors(t *testing.T) {
	pool := &stubBeginner{}
	calls := 0
	err := InSerializableTx(context.Background(), pool, testLogger(), func(pgx.Tx) error {
		calls++
		return fmt.Errorf("event is full: %w", apperr.ErrFull)
	})
	if !errors.Is(err, apperr.ErrFull) {
		t.Fatalf("err = %v, want ErrFull", err)
	}
	if calls != 1 || pool.begun != 1 {
		t.Fatalf("calls = %d, transactions begun = %d, want 1 and 1", calls, pool.begun)
	}
}

func TestInSerializableTxSucceedsFirstTry(t *testing.T) {
	pool := &stubBeginner{}
	calls := 0
	if err := InSerializableTx(context.Background(), pool, testLogger(), func(pgx.Tx) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSQLStateClassifiers(t *testing.T) {
	wrapped := fmt.Errorf("claim: %w", &pgconn.PgError{Code: codeUniqueViolation})
	if !IsUniqueViolation(wrapped) {
		t.Fatal("wrapped 23505 not recognized")
	}
	if IsUniqueViolation(serializationFailure()) {
		t.Fatal("40001 misread as unique violation")
	}
	if !IsSerializationFailure(fmt.Errorf("claim: %w", serializationFailure())) {
		t.Fatal("wrapped 40001 not recognized")
	}
	if IsSerializationFailure(errors.New("plain")) {
		t.Fatal("plain error misread as serialization failure")
	}
}
