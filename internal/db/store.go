package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/noah-isme/toko-billing/internal/db/gen"
)

const uniqueViolation = "23505"

var (
	// ErrDuplicateReference is returned when a payment reference id is already recorded.
	ErrDuplicateReference = errors.New("db: duplicate payment reference")
	// ErrNotConfigured is returned by a Store without a pool.
	ErrNotConfigured = errors.New("db: store not configured")
)

// TxRunner runs fn inside a single transaction.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(dbgen.Querier) error) error
}

// Store couples the pool with the generated queries.
type Store struct {
	Pool    *pgxpool.Pool
	Queries *dbgen.Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool, Queries: dbgen.New(pool)}
}

// ExecTx commits when fn returns nil and rolls back otherwise.
func (s *Store) ExecTx(ctx context.Context, fn func(dbgen.Querier) error) error {
	if s == nil || s.Pool == nil || s.Queries == nil {
		return ErrNotConfigured
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsNotFound reports whether err means the query matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
