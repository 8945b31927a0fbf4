package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unilib-br/unilib/internal/domain/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same
// repository code runs inside and outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements repository.Store on Postgres.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Users() repository.UserRepository      { return &UserRepository{q: s.q} }
func (s *Store) Items() repository.CatalogRepository   { return &CatalogRepository{q: s.q} }
func (s *Store) Loans() repository.LoanRepository      { return &LoanRepository{q: s.q} }
func (s *Store) History() repository.HistoryRepository { return &HistoryRepository{q: s.q} }

// RunAtomically runs fn against a transactional view of the store.
// Calls nested inside an open transaction reuse it.
func (s *Store) RunAtomically(ctx context.Context, fn func(repository.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	txStore := &Store{q: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

var _ repository.Store = (*Store)(nil)
