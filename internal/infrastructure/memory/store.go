// Package memory provides an in-process repository.Store used by the
// service tests and by local runs without Postgres. A single mutex
// serializes atomic blocks, which gives the same observable ordering
// guarantees as the row-locked Postgres implementation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
)

type Store struct {
	mu      sync.Mutex
	inTx    bool
	users   map[string]entity.User
	items   map[string]entity.CatalogItem
	loans   map[string]entity.Loan
	history []entity.HistoryEntry
}

func NewStore() *Store {
	return &Store{
		users: map[string]entity.User{},
		items: map[string]entity.CatalogItem{},
		loans: map[string]entity.Loan{},
	}
}

func (s *Store) Users() repository.UserRepository      { return &userRepo{s} }
func (s *Store) Items() repository.CatalogRepository   { return &catalogRepo{s} }
func (s *Store) Loans() repository.LoanRepository      { return &loanRepo{s} }
func (s *Store) History() repository.HistoryRepository { return &historyRepo{s} }

// RunAtomically serializes the block under the store mutex and restores
// a snapshot of all tables if fn fails, so partial mutations are never
// observed.
func (s *Store) RunAtomically(_ context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapUsers := copyMap(s.users)
	snapItems := copyMap(s.items)
	snapLoans := copyMap(s.loans)
	snapHistory := append([]entity.HistoryEntry(nil), s.history...)

	tx := &Store{inTx: true, users: s.users, items: s.items, loans: s.loans, history: s.history}
	if err := fn(tx); err != nil {
		s.users = snapUsers
		s.items = snapItems
		s.loans = snapLoans
		s.history = snapHistory
		return err
	}
	s.history = tx.history
	return nil
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func now() time.Time { return time.Now() }

var _ repository.Store = (*Store)(nil)
