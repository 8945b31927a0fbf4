package repository

import (
	"context"
	"errors"
	"time"

	"github.com/unilib-br/unilib/internal/domain/entity"
)

// ErrNotFound is returned by Get* methods when no record matches.
var ErrNotFound = errors.New("not found")

// UserFilter narrows user queries; zero values are ignored.
type UserFilter struct {
	Name         string
	CPF          string
	Category     entity.Category
	Active       *bool
	Registration string
}

// ItemFilter narrows catalog queries; zero values are ignored.
type ItemFilter struct {
	Title     string
	Author    string
	Category  string
	Code      string
	ISBN      string
	Available *bool
}

// LoanFilter narrows loan queries; zero values are ignored.
type LoanFilter struct {
	UserID string
	ItemID string
	Status entity.LoanStatus
	From   time.Time
	To     time.Time
}

// UserRepository defines storage operations over the User aggregate.
// GetForUpdate must row-lock the user when called inside RunAtomically;
// loan creation and deactivation both take this lock so their checks
// and writes serialize against each other.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByCPF(ctx context.Context, cpf string) (*entity.User, error)
	GetForUpdate(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context, f UserFilter) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}

// CatalogRepository defines storage operations over the CatalogItem
// aggregate. GetForUpdate must row-lock the item when called inside
// RunAtomically so concurrent counter mutations serialize.
type CatalogRepository interface {
	Create(ctx context.Context, it *entity.CatalogItem) error
	GetByID(ctx context.Context, id string) (*entity.CatalogItem, error)
	GetByCode(ctx context.Context, code string) (*entity.CatalogItem, error)
	GetByISBN(ctx context.Context, isbn string) (*entity.CatalogItem, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CatalogItem, error)
	List(ctx context.Context, f ItemFilter) ([]entity.CatalogItem, error)
	Update(ctx context.Context, it *entity.CatalogItem) error
	Delete(ctx context.Context, id string) error
	// AdjustCounters shifts available/borrowed by the given deltas and
	// fails rather than let available_copies go negative.
	AdjustCounters(ctx context.Context, id string, dAvailable, dBorrowed int) error
	Stats(ctx context.Context) (*entity.CatalogStats, error)
}

// LoanRepository defines storage operations over the Loan join entity.
type LoanRepository interface {
	Create(ctx context.Context, l *entity.Loan) error
	GetByID(ctx context.Context, id string) (*entity.Loan, error)
	List(ctx context.Context, f LoanFilter) ([]entity.LoanDetail, error)
	Update(ctx context.Context, l *entity.Loan) error
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	CountActiveByItem(ctx context.Context, itemID string) (int, error)
	// ListDuePast returns active loans whose due date precedes now,
	// enriched with user and item for notice publishing.
	ListDuePast(ctx context.Context, now time.Time) ([]entity.LoanDetail, error)
	Stats(ctx context.Context) (*entity.LoanStats, error)
}

// HistoryRepository appends and reads the immutable per-field audit log.
type HistoryRepository interface {
	Create(ctx context.Context, h *entity.HistoryEntry) error
	ListByUser(ctx context.Context, userID string) ([]entity.HistoryEntry, error)
}

// Store aggregates the repositories behind a single storage collaborator.
// RunAtomically executes fn against a Store whose mutations commit or
// roll back as one unit; it is the only place multi-aggregate writes
// (loan + item counters, user + history) are allowed.
type Store interface {
	Users() UserRepository
	Items() CatalogRepository
	Loans() LoanRepository
	History() HistoryRepository
	RunAtomically(ctx context.Context, fn func(Store) error) error
}
