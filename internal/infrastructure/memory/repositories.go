package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.s.lock()()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByCPF(_ context.Context, cpf string) (*entity.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.users {
		if u.CPF == cpf {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetForUpdate(ctx context.Context, id string) (*entity.User, error) {
	// The store mutex already serializes atomic blocks.
	return r.GetByID(ctx, id)
}

func (r *userRepo) List(_ context.Context, f repository.UserFilter) ([]entity.User, error) {
	defer r.s.lock()()
	var out []entity.User
	for _, u := range r.s.users {
		if f.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.CPF != "" && u.CPF != f.CPF {
			continue
		}
		if f.Category != "" && u.Category != f.Category {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		if f.Registration != "" && u.Registration != f.Registration {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = now()
	r.s.users[u.ID] = *u
	return nil
}

type catalogRepo struct{ s *Store }

func (r *catalogRepo) Create(_ context.Context, it *entity.CatalogItem) error {
	defer r.s.lock()()
	it.CreatedAt = now()
	it.UpdatedAt = it.CreatedAt
	r.s.items[it.ID] = *it
	return nil
}

func (r *catalogRepo) GetByID(_ context.Context, id string) (*entity.CatalogItem, error) {
	defer r.s.lock()()
	it, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *catalogRepo) GetByCode(_ context.Context, code string) (*entity.CatalogItem, error) {
	defer r.s.lock()()
	for _, it := range r.s.items {
		if it.Code == code {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *catalogRepo) GetByISBN(_ context.Context, isbn string) (*entity.CatalogItem, error) {
	defer r.s.lock()()
	for _, it := range r.s.items {
		if it.ISBN != "" && it.ISBN == isbn {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *catalogRepo) GetForUpdate(ctx context.Context, id string) (*entity.CatalogItem, error) {
	// The store mutex already serializes atomic blocks.
	return r.GetByID(ctx, id)
}

func (r *catalogRepo) List(_ context.Context, f repository.ItemFilter) ([]entity.CatalogItem, error) {
	defer r.s.lock()()
	contains := func(haystack, needle string) bool {
		return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	var out []entity.CatalogItem
	for _, it := range r.s.items {
		if !contains(it.Title, f.Title) || !contains(it.Author, f.Author) || !contains(it.Category, f.Category) {
			continue
		}
		if f.Code != "" && it.Code != f.Code {
			continue
		}
		if f.ISBN != "" && it.ISBN != f.ISBN {
			continue
		}
		if f.Available != nil && (it.AvailableCopies > 0) != *f.Available {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *catalogRepo) Update(_ context.Context, it *entity.CatalogItem) error {
	defer r.s.lock()()
	if _, ok := r.s.items[it.ID]; !ok {
		return repository.ErrNotFound
	}
	it.UpdatedAt = now()
	r.s.items[it.ID] = *it
	return nil
}

func (r *catalogRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	if _, ok := r.s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r *catalogRepo) AdjustCounters(_ context.Context, id string, dAvailable, dBorrowed int) error {
	defer r.s.lock()()
	it, ok := r.s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if it.AvailableCopies+dAvailable < 0 {
		return fmt.Errorf("catalog item %s: counter adjustment rejected", id)
	}
	it.AvailableCopies += dAvailable
	it.BorrowedCopies += dBorrowed
	it.UpdatedAt = now()
	r.s.items[id] = it
	return nil
}

func (r *catalogRepo) Stats(_ context.Context) (*entity.CatalogStats, error) {
	defer r.s.lock()()
	st := &entity.CatalogStats{}
	for _, it := range r.s.items {
		st.Titles++
		st.TotalCopies += it.TotalCopies
		st.AvailableCopies += it.AvailableCopies
		st.BorrowedCopies += it.BorrowedCopies
		if it.AvailableCopies == 0 {
			st.OutOfStock++
		}
	}
	return st, nil
}

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(_ context.Context, l *entity.Loan) error {
	defer r.s.lock()()
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	r.s.loans[l.ID] = *l
	return nil
}

func (r *loanRepo) GetByID(_ context.Context, id string) (*entity.Loan, error) {
	defer r.s.lock()()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *loanRepo) detail(l entity.Loan) entity.LoanDetail {
	d := entity.LoanDetail{Loan: l}
	if u, ok := r.s.users[l.UserID]; ok {
		user := u
		d.User = &user
	}
	if it, ok := r.s.items[l.ItemID]; ok {
		item := it
		d.Item = &item
	}
	return d
}

func (r *loanRepo) List(_ context.Context, f repository.LoanFilter) ([]entity.LoanDetail, error) {
	defer r.s.lock()()
	var out []entity.LoanDetail
	for _, l := range r.s.loans {
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.ItemID != "" && l.ItemID != f.ItemID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && l.LoanDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && l.LoanDate.After(f.To) {
			continue
		}
		out = append(out, r.detail(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *loanRepo) Update(_ context.Context, l *entity.Loan) error {
	defer r.s.lock()()
	if _, ok := r.s.loans[l.ID]; !ok {
		return repository.ErrNotFound
	}
	l.UpdatedAt = now()
	r.s.loans[l.ID] = *l
	return nil
}

// Outstanding loans still hold a copy, so the counts include rows a
// sweep has already moved to overdue.
func (r *loanRepo) CountActiveByUser(_ context.Context, userID string) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, l := range r.s.loans {
		if l.UserID == userID && l.ReturnDate == nil {
			n++
		}
	}
	return n, nil
}

func (r *loanRepo) CountActiveByItem(_ context.Context, itemID string) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, l := range r.s.loans {
		if l.ItemID == itemID && l.ReturnDate == nil {
			n++
		}
	}
	return n, nil
}

func (r *loanRepo) ListDuePast(_ context.Context, at time.Time) ([]entity.LoanDetail, error) {
	defer r.s.lock()()
	var out []entity.LoanDetail
	for _, l := range r.s.loans {
		if l.Status == entity.LoanActive && l.DueDate.Before(at) {
			out = append(out, r.detail(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *loanRepo) Stats(_ context.Context) (*entity.LoanStats, error) {
	defer r.s.lock()()
	st := &entity.LoanStats{}
	for _, l := range r.s.loans {
		st.Total++
		switch l.Status {
		case entity.LoanActive:
			st.Active++
		case entity.LoanOverdue:
			st.Overdue++
		case entity.LoanReturned:
			st.Returned++
		}
	}
	return st, nil
}

type historyRepo struct{ s *Store }

func (r *historyRepo) Create(_ context.Context, h *entity.HistoryEntry) error {
	defer r.s.lock()()
	h.ChangedAt = now()
	r.s.history = append(r.s.history, *h)
	return nil
}

func (r *historyRepo) ListByUser(_ context.Context, userID string) ([]entity.HistoryEntry, error) {
	defer r.s.lock()()
	var out []entity.HistoryEntry
	for _, h := range r.s.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	return out, nil
}
