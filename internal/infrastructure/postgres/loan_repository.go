package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
)

type LoanRepository struct {
	q querier
}

const loanColumns = `id, user_id, item_id, loan_date, due_date, return_date, status, librarian, created_at, updated_at`

func scanLoan(row pgx.Row) (*entity.Loan, error) {
	l := &entity.Loan{}
	var status string
	if err := row.Scan(&l.ID, &l.UserID, &l.ItemID, &l.LoanDate, &l.DueDate,
		&l.ReturnDate, &status, &l.Librarian, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	l.Status = entity.LoanStatus(status)
	return l, nil
}

func (r *LoanRepository) Create(ctx context.Context, l *entity.Loan) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO loans (id, user_id, item_id, loan_date, due_date, return_date, status, librarian)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, l.ID, l.UserID, l.ItemID, l.LoanDate, l.DueDate, l.ReturnDate, string(l.Status), l.Librarian)
	return row.Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*entity.Loan, error) {
	return scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
}

// detailQuery joins the referenced user and item for enriched reads.
// The item join is LEFT: loans outlive catalog removal, so the item
// side may be gone.
const detailQuery = `
	SELECT l.id, l.user_id, l.item_id, l.loan_date, l.due_date, l.return_date, l.status, l.librarian, l.created_at, l.updated_at,
	       u.id, u.name, u.cpf, u.birth_date, u.phone, u.address, u.category, u.email, u.registration, u.department, u.active, u.created_at, u.updated_at,
	       i.id, i.code, i.isbn, i.title, i.author, i.category, i.total_copies, i.available_copies, i.borrowed_copies, i.cover_url, i.created_at, i.updated_at
	FROM loans l
	JOIN users u ON u.id = l.user_id
	LEFT JOIN catalog_items i ON i.id = l.item_id`

func scanLoanDetail(rows pgx.Rows) (*entity.LoanDetail, error) {
	d := &entity.LoanDetail{User: &entity.User{}}
	var loanStatus, userCategory string
	var (
		itemID, itemCode, itemISBN, itemTitle, itemAuthor, itemCategory, itemCover *string
		itemTotal, itemAvailable, itemBorrowed                                    *int
		itemCreated, itemUpdated                                                  *time.Time
	)
	if err := rows.Scan(
		&d.ID, &d.UserID, &d.ItemID, &d.LoanDate, &d.DueDate, &d.ReturnDate, &loanStatus, &d.Librarian, &d.CreatedAt, &d.UpdatedAt,
		&d.User.ID, &d.User.Name, &d.User.CPF, &d.User.BirthDate, &d.User.Phone, &d.User.Address, &userCategory,
		&d.User.Email, &d.User.Registration, &d.User.Department, &d.User.Active, &d.User.CreatedAt, &d.User.UpdatedAt,
		&itemID, &itemCode, &itemISBN, &itemTitle, &itemAuthor, &itemCategory,
		&itemTotal, &itemAvailable, &itemBorrowed, &itemCover, &itemCreated, &itemUpdated,
	); err != nil {
		return nil, err
	}
	d.Status = entity.LoanStatus(loanStatus)
	d.User.Category = entity.Category(userCategory)
	if itemID != nil {
		d.Item = &entity.CatalogItem{
			ID:              *itemID,
			Code:            *itemCode,
			ISBN:            *itemISBN,
			Title:           *itemTitle,
			Author:          *itemAuthor,
			Category:        *itemCategory,
			TotalCopies:     *itemTotal,
			AvailableCopies: *itemAvailable,
			BorrowedCopies:  *itemBorrowed,
			CoverURL:        *itemCover,
			CreatedAt:       *itemCreated,
			UpdatedAt:       *itemUpdated,
		}
	}
	return d, nil
}

func (r *LoanRepository) List(ctx context.Context, f repository.LoanFilter) ([]entity.LoanDetail, error) {
	query := detailQuery + ` WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return "$" + strconv.Itoa(n)
	}
	if f.UserID != "" {
		query += ` AND l.user_id = ` + arg(f.UserID)
	}
	if f.ItemID != "" {
		query += ` AND l.item_id = ` + arg(f.ItemID)
	}
	if f.Status != "" {
		query += ` AND l.status = ` + arg(string(f.Status))
	}
	if !f.From.IsZero() {
		query += ` AND l.loan_date >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		query += ` AND l.loan_date <= ` + arg(f.To)
	}
	query += ` ORDER BY l.created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.LoanDetail
	for rows.Next() {
		d, err := scanLoanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *LoanRepository) Update(ctx context.Context, l *entity.Loan) error {
	l.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, `
		UPDATE loans
		SET due_date = $1, return_date = $2, status = $3, librarian = $4, updated_at = $5
		WHERE id = $6
	`, l.DueDate, l.ReturnDate, string(l.Status), l.Librarian, l.UpdatedAt, l.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Outstanding loans still hold a copy, so the counts include rows a
// sweep has already moved to overdue.
func (r *LoanRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM loans WHERE user_id = $1 AND return_date IS NULL`, userID).Scan(&n)
	return n, err
}

func (r *LoanRepository) CountActiveByItem(ctx context.Context, itemID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM loans WHERE item_id = $1 AND return_date IS NULL`, itemID).Scan(&n)
	return n, err
}

func (r *LoanRepository) ListDuePast(ctx context.Context, now time.Time) ([]entity.LoanDetail, error) {
	rows, err := r.q.Query(ctx, detailQuery+` WHERE l.status = 'active' AND l.due_date < $1 ORDER BY l.due_date`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.LoanDetail
	for rows.Next() {
		d, err := scanLoanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *LoanRepository) Stats(ctx context.Context) (*entity.LoanStats, error) {
	st := &entity.LoanStats{}
	row := r.q.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'overdue'),
		       COUNT(*) FILTER (WHERE status = 'returned')
		FROM loans
	`)
	if err := row.Scan(&st.Total, &st.Active, &st.Overdue, &st.Returned); err != nil {
		return nil, err
	}
	return st, nil
}

var _ repository.LoanRepository = (*LoanRepository)(nil)
