package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
)

type CatalogRepository struct {
	q querier
}

const itemColumns = `id, code, isbn, title, author, category, total_copies, available_copies, borrowed_copies, cover_url, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.CatalogItem, error) {
	it := &entity.CatalogItem{}
	if err := row.Scan(&it.ID, &it.Code, &it.ISBN, &it.Title, &it.Author, &it.Category,
		&it.TotalCopies, &it.AvailableCopies, &it.BorrowedCopies, &it.CoverURL,
		&it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

func (r *CatalogRepository) Create(ctx context.Context, it *entity.CatalogItem) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO catalog_items (id, code, isbn, title, author, category, total_copies, available_copies, borrowed_copies, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, it.ID, it.Code, it.ISBN, it.Title, it.Author, it.Category,
		it.TotalCopies, it.AvailableCopies, it.BorrowedCopies, it.CoverURL)
	return row.Scan(&it.CreatedAt, &it.UpdatedAt)
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*entity.CatalogItem, error) {
	return scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id))
}

func (r *CatalogRepository) GetByCode(ctx context.Context, code string) (*entity.CatalogItem, error) {
	return scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE code = $1`, code))
}

func (r *CatalogRepository) GetByISBN(ctx context.Context, isbn string) (*entity.CatalogItem, error) {
	return scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE isbn = $1`, isbn))
}

// GetForUpdate takes a row lock on the item. Only meaningful inside
// RunAtomically; the lock serializes concurrent counter mutations.
func (r *CatalogRepository) GetForUpdate(ctx context.Context, id string) (*entity.CatalogItem, error) {
	return scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1 FOR UPDATE`, id))
}

func (r *CatalogRepository) List(ctx context.Context, f repository.ItemFilter) ([]entity.CatalogItem, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return "$" + strconv.Itoa(n)
	}
	if f.Title != "" {
		query += ` AND title ILIKE ` + arg("%"+f.Title+"%")
	}
	if f.Author != "" {
		query += ` AND author ILIKE ` + arg("%"+f.Author+"%")
	}
	if f.Category != "" {
		query += ` AND category ILIKE ` + arg("%"+f.Category+"%")
	}
	if f.Code != "" {
		query += ` AND code = ` + arg(f.Code)
	}
	if f.ISBN != "" {
		query += ` AND isbn = ` + arg(f.ISBN)
	}
	if f.Available != nil {
		if *f.Available {
			query += ` AND available_copies > 0`
		} else {
			query += ` AND available_copies <= 0`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.CatalogItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) Update(ctx context.Context, it *entity.CatalogItem) error {
	it.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, `
		UPDATE catalog_items
		SET code = $1, isbn = $2, title = $3, author = $4, category = $5,
		    total_copies = $6, available_copies = $7, borrowed_copies = $8,
		    cover_url = $9, updated_at = $10
		WHERE id = $11
	`, it.Code, it.ISBN, it.Title, it.Author, it.Category,
		it.TotalCopies, it.AvailableCopies, it.BorrowedCopies, it.CoverURL, it.UpdatedAt, it.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AdjustCounters shifts the counter pair in one statement. The
// available_copies guard keeps the column from going negative even if a
// caller skipped the row lock.
func (r *CatalogRepository) AdjustCounters(ctx context.Context, id string, dAvailable, dBorrowed int) error {
	res, err := r.q.Exec(ctx, `
		UPDATE catalog_items
		SET available_copies = available_copies + $1,
		    borrowed_copies  = borrowed_copies + $2,
		    updated_at       = now()
		WHERE id = $3 AND available_copies + $1 >= 0
	`, dAvailable, dBorrowed, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("catalog item %s: counter adjustment rejected", id)
	}
	return nil
}

func (r *CatalogRepository) Stats(ctx context.Context) (*entity.CatalogStats, error) {
	st := &entity.CatalogStats{}
	row := r.q.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_copies), 0),
		       COALESCE(SUM(available_copies), 0),
		       COALESCE(SUM(borrowed_copies), 0),
		       COUNT(*) FILTER (WHERE available_copies = 0)
		FROM catalog_items
	`)
	if err := row.Scan(&st.Titles, &st.TotalCopies, &st.AvailableCopies, &st.BorrowedCopies, &st.OutOfStock); err != nil {
		return nil, err
	}
	return st, nil
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)
