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

type UserRepository struct {
	q querier
}

const userColumns = `id, name, cpf, birth_date, phone, address, category, email, registration, department, active, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var category string
	if err := row.Scan(&u.ID, &u.Name, &u.CPF, &u.BirthDate, &u.Phone, &u.Address,
		&category, &u.Email, &u.Registration, &u.Department, &u.Active,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Category = entity.Category(category)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO users (id, name, cpf, birth_date, phone, address, category, email, registration, department, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.CPF, u.BirthDate, u.Phone, u.Address, string(u.Category),
		u.Email, u.Registration, u.Department, u.Active)
	return row.Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByCPF(ctx context.Context, cpf string) (*entity.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE cpf = $1`, cpf))
}

// GetForUpdate locks the user row for the rest of the transaction.
func (r *UserRepository) GetForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *UserRepository) List(ctx context.Context, f repository.UserFilter) ([]entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return "$" + strconv.Itoa(n)
	}
	if f.Name != "" {
		query += ` AND name ILIKE ` + arg("%"+f.Name+"%")
	}
	if f.CPF != "" {
		query += ` AND cpf = ` + arg(f.CPF)
	}
	if f.Category != "" {
		query += ` AND category = ` + arg(string(f.Category))
	}
	if f.Active != nil {
		query += ` AND active = ` + arg(*f.Active)
	}
	if f.Registration != "" {
		query += ` AND registration = ` + arg(f.Registration)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, `
		UPDATE users
		SET name = $1, birth_date = $2, phone = $3, address = $4, category = $5,
		    email = $6, registration = $7, department = $8, active = $9, updated_at = $10
		WHERE id = $11
	`, u.Name, u.BirthDate, u.Phone, u.Address, string(u.Category),
		u.Email, u.Registration, u.Department, u.Active, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
