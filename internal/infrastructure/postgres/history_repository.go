package postgres

import (
	"context"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
)

type HistoryRepository struct {
	q querier
}

func (r *HistoryRepository) Create(ctx context.Context, h *entity.HistoryEntry) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO user_history (id, user_id, field, old_value, new_value, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING changed_at
	`, h.ID, h.UserID, h.Field, h.OldValue, h.NewValue, h.ChangedBy)
	return row.Scan(&h.ChangedAt)
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID string) ([]entity.HistoryEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, field, old_value, new_value, changed_by, changed_at
		FROM user_history
		WHERE user_id = $1
		ORDER BY changed_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.HistoryEntry
	for rows.Next() {
		var h entity.HistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.Field, &h.OldValue, &h.NewValue, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

var _ repository.HistoryRepository = (*HistoryRepository)(nil)
