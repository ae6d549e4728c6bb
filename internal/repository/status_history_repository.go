package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// StatusHistoryRepository reads the append-only transition log. Writes go
// through ComplaintRepository so they share the mutation's transaction.
type StatusHistoryRepository interface {
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error) {
	const query = `
        SELECT id, complaint_id, from_status, to_status, changed_by, note, created_at
        FROM status_history WHERE complaint_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistory
	for rows.Next() {
		var entry domain.StatusHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.ChangedBy,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
