package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RatingRepository stores outcome ratings, one per citizen per complaint.
type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) error
	GetAggregate(ctx context.Context, complaintID string) (*domain.RatingAggregate, error)
}

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository builds the repository.
func NewRatingRepository(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	const query = `
        INSERT INTO ratings (complaint_id, citizen_user_id, stars, comment)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (complaint_id, citizen_user_id)
        DO UPDATE SET stars=EXCLUDED.stars, comment=EXCLUDED.comment, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rating.ComplaintID,
		rating.CitizenID,
		rating.Stars,
		rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
}

func (r *ratingRepository) GetAggregate(ctx context.Context, complaintID string) (*domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(AVG(stars), 0)::float8, COUNT(id)::int
        FROM ratings WHERE complaint_id=$1`
	var agg domain.RatingAggregate
	if err := r.pool.QueryRow(ctx, query, complaintID).Scan(&agg.Average, &agg.Count); err != nil {
		return nil, err
	}
	return &agg, nil
}
