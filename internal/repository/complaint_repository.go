package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintFilter captures listing parameters. DepartmentIDs scopes staff
// listings to the departments the actor belongs to.
type ComplaintFilter struct {
	CitizenID     *string
	DepartmentIDs []string
	Statuses      []domain.ComplaintStatus
	Limit         int
	Offset        int
}

// ComplaintRepository encapsulates complaint persistence. The mutating
// methods commit the aggregate change and its history entry in a single
// transaction; UpdateStatusWithHistory additionally compares against the
// expected current status so concurrent writers lose cleanly.
type ComplaintRepository interface {
	CreateWithHistory(ctx context.Context, complaint *domain.Complaint, history *domain.StatusHistory) error
	UpdateStatusWithHistory(ctx context.Context, complaint *domain.Complaint, from domain.ComplaintStatus, history *domain.StatusHistory) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTrackingCode(ctx context.Context, code string) (*domain.Complaint, error)
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	GetTrackingView(ctx context.Context, code string) (*domain.TrackingView, error)
	ListResolvedFeed(ctx context.Context, limit, offset int) ([]domain.FeedItem, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) CreateWithHistory(ctx context.Context, complaint *domain.Complaint, history *domain.StatusHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertComplaint = `
        INSERT INTO complaints (tracking_code, citizen_user_id, category_id, department_id, title, description, status, latitude, longitude)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertComplaint,
		complaint.TrackingCode,
		complaint.CitizenID,
		complaint.CategoryID,
		complaint.DepartmentID,
		complaint.Title,
		complaint.Description,
		complaint.Status,
		complaint.Latitude,
		complaint.Longitude,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt); err != nil {
		return err
	}

	history.ComplaintID = complaint.ID
	if err := insertHistoryTx(ctx, tx, history); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *complaintRepository) UpdateStatusWithHistory(ctx context.Context, complaint *domain.Complaint, from domain.ComplaintStatus, history *domain.StatusHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateComplaint = `
        UPDATE complaints
        SET status=$1, public_answer=$2, resolved_at=$3, closed_at=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateComplaint,
		complaint.Status,
		complaint.PublicAnswer,
		complaint.ResolvedAt,
		complaint.ClosedAt,
		complaint.ID,
		from,
	).Scan(&complaint.UpdatedAt); err != nil {
		return err
	}

	history.ComplaintID = complaint.ID
	if err := insertHistoryTx(ctx, tx, history); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertHistoryTx(ctx context.Context, tx pgx.Tx, history *domain.StatusHistory) error {
	const query = `
        INSERT INTO status_history (complaint_id, from_status, to_status, changed_by, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		history.ComplaintID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Note,
	).Scan(&history.ID, &history.CreatedAt)
}

const complaintColumns = `id, tracking_code, citizen_user_id, category_id, department_id,
               title, description, status, public_answer, latitude, longitude,
               created_at, updated_at, resolved_at, closed_at`

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) GetByTrackingCode(ctx context.Context, code string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE tracking_code=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *complaintRepository) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM complaints WHERE tracking_code=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&complaint.ID,
		&complaint.TrackingCode,
		&complaint.CitizenID,
		&complaint.CategoryID,
		&complaint.DepartmentID,
		&complaint.Title,
		&complaint.Description,
		&complaint.Status,
		&complaint.PublicAnswer,
		&complaint.Latitude,
		&complaint.Longitude,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.ResolvedAt,
		&complaint.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CitizenID != nil {
		args = append(args, *filter.CitizenID)
		clauses = append(clauses, fmt.Sprintf("citizen_user_id=$%d", len(args)))
	}
	if len(filter.DepartmentIDs) > 0 {
		placeholders := make([]string, len(filter.DepartmentIDs))
		for i, id := range filter.DepartmentIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("department_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := rows.Scan(
			&complaint.ID,
			&complaint.TrackingCode,
			&complaint.CitizenID,
			&complaint.CategoryID,
			&complaint.DepartmentID,
			&complaint.Title,
			&complaint.Description,
			&complaint.Status,
			&complaint.PublicAnswer,
			&complaint.Latitude,
			&complaint.Longitude,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
			&complaint.ResolvedAt,
			&complaint.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}

func (r *complaintRepository) GetTrackingView(ctx context.Context, code string) (*domain.TrackingView, error) {
	const query = `
        SELECT c.tracking_code, c.status, COALESCE(d.name, '')
        FROM complaints c
        LEFT JOIN departments d ON d.id = c.department_id
        WHERE c.tracking_code=$1`
	var view domain.TrackingView
	if err := r.pool.QueryRow(ctx, query, code).Scan(
		&view.TrackingCode,
		&view.Status,
		&view.DepartmentName,
	); err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *complaintRepository) ListResolvedFeed(ctx context.Context, limit, offset int) ([]domain.FeedItem, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT c.tracking_code, c.title, cat.name, COALESCE(d.name, ''), c.status,
               c.resolved_at, c.public_answer,
               COALESCE(AVG(r.stars), 0)::float8, COUNT(r.id)::int
        FROM complaints c
        JOIN categories cat ON cat.id = c.category_id
        LEFT JOIN departments d ON d.id = c.department_id
        LEFT JOIN ratings r ON r.complaint_id = c.id
        WHERE c.status = 'RESOLVED'
        GROUP BY c.id, cat.name, d.name
        ORDER BY c.resolved_at DESC
        LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FeedItem
	for rows.Next() {
		var item domain.FeedItem
		if err := rows.Scan(
			&item.TrackingCode,
			&item.Title,
			&item.CategoryName,
			&item.DepartmentName,
			&item.Status,
			&item.ResolvedAt,
			&item.PublicAnswer,
			&item.RatingAverage,
			&item.RatingCount,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
