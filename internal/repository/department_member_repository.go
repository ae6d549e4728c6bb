package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DepartmentMemberRepository manages staff-to-department memberships.
// Memberships are soft-deleted: Deactivate flips the active flag and Upsert
// reactivates an existing row instead of inserting a duplicate.
type DepartmentMemberRepository interface {
	Upsert(ctx context.Context, member *domain.DepartmentMember) error
	Deactivate(ctx context.Context, departmentID, userID string) error
	GetActive(ctx context.Context, departmentID, userID string) (*domain.DepartmentMember, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.DepartmentMember, error)
	ListActiveDepartmentIDs(ctx context.Context, userID string) ([]string, error)
}

type departmentMemberRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentMemberRepository builds the repository.
func NewDepartmentMemberRepository(pool *pgxpool.Pool) DepartmentMemberRepository {
	return &departmentMemberRepository{pool: pool}
}

func (r *departmentMemberRepository) Upsert(ctx context.Context, member *domain.DepartmentMember) error {
	const query = `
        INSERT INTO department_members (department_id, user_id, member_role, active)
        VALUES ($1,$2,$3,TRUE)
        ON CONFLICT (department_id, user_id)
        DO UPDATE SET member_role=EXCLUDED.member_role, active=TRUE, updated_at=NOW()
        RETURNING id, active, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		member.DepartmentID,
		member.UserID,
		member.MemberRole,
	).Scan(&member.ID, &member.Active, &member.CreatedAt, &member.UpdatedAt)
}

func (r *departmentMemberRepository) Deactivate(ctx context.Context, departmentID, userID string) error {
	const query = `
        UPDATE department_members SET active=FALSE, updated_at=NOW()
        WHERE department_id=$1 AND user_id=$2 AND active=TRUE`
	cmd, err := r.pool.Exec(ctx, query, departmentID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentMemberRepository) GetActive(ctx context.Context, departmentID, userID string) (*domain.DepartmentMember, error) {
	const query = `
        SELECT id, department_id, user_id, member_role, active, created_at, updated_at
        FROM department_members
        WHERE department_id=$1 AND user_id=$2 AND active=TRUE`
	var member domain.DepartmentMember
	if err := r.pool.QueryRow(ctx, query, departmentID, userID).Scan(
		&member.ID,
		&member.DepartmentID,
		&member.UserID,
		&member.MemberRole,
		&member.Active,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *departmentMemberRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.DepartmentMember, error) {
	const query = `
        SELECT id, department_id, user_id, member_role, active, created_at, updated_at
        FROM department_members WHERE department_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DepartmentMember
	for rows.Next() {
		var member domain.DepartmentMember
		if err := rows.Scan(
			&member.ID,
			&member.DepartmentID,
			&member.UserID,
			&member.MemberRole,
			&member.Active,
			&member.CreatedAt,
			&member.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

// ListActiveDepartmentIDs returns departments where the user holds an active
// membership in an active department.
func (r *departmentMemberRepository) ListActiveDepartmentIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `
        SELECT m.department_id
        FROM department_members m
        JOIN departments d ON d.id = m.department_id
        WHERE m.user_id=$1 AND m.active=TRUE AND d.is_active=TRUE`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
