package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// MembershipService manages department memberships. Mutations are admin
// gated at the route layer; removal deactivates instead of deleting so
// history attribution survives.
type MembershipService struct {
	members     repository.DepartmentMemberRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
}

// NewMembershipService constructs the service.
func NewMembershipService(members repository.DepartmentMemberRepository, departments repository.DepartmentRepository, users repository.UserRepository) *MembershipService {
	return &MembershipService{
		members:     members,
		departments: departments,
		users:       users,
	}
}

// AddMember adds or reactivates a user's membership in a department.
func (s *MembershipService) AddMember(ctx context.Context, departmentID, userID string, role domain.MemberRole) (*domain.DepartmentMember, error) {
	if role != domain.MemberRoleMember && role != domain.MemberRoleManager {
		return nil, apperrors.NewValidationError("unknown member role", map[string]any{"member_role": role})
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsStaff() {
		return nil, apperrors.NewConflict("USER_NOT_STAFF", "only staff users can join a department", map[string]any{"user_id": userID})
	}

	member := &domain.DepartmentMember{
		DepartmentID: departmentID,
		UserID:       userID,
		MemberRole:   role,
	}
	if err := s.members.Upsert(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// RemoveMember deactivates a membership.
func (s *MembershipService) RemoveMember(ctx context.Context, departmentID, userID string) error {
	if err := s.members.Deactivate(ctx, departmentID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("membership", map[string]any{"department_id": departmentID, "user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListMembers returns a department's memberships, active and deactivated.
func (s *MembershipService) ListMembers(ctx context.Context, departmentID string) ([]domain.DepartmentMember, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	result, err := s.members.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ActiveDepartments resolves the departments a user may act in: active
// memberships in active departments only.
func (s *MembershipService) ActiveDepartments(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.members.ListActiveDepartmentIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ids, nil
}
