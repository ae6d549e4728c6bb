package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

type fixture struct {
	complaints  *fakeComplaintRepo
	users       *fakeUserRepo
	categories  *fakeCategoryRepo
	departments *fakeDepartmentRepo
	members     *fakeMemberRepo
	ratings     *fakeRatingRepo
	dispatcher  *capturingDispatcher
	service     *ComplaintService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	deptID := "dept-1"
	inactiveDeptID := "dept-inactive"
	departments := newFakeDepartmentRepo(
		domain.Department{ID: deptID, Name: "Roads", IsActive: true},
		domain.Department{ID: inactiveDeptID, Name: "Archived", IsActive: false},
	)
	users := newFakeUserRepo(
		domain.User{ID: "citizen-1", Name: "Mina", Roles: []domain.Role{domain.RoleCitizen}, Enabled: true},
		domain.User{ID: "citizen-2", Name: "Omid", Roles: []domain.Role{domain.RoleCitizen}, Enabled: true},
		domain.User{ID: "agent-1", Name: "Sara", Roles: []domain.Role{domain.RoleAgent}, Enabled: true},
		domain.User{ID: "agent-outsider", Name: "Reza", Roles: []domain.Role{domain.RoleAgent}, Enabled: true},
		domain.User{ID: "agent-disabled", Name: "Nima", Roles: []domain.Role{domain.RoleAgent}, Enabled: false},
		domain.User{ID: "admin-1", Name: "Lena", Roles: []domain.Role{domain.RoleAdmin}, Enabled: true},
	)
	noDept := "cat-nodept"
	categories := newFakeCategoryRepo(
		domain.Category{ID: "cat-1", Name: "Potholes", DefaultDepartmentID: &deptID, IsActive: true},
		domain.Category{ID: "cat-inactive", Name: "Retired", DefaultDepartmentID: &deptID, IsActive: false},
		domain.Category{ID: noDept, Name: "Unrouted", IsActive: true},
		domain.Category{ID: "cat-dead-dept", Name: "Orphaned", DefaultDepartmentID: &inactiveDeptID, IsActive: true},
	)
	members := newFakeMemberRepo(departments)
	require.NoError(t, members.Upsert(context.Background(), &domain.DepartmentMember{
		DepartmentID: deptID,
		UserID:       "agent-1",
		MemberRole:   domain.MemberRoleMember,
	}))

	complaints := newFakeComplaintRepo()
	ratings := newFakeRatingRepo()
	dispatcher := &capturingDispatcher{}

	svc := NewComplaintService(ComplaintDependencies{
		ComplaintRepo:  complaints,
		HistoryRepo:    complaints,
		UserRepo:       users,
		CategoryRepo:   categories,
		DepartmentRepo: departments,
		MemberRepo:     members,
		RatingRepo:     ratings,
		Dispatcher:     dispatcher,
	})

	return &fixture{
		complaints:  complaints,
		users:       users,
		categories:  categories,
		departments: departments,
		members:     members,
		ratings:     ratings,
		dispatcher:  dispatcher,
		service:     svc,
	}
}

func (f *fixture) fileComplaint(t *testing.T) *domain.Complaint {
	t.Helper()
	complaint, err := f.service.CreateComplaint(context.Background(), "citizen-1", ComplaintCreateInput{
		CategoryID:  "cat-1",
		Title:       "Pothole on Elm Street",
		Description: "Deep pothole near the crossing.",
	})
	require.NoError(t, err)
	return complaint
}

func strptr(s string) *string { return &s }

func TestChangeStatusFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)

	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus:     domain.StatusResolved,
		PublicAnswer: strptr("The pothole has been repaired."),
	}))
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusClosed,
		Note:     strptr("Confirmed by inspection."),
	}))

	current, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, current.Status)
	require.NotNil(t, current.ResolvedAt)
	require.NotNil(t, current.ClosedAt)
	require.NotNil(t, current.PublicAnswer)
	assert.Equal(t, "The pothole has been repaired.", *current.PublicAnswer)

	history, err := f.complaints.ListByComplaint(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, domain.StatusNew, history[0].ToStatus)
	assert.Equal(t, domain.StatusClosed, history[3].ToStatus)

	err = f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{ToStatus: domain.StatusInReview})
	assert.Equal(t, "COMPLAINT_ALREADY_CLOSED", apperrors.CodeOf(err))

	history, err = f.complaints.ListByComplaint(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4, "rejected transition must not append history")
}

func TestChangeStatusSkippingReviewRejected(t *testing.T) {
	f := newFixture(t)
	complaint := f.fileComplaint(t)

	err := f.service.ChangeStatus(context.Background(), "agent-1", complaint.ID, StatusChangeInput{
		ToStatus:     domain.StatusResolved,
		PublicAnswer: strptr("done"),
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", apperrors.CodeOf(err))

	current, getErr := f.complaints.GetByID(context.Background(), complaint.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusNew, current.Status)
}

func TestChangeStatusResolvedRequiresAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))

	for _, answer := range []*string{nil, strptr(""), strptr("   ")} {
		err := f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
			ToStatus:     domain.StatusResolved,
			PublicAnswer: answer,
		})
		assert.Equal(t, "PUBLIC_ANSWER_REQUIRED_ON_RESOLVED", apperrors.CodeOf(err))
	}

	current, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInReview, current.Status)
	assert.Nil(t, current.ResolvedAt)
}

func TestChangeStatusAnswerOnlyAllowedOnResolve(t *testing.T) {
	f := newFixture(t)
	complaint := f.fileComplaint(t)

	err := f.service.ChangeStatus(context.Background(), "agent-1", complaint.ID, StatusChangeInput{
		ToStatus:     domain.StatusInReview,
		PublicAnswer: strptr("not yet"),
	})
	assert.Equal(t, "PUBLIC_ANSWER_ONLY_ALLOWED_ON_RESOLVED", apperrors.CodeOf(err))
}

func TestChangeStatusAnswerIsTrimmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus:     domain.StatusResolved,
		PublicAnswer: strptr("  fixed  "),
	}))

	current, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	require.NotNil(t, current.PublicAnswer)
	assert.Equal(t, "fixed", *current.PublicAnswer)
}

func TestChangeStatusAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)

	cases := []struct {
		name     string
		actorID  string
		wantCode string
	}{
		{name: "citizen cannot change status", actorID: "citizen-1", wantCode: "ONLY_STAFF_CAN_CHANGE_STATUS"},
		{name: "disabled agent cannot change status", actorID: "agent-disabled", wantCode: "ONLY_STAFF_CAN_CHANGE_STATUS"},
		{name: "agent outside department is rejected", actorID: "agent-outsider", wantCode: "NOT_A_MEMBER_OF_THIS_DEPARTMENT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.service.ChangeStatus(ctx, tc.actorID, complaint.ID, StatusChangeInput{
				ToStatus: domain.StatusInReview,
			})
			assert.Equal(t, tc.wantCode, apperrors.CodeOf(err))
		})
	}

	require.NoError(t, f.service.ChangeStatus(ctx, "admin-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}), "admin bypasses department membership")
}

func TestChangeStatusDeactivatedMemberRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)

	require.NoError(t, f.members.Deactivate(ctx, "dept-1", "agent-1"))
	err := f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	})
	assert.Equal(t, "NOT_A_MEMBER_OF_THIS_DEPARTMENT", apperrors.CodeOf(err))

	// reactivation restores the permission
	require.NoError(t, f.members.Upsert(ctx, &domain.DepartmentMember{
		DepartmentID: "dept-1",
		UserID:       "agent-1",
		MemberRole:   domain.MemberRoleMember,
	}))
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))
}

func TestChangeStatusComplaintWithoutDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)

	stored := f.complaints.complaints[complaint.ID]
	stored.DepartmentID = nil
	f.complaints.complaints[complaint.ID] = stored

	err := f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	})
	assert.Equal(t, "COMPLAINT_HAS_NO_DEPARTMENT", apperrors.CodeOf(err))

	require.NoError(t, f.service.ChangeStatus(ctx, "admin-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}), "admin may act on unrouted complaints")
}

func TestChangeStatusUnknownTargetRejected(t *testing.T) {
	f := newFixture(t)
	complaint := f.fileComplaint(t)

	err := f.service.ChangeStatus(context.Background(), "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.ComplaintStatus("ARCHIVED"),
	})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.CodeOf(err))
}

func TestChangeStatusConcurrentWriterLoses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)

	// a competing writer moves the row between this actor's read and write;
	// the optimistic check misses and the loser sees the fresh state
	f.complaints.afterGet = func() {
		f.complaints.mu.Lock()
		stored := f.complaints.complaints[complaint.ID]
		stored.Status = domain.StatusInReview
		f.complaints.complaints[complaint.ID] = stored
		f.complaints.mu.Unlock()
	}

	err := f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", apperrors.CodeOf(err))

	history, histErr := f.complaints.ListByComplaint(ctx, complaint.ID)
	require.NoError(t, histErr)
	assert.Len(t, history, 1, "losing writer must not append history")
}

func TestChangeStatusConcurrentCloseWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)
	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))

	f.complaints.afterGet = func() {
		f.complaints.mu.Lock()
		stored := f.complaints.complaints[complaint.ID]
		stored.Status = domain.StatusClosed
		f.complaints.complaints[complaint.ID] = stored
		f.complaints.mu.Unlock()
	}

	err := f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus:     domain.StatusResolved,
		PublicAnswer: strptr("done"),
	})
	assert.Equal(t, "COMPLAINT_ALREADY_CLOSED", apperrors.CodeOf(err))
}

func TestChangeStatusPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)

	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))

	published := f.dispatcher.events()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventComplaintCreated, published[0].Type)
	assert.Equal(t, events.EventComplaintStatusChanged, published[1].Type)

	payload, ok := published[1].Payload.(events.ComplaintStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, "citizen-1", payload.CitizenID)
	assert.Equal(t, domain.StatusNew, payload.OldStatus)
	assert.Equal(t, domain.StatusInReview, payload.NewStatus)
}

func TestChangeStatusPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	complaint := f.fileComplaint(t)
	f.dispatcher.publishErr = events.ErrQueueFull

	require.NoError(t, f.service.ChangeStatus(ctx, "agent-1", complaint.ID, StatusChangeInput{
		ToStatus: domain.StatusInReview,
	}))

	current, err := f.complaints.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInReview, current.Status)
}

func TestChangeStatusUnknownComplaint(t *testing.T) {
	f := newFixture(t)
	err := f.service.ChangeStatus(context.Background(), "agent-1", "missing", StatusChangeInput{
		ToStatus: domain.StatusInReview,
	})
	assert.Equal(t, "NOT_FOUND", apperrors.CodeOf(err))
}
