package services

import (
	"context"
	"testing"
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

type enrollmentFixture struct {
	svc      *EnrollmentService
	requests *mockEnrollmentStore
	courses  *mockCourseStore
	sink     *mockNotificationSink
	teacher  *auth.Principal
	student  *auth.Principal
	now      time.Time
}

func setupEnrollmentTest(t *testing.T) *enrollmentFixture {
	t.Helper()

	courses := newMockCourseStore()
	requests := newMockEnrollmentStore()
	sink := &mockNotificationSink{}
	relations := &mockRelationSource{parents: map[int64][]int64{}}

	svc := NewEnrollmentService(requests, courses, auth.NewPolicy(), testDispatcher(sink, &mockPusher{}, relations, courses, newMockGradeStore()))

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	courses.courses[1] = &models.Course{ID: 1, Name: "Algebra", TeacherID: 10}

	return &enrollmentFixture{
		svc:      svc,
		requests: requests,
		courses:  courses,
		sink:     sink,
		teacher:  &auth.Principal{ID: 10, Role: models.RoleTeacher},
		student:  &auth.Principal{ID: 100, Role: models.RoleStudent},
		now:      now,
	}
}

func TestEnrollmentCreate(t *testing.T) {
	f := setupEnrollmentTest(t)

	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1, Notes: "please"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if request.Status != models.EnrollmentPending {
		t.Errorf("status = %s, want pending", request.Status)
	}
	if !request.RequestDate.Equal(f.now) {
		t.Errorf("request date = %v, want %v", request.RequestDate, f.now)
	}
}

func TestEnrollmentCreateStudentsOnly(t *testing.T) {
	f := setupEnrollmentTest(t)

	_, err := f.svc.Create(context.Background(), f.teacher, &dto.CreateEnrollmentRequest{CourseID: 1})
	if apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("only students may request enrollment, got %v", err)
	}
}

func TestEnrollmentCreateAlreadyEnrolled(t *testing.T) {
	f := setupEnrollmentTest(t)
	f.courses.enrollments[1] = []int64{100}

	_, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Errorf("enrolled student should fail the precondition, got %v", err)
	}
}

func TestEnrollmentCreatePendingConflicts(t *testing.T) {
	f := setupEnrollmentTest(t)

	if _, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if apperrors.KindOf(err) != apperrors.KindConflict {
		t.Errorf("duplicate pending request should conflict, got %v", err)
	}
}

func TestEnrollmentCreateApprovedIsAbsorbing(t *testing.T) {
	f := setupEnrollmentTest(t)
	f.requests.requests[1] = &models.EnrollmentRequest{
		ID: 1, StudentID: 100, CourseID: 1, Status: models.EnrollmentApproved,
	}
	f.requests.nextID = 1

	_, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Errorf("approved request should fail the precondition, got %v", err)
	}
}

func TestEnrollmentCreateRejectedResets(t *testing.T) {
	f := setupEnrollmentTest(t)
	respondedAt := f.now.Add(-24 * time.Hour)
	responder := int64(10)
	f.requests.requests[1] = &models.EnrollmentRequest{
		ID: 1, StudentID: 100, CourseID: 1, Status: models.EnrollmentRejected,
		RequestDate: f.now.Add(-48 * time.Hour), ResponseDate: &respondedAt, ResponseBy: &responder,
	}
	f.requests.nextID = 1

	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1, Notes: "second try"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if request.ID != 1 {
		t.Errorf("rejected request should reset in place, got new id %d", request.ID)
	}
	if request.Status != models.EnrollmentPending {
		t.Errorf("status = %s, want pending", request.Status)
	}
	if request.ResponseDate != nil || request.ResponseBy != nil {
		t.Errorf("response fields should be cleared: %+v", request)
	}
	if request.Notes != "second try" {
		t.Errorf("notes = %q, want second try", request.Notes)
	}
}

func TestEnrollmentDecideApprove(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	decided, err := f.svc.Decide(context.Background(), f.teacher, request.ID, &dto.DecideEnrollmentRequest{Approve: true})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != models.EnrollmentApproved {
		t.Errorf("status = %s, want approved", decided.Status)
	}

	enrolled, err := f.courses.IsEnrolled(context.Background(), 1, 100)
	if err != nil || !enrolled {
		t.Errorf("approval should put the student on the roster (enrolled=%v, err=%v)", enrolled, err)
	}

	recipients := f.sink.recipients()
	if !containsID(recipients, 100) {
		t.Errorf("the student should be notified of the decision, got %v", recipients)
	}
}

func TestEnrollmentDecideReject(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	decided, err := f.svc.Decide(context.Background(), f.teacher, request.ID, &dto.DecideEnrollmentRequest{Notes: "class is full"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != models.EnrollmentRejected {
		t.Errorf("status = %s, want rejected", decided.Status)
	}
	if decided.Notes != "class is full" {
		t.Errorf("notes = %q, want class is full", decided.Notes)
	}

	enrolled, _ := f.courses.IsEnrolled(context.Background(), 1, 100)
	if enrolled {
		t.Error("rejection must not touch the roster")
	}
}

func TestEnrollmentDecideTwiceFails(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Decide(context.Background(), f.teacher, request.ID, &dto.DecideEnrollmentRequest{Approve: true}); err != nil {
		t.Fatalf("first decide: %v", err)
	}

	_, err = f.svc.Decide(context.Background(), f.teacher, request.ID, &dto.DecideEnrollmentRequest{Approve: false})
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Errorf("deciding a decided request should fail the precondition, got %v", err)
	}
}

func TestEnrollmentDecideForbiddenForOtherTeacher(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := &auth.Principal{ID: 11, Role: models.RoleTeacher}
	_, err = f.svc.Decide(context.Background(), other, request.ID, &dto.DecideEnrollmentRequest{Approve: true})
	if apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("non-owning teacher cannot decide, got %v", err)
	}
}

func TestEnrollmentCancel(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), f.student, request.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.requests.GetByID(context.Background(), request.ID); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("canceled request should be gone, got %v", err)
	}
}

func TestEnrollmentCancelDecidedFails(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Decide(context.Background(), f.teacher, request.ID, &dto.DecideEnrollmentRequest{Approve: true}); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	err = f.svc.Cancel(context.Background(), f.student, request.ID)
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Errorf("canceling a decided request should fail the precondition, got %v", err)
	}
}

func TestEnrollmentCancelOnlyOwn(t *testing.T) {
	f := setupEnrollmentTest(t)
	request, err := f.svc.Create(context.Background(), f.student, &dto.CreateEnrollmentRequest{CourseID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := &auth.Principal{ID: 101, Role: models.RoleStudent}
	err = f.svc.Cancel(context.Background(), other, request.ID)
	if apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("only the requesting student can cancel, got %v", err)
	}
}
