package auth

import (
	"testing"
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

var (
	admin   = &Principal{ID: 1, Role: models.RoleAdmin}
	teacher = &Principal{ID: 10, Role: models.RoleTeacher}
	student = &Principal{ID: 100, Role: models.RoleStudent}
	parent  = &Principal{ID: 200, Role: models.RoleParent, Children: []int64{100}}
)

func ownedCourse() *models.Course {
	return &models.Course{ID: 5, TeacherID: teacher.ID}
}

func otherCourse() *models.Course {
	return &models.Course{ID: 6, TeacherID: 999}
}

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v failure, got nil", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("expected kind %v, got %v (%v)", kind, got, err)
	}
}

func wantAllowed(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
}

func TestCourseCreate(t *testing.T) {
	p := NewPolicy()
	wantAllowed(t, p.CourseCreate(admin))
	wantAllowed(t, p.CourseCreate(teacher))
	wantKind(t, p.CourseCreate(student), apperrors.KindForbidden)
	wantKind(t, p.CourseCreate(parent), apperrors.KindForbidden)
}

func TestCourseUpdateOwnership(t *testing.T) {
	p := NewPolicy()
	wantAllowed(t, p.CourseUpdate(admin, otherCourse()))
	wantAllowed(t, p.CourseUpdate(teacher, ownedCourse()))
	wantKind(t, p.CourseUpdate(teacher, otherCourse()), apperrors.KindForbidden)
}

func TestCourseDeleteAdminOnly(t *testing.T) {
	p := NewPolicy()
	wantAllowed(t, p.CourseDelete(admin))
	wantKind(t, p.CourseDelete(teacher), apperrors.KindForbidden)
}

func TestCourseViewEnrollment(t *testing.T) {
	p := NewPolicy()
	course := otherCourse()

	wantAllowed(t, p.CourseView(admin, course, false))
	wantAllowed(t, p.CourseView(student, course, true))
	wantKind(t, p.CourseView(student, course, false), apperrors.KindForbidden)
	wantAllowed(t, p.CourseView(parent, course, true))
	wantKind(t, p.CourseView(parent, course, false), apperrors.KindForbidden)
	wantKind(t, p.CourseView(teacher, course, false), apperrors.KindForbidden)
}

func TestAssignmentPublishTransitions(t *testing.T) {
	p := NewPolicy()
	course := ownedCourse()

	unpublished := &models.Assignment{CourseID: course.ID}
	wantAllowed(t, p.AssignmentPublish(teacher, course, unpublished))

	published := &models.Assignment{CourseID: course.ID, IsPublished: true}
	wantKind(t, p.AssignmentPublish(teacher, course, published), apperrors.KindFailedPrecondition)

	wantKind(t, p.AssignmentPublish(student, course, unpublished), apperrors.KindForbidden)
}

func TestAssignmentViewPublicationGate(t *testing.T) {
	p := NewPolicy()
	course := otherCourse()
	draft := &models.Assignment{CourseID: course.ID}
	published := &models.Assignment{CourseID: course.ID, IsPublished: true}

	wantAllowed(t, p.AssignmentView(admin, course, draft, false))
	wantAllowed(t, p.AssignmentView(student, course, published, true))
	wantKind(t, p.AssignmentView(student, course, draft, true), apperrors.KindForbidden)
	wantKind(t, p.AssignmentView(student, course, published, false), apperrors.KindForbidden)
	wantAllowed(t, p.AssignmentView(parent, course, published, true))
}

func TestSubmissionCreateDeadline(t *testing.T) {
	p := NewPolicy()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	open := &models.Assignment{IsPublished: true, DueDate: now.Add(time.Hour)}
	wantAllowed(t, p.SubmissionCreate(student, open, true, now))

	pastDue := &models.Assignment{IsPublished: true, DueDate: now.Add(-time.Hour)}
	wantKind(t, p.SubmissionCreate(student, pastDue, true, now), apperrors.KindFailedPrecondition)

	pastDueOpen := &models.Assignment{IsPublished: true, DueDate: now.Add(-time.Hour), AllowLateSubmissions: true}
	wantAllowed(t, p.SubmissionCreate(student, pastDueOpen, true, now))

	draft := &models.Assignment{DueDate: now.Add(time.Hour)}
	wantKind(t, p.SubmissionCreate(student, draft, true, now), apperrors.KindForbidden)

	wantKind(t, p.SubmissionCreate(student, open, false, now), apperrors.KindForbidden)
	wantKind(t, p.SubmissionCreate(teacher, open, true, now), apperrors.KindForbidden)
}

func TestSubmissionView(t *testing.T) {
	p := NewPolicy()
	course := ownedCourse()
	sub := &models.Submission{StudentID: student.ID}

	wantAllowed(t, p.SubmissionView(teacher, course, sub))
	wantAllowed(t, p.SubmissionView(student, otherCourse(), sub))
	wantAllowed(t, p.SubmissionView(parent, otherCourse(), sub))

	otherStudent := &Principal{ID: 101, Role: models.RoleStudent}
	wantKind(t, p.SubmissionView(otherStudent, otherCourse(), sub), apperrors.KindForbidden)

	unrelatedParent := &Principal{ID: 201, Role: models.RoleParent, Children: []int64{999}}
	wantKind(t, p.SubmissionView(unrelatedParent, otherCourse(), sub), apperrors.KindForbidden)
}

func TestGradeViewPublicationGate(t *testing.T) {
	p := NewPolicy()
	course := otherCourse()
	draft := &models.Grade{StudentID: student.ID}
	published := &models.Grade{StudentID: student.ID, IsPublished: true}

	wantAllowed(t, p.GradeView(admin, course, draft))
	wantAllowed(t, p.GradeView(student, course, published))
	wantKind(t, p.GradeView(student, course, draft), apperrors.KindForbidden)
	wantAllowed(t, p.GradeView(parent, course, published))
	wantKind(t, p.GradeView(parent, course, draft), apperrors.KindForbidden)

	otherStudent := &Principal{ID: 101, Role: models.RoleStudent}
	wantKind(t, p.GradeView(otherStudent, course, published), apperrors.KindForbidden)
}

func TestAttendanceView(t *testing.T) {
	p := NewPolicy()
	record := &models.Attendance{StudentID: student.ID}

	wantAllowed(t, p.AttendanceView(teacher, ownedCourse(), record))
	wantAllowed(t, p.AttendanceView(student, otherCourse(), record))
	wantAllowed(t, p.AttendanceView(parent, otherCourse(), record))
	wantKind(t, p.AttendanceView(teacher, otherCourse(), record), apperrors.KindForbidden)
}

func TestEnrollmentDecideRequiresPending(t *testing.T) {
	p := NewPolicy()
	course := ownedCourse()

	pending := &models.EnrollmentRequest{StudentID: student.ID, Status: models.EnrollmentPending}
	wantAllowed(t, p.EnrollmentDecide(teacher, course, pending))
	wantAllowed(t, p.EnrollmentDecide(admin, course, pending))

	decided := &models.EnrollmentRequest{StudentID: student.ID, Status: models.EnrollmentApproved}
	wantKind(t, p.EnrollmentDecide(teacher, course, decided), apperrors.KindFailedPrecondition)

	wantKind(t, p.EnrollmentDecide(student, course, pending), apperrors.KindForbidden)
}

func TestEnrollmentCancel(t *testing.T) {
	p := NewPolicy()

	pending := &models.EnrollmentRequest{StudentID: student.ID, Status: models.EnrollmentPending}
	wantAllowed(t, p.EnrollmentCancel(student, pending))

	rejected := &models.EnrollmentRequest{StudentID: student.ID, Status: models.EnrollmentRejected}
	wantKind(t, p.EnrollmentCancel(student, rejected), apperrors.KindFailedPrecondition)

	otherStudent := &Principal{ID: 101, Role: models.RoleStudent}
	wantKind(t, p.EnrollmentCancel(otherStudent, pending), apperrors.KindForbidden)
	wantKind(t, p.EnrollmentCancel(admin, pending), apperrors.KindForbidden)
}

func TestUserChecks(t *testing.T) {
	p := NewPolicy()

	wantAllowed(t, p.UserList(admin))
	wantKind(t, p.UserList(teacher), apperrors.KindForbidden)

	wantAllowed(t, p.UserView(student, student.ID))
	wantKind(t, p.UserView(student, 999), apperrors.KindForbidden)
	wantAllowed(t, p.UserView(admin, 999))

	wantAllowed(t, p.UserUpdate(teacher, teacher.ID))
	wantKind(t, p.UserDelete(teacher), apperrors.KindForbidden)
}

func TestNotificationCreate(t *testing.T) {
	p := NewPolicy()
	wantAllowed(t, p.NotificationCreate(admin))
	wantAllowed(t, p.NotificationCreate(teacher))
	wantKind(t, p.NotificationCreate(student), apperrors.KindForbidden)
	wantKind(t, p.NotificationCreate(parent), apperrors.KindForbidden)
}
