package auth

import (
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// Policy is the single place operation admissibility is decided. Services
// call the check for an operation before every mutation or single-entity
// read; every denial is a typed failure.
//
// The rules dispatch on the caller's role and, where relevant, the target's
// current state. Ownership for a teacher always means course.teacher = caller.
type Policy struct{}

// NewPolicy creates the policy engine.
func NewPolicy() *Policy { return &Policy{} }

// ownsCourse reports teacher ownership.
func ownsCourse(p *Principal, course *models.Course) bool {
	return p.IsTeacher() && course.TeacherID == p.ID
}

// CourseCreate admits admins and teachers. A teacher self-assigns as the
// course teacher; the service enforces that.
func (*Policy) CourseCreate(p *Principal) error {
	if p.IsAdmin() || p.IsTeacher() {
		return nil
	}
	return apperrors.Forbidden("only admins and teachers can create courses")
}

// CourseUpdate admits admins and the owning teacher.
func (*Policy) CourseUpdate(p *Principal, course *models.Course) error {
	if p.IsAdmin() || ownsCourse(p, course) {
		return nil
	}
	return apperrors.Forbidden("not the course teacher")
}

// CourseDelete admits admins only.
func (*Policy) CourseDelete(p *Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("only admins can delete courses")
}

// CourseManage covers enrollment changes and material management: admins and
// the owning teacher.
func (*Policy) CourseManage(p *Principal, course *models.Course) error {
	if p.IsAdmin() || ownsCourse(p, course) {
		return nil
	}
	return apperrors.Forbidden("not the course teacher")
}

// CourseView decides single-course reads. enrolled means the caller (or one
// of a parent caller's children) is on the course roster.
func (*Policy) CourseView(p *Principal, course *models.Course, enrolled bool) error {
	switch {
	case p.IsAdmin(), ownsCourse(p, course):
		return nil
	case (p.IsStudent() || p.IsParent()) && enrolled:
		return nil
	}
	return apperrors.Forbidden("no access to this course")
}

// AssignmentWrite covers create, update and delete: admins and the owning
// teacher.
func (*Policy) AssignmentWrite(p *Principal, course *models.Course) error {
	if p.IsAdmin() || ownsCourse(p, course) {
		return nil
	}
	return apperrors.Forbidden("not the course teacher")
}

// AssignmentPublish admits the same callers as AssignmentWrite; the
// transition is only valid from unpublished.
func (pl *Policy) AssignmentPublish(p *Principal, course *models.Course, assignment *models.Assignment) error {
	if err := pl.AssignmentWrite(p, course); err != nil {
		return err
	}
	if assignment.IsPublished {
		return apperrors.FailedPrecondition("assignment is already published")
	}
	return nil
}

// AssignmentView decides single-assignment reads. Students and parents only
// see published assignments of courses they (or their children) attend.
func (*Policy) AssignmentView(p *Principal, course *models.Course, assignment *models.Assignment, enrolled bool) error {
	switch {
	case p.IsAdmin(), ownsCourse(p, course):
		return nil
	case (p.IsStudent() || p.IsParent()) && enrolled:
		if !assignment.IsPublished {
			return apperrors.Forbidden("assignment is not published")
		}
		return nil
	}
	return apperrors.Forbidden("no access to this assignment")
}

// SubmissionCreate admits an enrolled student against a published assignment
// that is still open (or allows late submissions).
func (*Policy) SubmissionCreate(p *Principal, assignment *models.Assignment, enrolled bool, now time.Time) error {
	if !p.IsStudent() {
		return apperrors.Forbidden("only students can submit")
	}
	if !enrolled {
		return apperrors.Forbidden("not enrolled in this course")
	}
	if !assignment.IsPublished {
		return apperrors.Forbidden("assignment is not published")
	}
	if now.After(assignment.DueDate) && !assignment.AllowLateSubmissions {
		return apperrors.FailedPrecondition("assignment is past due and does not allow late submissions")
	}
	return nil
}

// SubmissionView decides single-submission reads.
func (*Policy) SubmissionView(p *Principal, course *models.Course, submission *models.Submission) error {
	switch {
	case p.IsAdmin(), ownsCourse(p, course):
		return nil
	case p.IsStudent() && submission.StudentID == p.ID:
		return nil
	case p.IsParent() && p.HasChild(submission.StudentID):
		return nil
	}
	return apperrors.Forbidden("no access to this submission")
}

// SubmissionGrade admits admins and the owning teacher.
func (*Policy) SubmissionGrade(p *Principal, course *models.Course) error {
	if p.IsAdmin() || ownsCourse(p, course) {
		return nil
	}
	return apperrors.Forbidden("not the course teacher")
}

// AttendanceRecord admits admins and the owning teacher; the service also
// requires the student to be currently enrolled.
func (*Policy) AttendanceRecord(p *Principal, course *models.Course) error {
	if p.IsAdmin() || ownsCourse(p, course) {
		return nil
	}
	return apperrors.Forbidden("not the course teacher")
}

// AttendanceView decides single-record reads: admins, the owning teacher,
// the student itself and the student's parents.
func (*Policy) AttendanceView(p *Principal, course *models.Course, attendance *models.Attendance) error {
	switch {
	case p.IsAdmin(), ownsCourse(p, course):
		return nil
	case p.IsStudent() && attendance.StudentID == p.ID:
		return nil
	case p.IsParent() && p.HasChild(attendance.StudentID):
		return nil
	}
	return apperrors.Forbidden("no access to this attendance record")
}

// GradeRecord admits admins and the owning teacher.
func (*Policy) GradeRecord(p *Principal, course *models.Course) error {
	if p.IsAdmin() || ownsCourse(p, course) {
		return nil
	}
	return apperrors.Forbidden("not the course teacher")
}

// GradePublish admits the same callers as GradeRecord. Publication is
// monotonic: once published a grade stays published.
func (pl *Policy) GradePublish(p *Principal, course *models.Course) error {
	return pl.GradeRecord(p, course)
}

// GradeView decides single-entry reads. Students and parents only see
// published entries for themselves or their children.
func (*Policy) GradeView(p *Principal, course *models.Course, grade *models.Grade) error {
	switch {
	case p.IsAdmin(), ownsCourse(p, course):
		return nil
	case p.IsStudent() && grade.StudentID == p.ID:
		if !grade.IsPublished {
			return apperrors.Forbidden("grade is not published")
		}
		return nil
	case p.IsParent() && p.HasChild(grade.StudentID):
		if !grade.IsPublished {
			return apperrors.Forbidden("grade is not published")
		}
		return nil
	}
	return apperrors.Forbidden("no access to this grade")
}

// EnrollmentView decides single-request reads: admins, the owning teacher,
// the requesting student and that student's parents.
func (*Policy) EnrollmentView(p *Principal, course *models.Course, request *models.EnrollmentRequest) error {
	switch {
	case p.IsAdmin(), ownsCourse(p, course):
		return nil
	case p.IsStudent() && request.StudentID == p.ID:
		return nil
	case p.IsParent() && p.HasChild(request.StudentID):
		return nil
	}
	return apperrors.Forbidden("no access to this enrollment request")
}

// EnrollmentRequestCreate admits students only.
func (*Policy) EnrollmentRequestCreate(p *Principal) error {
	if p.IsStudent() {
		return nil
	}
	return apperrors.Forbidden("only students can request enrollment")
}

// EnrollmentDecide admits admins and the owning teacher for the
// pending -> approved/rejected transitions.
func (*Policy) EnrollmentDecide(p *Principal, course *models.Course, request *models.EnrollmentRequest) error {
	if !p.IsAdmin() && !ownsCourse(p, course) {
		return apperrors.Forbidden("not the course teacher")
	}
	if !request.CanDecide() {
		return apperrors.FailedPrecondition("request is not pending")
	}
	return nil
}

// EnrollmentCancel admits the owning student, and only from pending.
func (*Policy) EnrollmentCancel(p *Principal, request *models.EnrollmentRequest) error {
	if !p.IsStudent() || request.StudentID != p.ID {
		return apperrors.Forbidden("only the requesting student can cancel")
	}
	if request.Status != models.EnrollmentPending {
		return apperrors.FailedPrecondition("only pending requests can be canceled")
	}
	return nil
}

// UserList admits admins only.
func (*Policy) UserList(p *Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("only admins can list users")
}

// UserCreate admits admins only.
func (*Policy) UserCreate(p *Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("only admins can create users")
}

// UserView admits admins and the user itself.
func (*Policy) UserView(p *Principal, targetID int64) error {
	if p.IsAdmin() || p.ID == targetID {
		return nil
	}
	return apperrors.Forbidden("no access to this user")
}

// UserUpdate admits admins and the user itself.
func (*Policy) UserUpdate(p *Principal, targetID int64) error {
	if p.IsAdmin() || p.ID == targetID {
		return nil
	}
	return apperrors.Forbidden("no access to this user")
}

// UserDelete admits admins only.
func (*Policy) UserDelete(p *Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden("only admins can delete users")
}

// NotificationCreate admits admins and teachers (announcements).
func (*Policy) NotificationCreate(p *Principal) error {
	if p.IsAdmin() || p.IsTeacher() {
		return nil
	}
	return apperrors.Forbidden("only admins and teachers can send notifications")
}
