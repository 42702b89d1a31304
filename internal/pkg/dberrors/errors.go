package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unique constraint names declared in the migrations. Services branch on
// these to turn an insertion conflict into the update-in-place path.
const (
	ConstraintUserEmail        = "users_email_key"
	ConstraintUserFederatedUID = "users_federated_uid_key"
	ConstraintCourseCode       = "courses_code_key"
	ConstraintSubmissionKey    = "submissions_assignment_student_key"
	ConstraintAttendanceKey    = "attendance_student_course_date_key"
	ConstraintGradeKey         = "grades_student_course_assignment_type_key"
	ConstraintEnrollmentReq    = "enrollment_requests_pending_key"
	ConstraintEnrollmentRow    = "course_students_pkey"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique violation on
// the named constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraintName
}

// IsAnyUniqueViolation reports whether err is a unique violation regardless
// of constraint.
func IsAnyUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
