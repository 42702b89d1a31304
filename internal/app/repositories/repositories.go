// Package repositories holds the pgx-backed stores. Repositories translate
// scope predicates and compiled list queries into SQL; they never decide
// authorization themselves.
package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles every store for dependency injection.
type Repositories struct {
	User              *UserRepository
	Course            *CourseRepository
	Assignment        *AssignmentRepository
	Submission        *SubmissionRepository
	Attendance        *AttendanceRepository
	Grade             *GradeRepository
	EnrollmentRequest *EnrollmentRequestRepository
	Notification      *NotificationRepository
	File              *FileRepository
}

// NewRepositories creates all repositories over one connection pool.
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:              NewUserRepository(db),
		Course:            NewCourseRepository(db),
		Assignment:        NewAssignmentRepository(db),
		Submission:        NewSubmissionRepository(db),
		Attendance:        NewAttendanceRepository(db),
		Grade:             NewGradeRepository(db),
		EnrollmentRequest: NewEnrollmentRequestRepository(db),
		Notification:      NewNotificationRepository(db),
		File:              NewFileRepository(db),
	}
}
