// Package services holds the domain services. Every operation follows the
// same shape: resolve the targets, run the policy check, apply the
// mutation, dispatch effects. Services raise typed failures; the HTTP
// boundary translates them exactly once.
package services

import (
	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/effects"
	"github.com/dyilmaz/schoolhub/internal/app/repositories"
	pkgauth "github.com/dyilmaz/schoolhub/internal/pkg/auth"
	"github.com/dyilmaz/schoolhub/internal/pkg/filestorage"
	"github.com/dyilmaz/schoolhub/internal/pkg/identity"
)

// Services bundles every domain service for dependency injection.
type Services struct {
	Auth         *AuthService
	User         *UserService
	Course       *CourseService
	Assignment   *AssignmentService
	Attendance   *AttendanceService
	Grade        *GradeService
	Enrollment   *EnrollmentService
	Notification *NotificationService
}

// NewServices wires every service over the shared repositories, policy
// engine and effect dispatcher.
func NewServices(
	repos *repositories.Repositories,
	jwt *pkgauth.JWTService,
	federated identity.TokenVerifier,
	storage filestorage.FileStorage,
	dispatcher *effects.Dispatcher,
) *Services {
	policy := auth.NewPolicy()

	return &Services{
		Auth:         NewAuthService(repos.User, jwt, federated),
		User:         NewUserService(repos.User, policy),
		Course:       NewCourseService(repos.Course, repos.User, policy),
		Assignment:   NewAssignmentService(repos.Assignment, repos.Submission, repos.Course, repos.File, storage, policy, dispatcher),
		Attendance:   NewAttendanceService(repos.Attendance, repos.Course, policy, dispatcher),
		Grade:        NewGradeService(repos.Grade, repos.Course, policy, dispatcher),
		Enrollment:   NewEnrollmentService(repos.EnrollmentRequest, repos.Course, policy, dispatcher),
		Notification: NewNotificationService(repos.Notification, policy, dispatcher),
	}
}
