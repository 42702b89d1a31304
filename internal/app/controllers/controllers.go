// Package controllers maps HTTP requests onto the domain services. Every
// handler binds the request, loads the principal and hands off; services
// own the rules and the controllers only translate.
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
)

// Controllers bundles every HTTP controller for route registration.
type Controllers struct {
	Auth         *AuthController
	User         *UserController
	Course       *CourseController
	Assignment   *AssignmentController
	Attendance   *AttendanceController
	Grade        *GradeController
	Enrollment   *EnrollmentController
	Notification *NotificationController
}

// NewControllers creates every controller over the shared services.
func NewControllers(svcs *services.Services) *Controllers {
	return &Controllers{
		Auth:         NewAuthController(svcs.Auth),
		User:         NewUserController(svcs.User),
		Course:       NewCourseController(svcs.Course),
		Assignment:   NewAssignmentController(svcs.Assignment),
		Attendance:   NewAttendanceController(svcs.Attendance),
		Grade:        NewGradeController(svcs.Grade),
		Enrollment:   NewEnrollmentController(svcs.Enrollment),
		Notification: NewNotificationController(svcs.Notification),
	}
}

// parseIDParam parses a positive integer ID from the request path.
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.Fail("Invalid "+name+" parameter"))
		return 0, false
	}
	return id, true
}

// parseIDQuery parses a required positive integer ID from the query string.
func parseIDQuery(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Query(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.Fail("Invalid "+name+" parameter"))
		return 0, false
	}
	return id, true
}

// renderList writes a service list result as a paginated envelope.
func renderList(ctx *gin.Context, result *dto.ListResult) {
	ctx.JSON(http.StatusOK, dto.List(result.Data, result.Total, result.Page, result.Limit))
}
