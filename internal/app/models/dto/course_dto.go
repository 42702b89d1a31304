package dto

import (
	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// ScheduleInput is one schedule slot on course creation or update.
type ScheduleInput struct {
	Day       string `json:"day" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Room      string `json:"room"`
}

// CreateCourseRequest creates a course. TeacherID is only honoured for
// admin callers; teachers self-assign.
type CreateCourseRequest struct {
	Code         string          `json:"code" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	GradeLevel   int             `json:"gradeLevel" binding:"required,min=1"`
	AcademicYear string          `json:"academicYear" binding:"required"`
	Semester     models.Semester `json:"semester" binding:"required"`
	TeacherID    int64           `json:"teacherId"`
	Schedule     []ScheduleInput `json:"schedule"`
}

// UpdateCourseRequest carries partial course updates.
type UpdateCourseRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	GradeLevel   *int             `json:"gradeLevel"`
	AcademicYear *string          `json:"academicYear"`
	Semester     *models.Semester `json:"semester"`
	TeacherID    *int64           `json:"teacherId"`
	Schedule     []ScheduleInput  `json:"schedule"`
}

// EnrollmentChangeRequest enrolls or unenrolls a set of students.
type EnrollmentChangeRequest struct {
	Students []int64 `json:"students" binding:"required,min=1"`
}

// MaterialRequest adds a named URL with a type tag to a course.
type MaterialRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required,url"`
	Type string `json:"type" binding:"required"`
}
