package dto

import (
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// RecordAttendanceRequest records one student's attendance for a day.
// Recording the same (student, course, date) again updates in place.
type RecordAttendanceRequest struct {
	StudentID    int64                   `json:"studentId" binding:"required"`
	CourseID     int64                   `json:"courseId" binding:"required"`
	Date         time.Time               `json:"date" binding:"required"`
	Status       models.AttendanceStatus `json:"status" binding:"required"`
	LateMinutes  int                     `json:"lateMinutes" binding:"min=0"`
	ExcuseReason string                  `json:"excuseReason"`
}

// BulkAttendanceEntry is one row of a bulk recording.
type BulkAttendanceEntry struct {
	StudentID    int64                   `json:"studentId" binding:"required"`
	Status       models.AttendanceStatus `json:"status" binding:"required"`
	LateMinutes  int                     `json:"lateMinutes" binding:"min=0"`
	ExcuseReason string                  `json:"excuseReason"`
}

// BulkAttendanceRequest records a whole class session at once.
type BulkAttendanceRequest struct {
	CourseID int64                 `json:"courseId" binding:"required"`
	Date     time.Time             `json:"date" binding:"required"`
	Records  []BulkAttendanceEntry `json:"records" binding:"required,min=1"`
}

// AttendanceStats summarizes one student's attendance within a course.
type AttendanceStats struct {
	StudentID      int64   `json:"studentId"`
	CourseID       int64   `json:"courseId"`
	TotalDays      int64   `json:"totalDays"`
	Present        int64   `json:"present"`
	Absent         int64   `json:"absent"`
	Late           int64   `json:"late"`
	Excused        int64   `json:"excused"`
	AttendanceRate float64 `json:"attendanceRate"`
}
