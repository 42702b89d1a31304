package models

import (
	"time"
)

// Attendance defines one attendance record based on the 'attendance' table.
// (student, course, date) uniquely identifies a record; repeated recordings
// for the same day update in place.
type Attendance struct {
	ID           int64            `json:"id" db:"id"`
	StudentID    int64            `json:"studentId" db:"student_id"`
	CourseID     int64            `json:"courseId" db:"course_id"`
	Date         time.Time        `json:"date" db:"date"` // calendar day, time part zeroed
	Status       AttendanceStatus `json:"status" db:"status"`
	LateMinutes  int              `json:"lateMinutes,omitempty" db:"late_minutes"`
	ExcuseReason string           `json:"excuseReason,omitempty" db:"excuse_reason"`
	RecordedBy   int64            `json:"recordedBy" db:"recorded_by"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// NormalizeDate truncates the date to its calendar day in UTC so the unique
// key compares equal for any two instants on the same day.
func (a *Attendance) NormalizeDate() {
	y, m, d := a.Date.UTC().Date()
	a.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NeedsNotice reports whether recording this status notifies the student and
// their parents.
func (a *Attendance) NeedsNotice() bool {
	return a.Status == AttendanceAbsent || a.Status == AttendanceLate
}
