package models

import (
	"time"
)

// Course defines the course model based on the 'courses' table. The course
// exclusively owns its materials list and its student enrollment records.
type Course struct {
	ID           int64     `json:"id" db:"id"`
	Code         string    `json:"code" db:"code"` // globally unique
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	GradeLevel   int       `json:"gradeLevel" db:"grade_level"`
	AcademicYear string    `json:"academicYear" db:"academic_year"`
	Semester     Semester  `json:"semester" db:"semester"`
	TeacherID    int64     `json:"teacherId" db:"teacher_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	// Loaded relations
	StudentIDs []int64          `json:"students,omitempty"`
	Schedule   []ScheduleEntry  `json:"schedule,omitempty"`
	Materials  []CourseMaterial `json:"materials,omitempty"`
}

// ScheduleEntry is one day/time/room slot of a course schedule.
type ScheduleEntry struct {
	ID        int64  `json:"id" db:"id"`
	CourseID  int64  `json:"-" db:"course_id"`
	Day       string `json:"day" db:"day"`
	StartTime string `json:"startTime" db:"start_time"`
	EndTime   string `json:"endTime" db:"end_time"`
	Room      string `json:"room" db:"room"`
}

// CourseMaterial is a named URL with a type tag, owned by its course.
type CourseMaterial struct {
	ID        int64     `json:"id" db:"id"`
	CourseID  int64     `json:"-" db:"course_id"`
	Name      string    `json:"name" db:"name"`
	URL       string    `json:"url" db:"url"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
