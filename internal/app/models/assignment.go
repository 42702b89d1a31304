package models

import (
	"time"
)

// MaxAssignmentTitleLen bounds assignment titles.
const MaxAssignmentTitleLen = 100

// Assignment defines the assignment model based on the 'assignments' table.
// An assignment owns the lifecycle of its submissions: deleting it cascades.
type Assignment struct {
	ID                   int64     `json:"id" db:"id"`
	CourseID             int64     `json:"courseId" db:"course_id"`
	Title                string    `json:"title" db:"title"`
	Description          string    `json:"description" db:"description"`
	DueDate              time.Time `json:"dueDate" db:"due_date"`
	TotalPoints          float64   `json:"totalPoints" db:"total_points"`
	Type                 string    `json:"assignmentType" db:"assignment_type"`
	AllowLateSubmissions bool      `json:"allowLateSubmissions" db:"allow_late_submissions"`
	LatePenalty          float64   `json:"latePenalty" db:"late_penalty"` // percentage, 0-100
	IsPublished          bool      `json:"isPublished" db:"is_published"`
	CreatedBy            int64     `json:"createdBy" db:"created_by"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`

	Attachments []File `json:"attachments,omitempty"`
}

// LatePenaltyApplies reports whether a late submission against this
// assignment takes a score deduction.
func (a *Assignment) LatePenaltyApplies() bool {
	return a.AllowLateSubmissions && a.LatePenalty > 0
}

// ApplyLatePenalty returns the score after the late deduction, floored at zero.
func (a *Assignment) ApplyLatePenalty(score float64) float64 {
	adjusted := score * (1 - a.LatePenalty/100)
	if adjusted < 0 {
		return 0
	}
	return adjusted
}
