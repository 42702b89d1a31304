package models

import (
	"time"
)

// Submission defines the submission model based on the 'submissions' table.
// At most one submission exists per (assignment, student); a resubmission
// replaces the previous one.
type Submission struct {
	ID           int64            `json:"id" db:"id"`
	AssignmentID int64            `json:"assignmentId" db:"assignment_id"`
	StudentID    int64            `json:"studentId" db:"student_id"`
	SubmittedAt  time.Time        `json:"submittedAt" db:"submitted_at"`
	Content      string           `json:"content" db:"content"`
	Score        *float64         `json:"score,omitempty" db:"score"`
	Feedback     *string          `json:"feedback,omitempty" db:"feedback"`
	GradedBy     *int64           `json:"gradedBy,omitempty" db:"graded_by"`
	GradedAt     *time.Time       `json:"gradedAt,omitempty" db:"graded_at"`
	Status       SubmissionStatus `json:"status" db:"status"`
	IsLate       bool             `json:"isLate" db:"is_late"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`

	Attachments []File `json:"attachments,omitempty"`
}

// BeforeWrite computes the derived fields against the owning assignment.
// IsLate holds iff the submission instant is past the due date; a score
// present at insert time on a late submission takes the assignment's
// late-penalty deduction.
func (s *Submission) BeforeWrite(assignment *Assignment) {
	s.IsLate = s.SubmittedAt.After(assignment.DueDate)
	if s.IsLate && s.Score != nil && assignment.LatePenaltyApplies() {
		adjusted := assignment.ApplyLatePenalty(*s.Score)
		s.Score = &adjusted
	}
}
