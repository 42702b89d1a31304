package dto

import (
	"time"
)

// CreateAssignmentRequest creates an assignment under a course.
type CreateAssignmentRequest struct {
	Title                string    `json:"title" binding:"required,max=100"`
	Description          string    `json:"description"`
	DueDate              time.Time `json:"dueDate" binding:"required"`
	TotalPoints          float64   `json:"totalPoints" binding:"required,gt=0"`
	Type                 string    `json:"assignmentType"`
	IsPublished          bool      `json:"isPublished"`
	AllowLateSubmissions bool      `json:"allowLateSubmissions"`
	LatePenalty          float64   `json:"latePenalty" binding:"min=0,max=100"`
}

// UpdateAssignmentRequest carries partial assignment updates.
type UpdateAssignmentRequest struct {
	Title                *string    `json:"title" binding:"omitempty,max=100"`
	Description          *string    `json:"description"`
	DueDate              *time.Time `json:"dueDate"`
	TotalPoints          *float64   `json:"totalPoints" binding:"omitempty,gt=0"`
	Type                 *string    `json:"assignmentType"`
	AllowLateSubmissions *bool      `json:"allowLateSubmissions"`
	LatePenalty          *float64   `json:"latePenalty" binding:"omitempty,min=0,max=100"`
}

// SubmitRequest submits (or resubmits) work against an assignment.
type SubmitRequest struct {
	Content string `json:"content" binding:"required"`
}

// GradeSubmissionRequest scores a submission. PublishGrade also publishes
// the materialized grade entry immediately.
type GradeSubmissionRequest struct {
	Score        float64 `json:"score" binding:"min=0"`
	Feedback     *string `json:"feedback"`
	PublishGrade bool    `json:"publishGrade"`
}
