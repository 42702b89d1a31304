package dto

import (
	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// RecordGradeRequest records one grade entry. Percentage and letter grade
// are derived server-side; values sent by the caller are ignored.
type RecordGradeRequest struct {
	StudentID    int64            `json:"studentId" binding:"required"`
	CourseID     int64            `json:"courseId" binding:"required"`
	AssignmentID *int64           `json:"assignmentId"`
	Type         models.GradeType `json:"type" binding:"required"`
	Score        float64          `json:"score" binding:"min=0"`
	MaxScore     float64          `json:"maxScore" binding:"required,gt=0"`
	Weight       float64          `json:"weight" binding:"min=0"`
	IsPublished  bool             `json:"isPublished"`
}

// BulkGradeEntry is one row of a bulk grade recording.
type BulkGradeEntry struct {
	StudentID int64   `json:"studentId" binding:"required"`
	Score     float64 `json:"score" binding:"min=0"`
}

// BulkGradeRequest records the same graded item for many students.
type BulkGradeRequest struct {
	CourseID     int64            `json:"courseId" binding:"required"`
	AssignmentID *int64           `json:"assignmentId"`
	Type         models.GradeType `json:"type" binding:"required"`
	MaxScore     float64          `json:"maxScore" binding:"required,gt=0"`
	Weight       float64          `json:"weight" binding:"min=0"`
	IsPublished  bool             `json:"isPublished"`
	Grades       []BulkGradeEntry `json:"grades" binding:"required,min=1"`
}

// UpdateGradeRequest carries partial grade updates; derived fields are
// recomputed after applying it.
type UpdateGradeRequest struct {
	Score    *float64 `json:"score" binding:"omitempty,min=0"`
	MaxScore *float64 `json:"maxScore" binding:"omitempty,gt=0"`
	Weight   *float64 `json:"weight" binding:"omitempty,min=0"`
}

// GradeTypeSummary aggregates a student's grades of one type.
type GradeTypeSummary struct {
	Type       models.GradeType `json:"type"`
	Count      int64            `json:"count"`
	Average    float64          `json:"average"`
	WeightedAvg float64         `json:"weightedAverage"`
}

// GradeSummary is a student's standing within a course.
type GradeSummary struct {
	StudentID   int64              `json:"studentId"`
	CourseID    int64              `json:"courseId"`
	Overall     float64            `json:"overall"`
	LetterGrade string             `json:"letterGrade"`
	ByType      []GradeTypeSummary `json:"byType"`
}
