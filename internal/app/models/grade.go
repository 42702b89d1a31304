package models

import (
	"math"
	"time"
)

// Grade defines one grade entry based on the 'grades' table. Percentage and
// LetterGrade are derived and recomputed on every write; (student, course,
// assignment, type) uniquely identifies an entry.
type Grade struct {
	ID           int64      `json:"id" db:"id"`
	StudentID    int64      `json:"studentId" db:"student_id"`
	CourseID     int64      `json:"courseId" db:"course_id"`
	AssignmentID *int64     `json:"assignmentId,omitempty" db:"assignment_id"`
	Type         GradeType  `json:"type" db:"type"`
	Score        float64    `json:"score" db:"score"`
	MaxScore     float64    `json:"maxScore" db:"max_score"`
	Percentage   float64    `json:"percentage" db:"percentage"`
	LetterGrade  string     `json:"letterGrade" db:"letter_grade"`
	Weight       float64    `json:"weight" db:"weight"`
	IsPublished  bool       `json:"isPublished" db:"is_published"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty" db:"published_at"`
	GradedBy     int64      `json:"gradedBy" db:"graded_by"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Recompute refreshes the derived fields from score and maxScore. Caller
// input for percentage or letter grade is never trusted.
func (g *Grade) Recompute() {
	if g.MaxScore > 0 {
		g.Percentage = math.Round(100*g.Score/g.MaxScore*100) / 100
	} else {
		g.Percentage = 0
	}
	g.LetterGrade = LetterFor(g.Percentage)
	if g.Weight <= 0 {
		g.Weight = 1
	}
}

// LetterFor buckets a percentage into a letter grade.
func LetterFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
