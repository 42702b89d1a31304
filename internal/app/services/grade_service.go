package services

import (
	"context"
	"net/url"
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/effects"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// gradeSchema is the public projection of the grades table.
var gradeSchema = query.Schema{
	Columns: map[string]string{
		"id":          "id",
		"studentId":   "student_id",
		"courseId":    "course_id",
		"type":        "type",
		"percentage":  "percentage",
		"letterGrade": "letter_grade",
		"isPublished": "is_published",
		"gradedAt":    "updated_at",
		"createdAt":   "created_at",
	},
	DefaultSort: "-gradedAt",
}

// GradeStore is the subset of the grade store the service needs.
type GradeStore interface {
	Upsert(ctx context.Context, g *models.Grade) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Grade, error)
	List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.Grade, int64, error)
	Update(ctx context.Context, g *models.Grade) error
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, studentID, courseID int64, publishedOnly bool) (*dto.GradeSummary, error)
}

// GradeCourseStore resolves the owning course and enrollment state.
type GradeCourseStore interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID int64, studentIDs ...int64) (bool, error)
}

// GradeService records and publishes grade entries. Derived fields are
// always recomputed server-side.
type GradeService struct {
	grades  GradeStore
	courses GradeCourseStore
	policy  *auth.Policy
	effects *effects.Dispatcher
	now     func() time.Time
}

// NewGradeService creates the grade service.
func NewGradeService(grades GradeStore, courses GradeCourseStore, policy *auth.Policy, dispatcher *effects.Dispatcher) *GradeService {
	return &GradeService{grades: grades, courses: courses, policy: policy, effects: dispatcher, now: time.Now}
}

// Record writes one grade entry; re-grading the same item updates in
// place. A published entry notifies the student and their parents.
func (s *GradeService) Record(ctx context.Context, p *auth.Principal, req *dto.RecordGradeRequest) (*models.Grade, error) {
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.GradeRecord(p, course); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, apperrors.Invalid("type", "unknown grade type")
	}
	if req.Score > req.MaxScore {
		return nil, apperrors.Invalid("score", "exceeds max score")
	}

	enrolled, err := s.courses.IsEnrolled(ctx, req.CourseID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperrors.FailedPrecondition("student is not enrolled in this course")
	}

	grade := &models.Grade{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		AssignmentID: req.AssignmentID,
		Type:         req.Type,
		Score:        req.Score,
		MaxScore:     req.MaxScore,
		Weight:       req.Weight,
		IsPublished:  req.IsPublished,
		GradedBy:     p.ID,
	}
	if req.IsPublished {
		now := s.now()
		grade.PublishedAt = &now
	}
	grade.Recompute()

	id, err := s.grades.Upsert(ctx, grade)
	if err != nil {
		return nil, err
	}

	saved, err := s.grades.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saved.IsPublished {
		s.effects.GradePublished(ctx, saved)
	}
	return saved, nil
}

// BulkRecord writes the same graded item for many students. The first
// failure aborts the remainder.
func (s *GradeService) BulkRecord(ctx context.Context, p *auth.Principal, req *dto.BulkGradeRequest) ([]*models.Grade, error) {
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.GradeRecord(p, course); err != nil {
		return nil, err
	}

	grades := make([]*models.Grade, 0, len(req.Grades))
	for _, entry := range req.Grades {
		saved, err := s.Record(ctx, p, &dto.RecordGradeRequest{
			StudentID:    entry.StudentID,
			CourseID:     req.CourseID,
			AssignmentID: req.AssignmentID,
			Type:         req.Type,
			Score:        entry.Score,
			MaxScore:     req.MaxScore,
			Weight:       req.Weight,
			IsPublished:  req.IsPublished,
		})
		if err != nil {
			return nil, err
		}
		grades = append(grades, saved)
	}
	return grades, nil
}

// Get returns one grade entry.
func (s *GradeService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.Grade, error) {
	grade, err := s.grades.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, grade.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.GradeView(p, course, grade); err != nil {
		return nil, err
	}
	return grade, nil
}

// List returns the page of grade entries visible to the caller.
func (s *GradeService) List(ctx context.Context, p *auth.Principal, values url.Values) (*dto.ListResult, error) {
	scope := auth.ScopeFor(p, auth.EntityGrade)
	q := query.Parse(values, gradeSchema)

	grades, total, err := s.grades.List(ctx, scope, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(grades, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Update rescores a grade entry; derived fields are recomputed before the
// write.
func (s *GradeService) Update(ctx context.Context, p *auth.Principal, id int64, req *dto.UpdateGradeRequest) (*models.Grade, error) {
	grade, err := s.grades.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, grade.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.GradeRecord(p, course); err != nil {
		return nil, err
	}

	if req.Score != nil {
		grade.Score = *req.Score
	}
	if req.MaxScore != nil {
		grade.MaxScore = *req.MaxScore
	}
	if req.Weight != nil {
		grade.Weight = *req.Weight
	}
	if grade.Score > grade.MaxScore {
		return nil, apperrors.Invalid("score", "exceeds max score")
	}
	grade.Recompute()

	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, err
	}
	return s.grades.GetByID(ctx, id)
}

// Publish makes a grade entry visible to the student and their parents.
// Publication is monotonic; publishing twice is a no-op.
func (s *GradeService) Publish(ctx context.Context, p *auth.Principal, id int64) (*models.Grade, error) {
	grade, err := s.grades.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, grade.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.GradePublish(p, course); err != nil {
		return nil, err
	}
	if grade.IsPublished {
		return grade, nil
	}

	now := s.now()
	grade.IsPublished = true
	grade.PublishedAt = &now
	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, err
	}

	s.effects.GradePublished(ctx, grade)
	return grade, nil
}

// Delete removes a grade entry.
func (s *GradeService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	grade, err := s.grades.GetByID(ctx, id)
	if err != nil {
		return err
	}
	course, err := s.courses.GetByID(ctx, grade.CourseID)
	if err != nil {
		return err
	}
	if err := s.policy.GradeRecord(p, course); err != nil {
		return err
	}
	return s.grades.Delete(ctx, id)
}

// Summary reports a student's standing within a course. Students and
// parents only see the published portion.
func (s *GradeService) Summary(ctx context.Context, p *auth.Principal, studentID, courseID int64) (*dto.GradeSummary, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sample := &models.Grade{StudentID: studentID, CourseID: courseID, IsPublished: true}
	if err := s.policy.GradeView(p, course, sample); err != nil {
		return nil, err
	}

	publishedOnly := p.IsStudent() || p.IsParent()
	return s.grades.Summary(ctx, studentID, courseID, publishedOnly)
}
