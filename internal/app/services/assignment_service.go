package services

import (
	"context"
	"mime/multipart"
	"net/url"
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/effects"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/filestorage"
)

// assignmentSchema is the public projection of the assignments table.
var assignmentSchema = query.Schema{
	Columns: map[string]string{
		"id":          "id",
		"courseId":    "course_id",
		"title":       "title",
		"dueDate":     "due_date",
		"totalPoints": "total_points",
		"isPublished": "is_published",
		"createdAt":   "created_at",
	},
	DefaultSort: "-dueDate",
}

// submissionSchema is the public projection of the submissions table.
var submissionSchema = query.Schema{
	Columns: map[string]string{
		"id":           "id",
		"assignmentId": "assignment_id",
		"studentId":    "student_id",
		"submittedAt":  "submitted_at",
		"status":       "status",
		"isLate":       "is_late",
		"score":        "score",
	},
	DefaultSort: "-submittedAt",
}

// AssignmentStore is the subset of the assignment store the service needs.
type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Assignment, error)
	List(ctx context.Context, scope auth.Scope, courseID int64, q query.ListQuery) ([]*models.Assignment, int64, error)
	Update(ctx context.Context, a *models.Assignment) error
	Delete(ctx context.Context, id int64) error
	Publish(ctx context.Context, id int64) error
}

// SubmissionStore is the subset of the submission store the service needs.
type SubmissionStore interface {
	Upsert(ctx context.Context, s *models.Submission) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	List(ctx context.Context, scope auth.Scope, assignmentID int64, q query.ListQuery) ([]*models.Submission, int64, error)
	UpdateGrade(ctx context.Context, s *models.Submission) error
}

// AssignmentCourseStore resolves the owning course and enrollment state.
type AssignmentCourseStore interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID int64, studentIDs ...int64) (bool, error)
}

// AttachmentStore persists uploaded file records.
type AttachmentStore interface {
	Create(ctx context.Context, f *models.File) (int64, error)
	ListByResource(ctx context.Context, resourceType models.ResourceType, resourceID int64) ([]models.File, error)
}

// AssignmentService handles assignment lifecycle, publication, submissions
// and grading.
type AssignmentService struct {
	assignments AssignmentStore
	submissions SubmissionStore
	courses     AssignmentCourseStore
	files       AttachmentStore
	storage     filestorage.FileStorage
	policy      *auth.Policy
	effects     *effects.Dispatcher
	now         func() time.Time
}

// NewAssignmentService creates the assignment service.
func NewAssignmentService(
	assignments AssignmentStore,
	submissions SubmissionStore,
	courses AssignmentCourseStore,
	files AttachmentStore,
	storage filestorage.FileStorage,
	policy *auth.Policy,
	dispatcher *effects.Dispatcher,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		submissions: submissions,
		courses:     courses,
		files:       files,
		storage:     storage,
		policy:      policy,
		effects:     dispatcher,
		now:         time.Now,
	}
}

// Create adds an assignment to a course, unpublished unless the request
// publishes it immediately, in which case enrolled students are notified.
func (s *AssignmentService) Create(ctx context.Context, p *auth.Principal, courseID int64, req *dto.CreateAssignmentRequest) (*models.Assignment, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AssignmentWrite(p, course); err != nil {
		return nil, err
	}
	if len(req.Title) > models.MaxAssignmentTitleLen {
		return nil, apperrors.Invalid("title", "too long")
	}

	assignment := &models.Assignment{
		CourseID:             courseID,
		Title:                req.Title,
		Description:          req.Description,
		DueDate:              req.DueDate,
		TotalPoints:          req.TotalPoints,
		Type:                 req.Type,
		IsPublished:          req.IsPublished,
		AllowLateSubmissions: req.AllowLateSubmissions,
		LatePenalty:          req.LatePenalty,
		CreatedBy:            p.ID,
	}

	id, err := s.assignments.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}
	created, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if created.IsPublished {
		s.effects.AssignmentPublished(ctx, created, course, p.ID)
	}
	return created, nil
}

// Get returns one assignment with its attachments.
func (s *AssignmentService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrolledForViewer(ctx, p, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AssignmentView(p, course, assignment, enrolled); err != nil {
		return nil, err
	}

	if assignment.Attachments, err = s.files.ListByResource(ctx, models.ResourceAssignment, id); err != nil {
		return nil, err
	}
	return assignment, nil
}

// List returns the page of assignments visible to the caller, optionally
// restricted to one course.
func (s *AssignmentService) List(ctx context.Context, p *auth.Principal, courseID int64, values url.Values) (*dto.ListResult, error) {
	scope := auth.ScopeFor(p, auth.EntityAssignment)
	q := query.Parse(values, assignmentSchema)

	assignments, total, err := s.assignments.List(ctx, scope, courseID, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(assignments, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Update applies a partial assignment update.
func (s *AssignmentService) Update(ctx context.Context, p *auth.Principal, id int64, req *dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AssignmentWrite(p, course); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if len(*req.Title) > models.MaxAssignmentTitleLen {
			return nil, apperrors.Invalid("title", "too long")
		}
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = *req.DueDate
	}
	if req.TotalPoints != nil {
		assignment.TotalPoints = *req.TotalPoints
	}
	if req.Type != nil {
		assignment.Type = *req.Type
	}
	if req.AllowLateSubmissions != nil {
		assignment.AllowLateSubmissions = *req.AllowLateSubmissions
	}
	if req.LatePenalty != nil {
		assignment.LatePenalty = *req.LatePenalty
	}

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, err
	}
	return s.assignments.GetByID(ctx, id)
}

// Delete removes an assignment and its submissions.
func (s *AssignmentService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return err
	}
	if err := s.policy.AssignmentWrite(p, course); err != nil {
		return err
	}
	return s.assignments.Delete(ctx, id)
}

// Publish makes an assignment visible to enrolled students and notifies
// them. Publishing twice is a precondition failure.
func (s *AssignmentService) Publish(ctx context.Context, p *auth.Principal, id int64) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AssignmentPublish(p, course, assignment); err != nil {
		return nil, err
	}

	if err := s.assignments.Publish(ctx, id); err != nil {
		return nil, err
	}
	assignment.IsPublished = true

	s.effects.AssignmentPublished(ctx, assignment, course, p.ID)
	return assignment, nil
}

// Submit records a student's work and notifies the course teacher. A
// resubmission replaces the previous one; lateness and the late penalty are
// derived at write time.
func (s *AssignmentService) Submit(ctx context.Context, p *auth.Principal, assignmentID int64, req *dto.SubmitRequest) (*models.Submission, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.courses.IsEnrolled(ctx, assignment.CourseID, p.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.policy.SubmissionCreate(p, assignment, enrolled, now); err != nil {
		return nil, err
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    p.ID,
		SubmittedAt:  now,
		Content:      req.Content,
		Status:       models.SubmissionSubmitted,
	}
	submission.BeforeWrite(assignment)

	id, err := s.submissions.Upsert(ctx, submission)
	if err != nil {
		return nil, err
	}
	stored, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.effects.SubmissionReceived(ctx, stored, assignment, course)
	return stored, nil
}

// GetSubmission returns one submission with its attachments.
func (s *AssignmentService) GetSubmission(ctx context.Context, p *auth.Principal, id int64) (*models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.SubmissionView(p, course, submission); err != nil {
		return nil, err
	}

	if submission.Attachments, err = s.files.ListByResource(ctx, models.ResourceSubmission, id); err != nil {
		return nil, err
	}
	return submission, nil
}

// ListSubmissions returns the page of submissions visible to the caller
// for one assignment.
func (s *AssignmentService) ListSubmissions(ctx context.Context, p *auth.Principal, assignmentID int64, values url.Values) (*dto.ListResult, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		return nil, err
	}

	scope := auth.ScopeFor(p, auth.EntitySubmission)
	q := query.Parse(values, submissionSchema)

	submissions, total, err := s.submissions.List(ctx, scope, assignmentID, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(submissions, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// GradeSubmission scores a submission, applying the late penalty when it
// applies, and materializes the corresponding grade entry. The grade write
// is part of the operation: if it fails, grading fails.
func (s *AssignmentService) GradeSubmission(ctx context.Context, p *auth.Principal, submissionID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.SubmissionGrade(p, course); err != nil {
		return nil, err
	}
	if req.Score > assignment.TotalPoints {
		return nil, apperrors.Invalid("score", "exceeds total points")
	}

	score := req.Score
	if submission.IsLate && assignment.LatePenaltyApplies() {
		score = assignment.ApplyLatePenalty(score)
	}

	now := s.now()
	submission.Score = &score
	submission.Feedback = req.Feedback
	submission.GradedBy = &p.ID
	submission.GradedAt = &now
	submission.Status = models.SubmissionGraded
	submission.UpdatedAt = now

	if err := s.submissions.UpdateGrade(ctx, submission); err != nil {
		return nil, err
	}

	if _, err := s.effects.SubmissionGraded(ctx, submission, assignment, req.PublishGrade, p.ID); err != nil {
		return nil, err
	}
	return submission, nil
}

// AttachFile stores an uploaded file against an assignment or submission
// after the corresponding write check passes.
func (s *AssignmentService) AttachFile(ctx context.Context, p *auth.Principal, resourceType models.ResourceType, resourceID int64, header *multipart.FileHeader) (*models.File, error) {
	switch resourceType {
	case models.ResourceAssignment:
		assignment, err := s.assignments.GetByID(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		course, err := s.courses.GetByID(ctx, assignment.CourseID)
		if err != nil {
			return nil, err
		}
		if err := s.policy.AssignmentWrite(p, course); err != nil {
			return nil, err
		}
	case models.ResourceSubmission:
		submission, err := s.submissions.GetByID(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		if !p.IsStudent() || submission.StudentID != p.ID {
			return nil, apperrors.Forbidden("only the submitting student can attach files")
		}
	default:
		return nil, apperrors.Invalid("resourceType", "unknown resource type")
	}

	path, err := s.storage.SaveFile(header, string(resourceType)+"s")
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	file := &models.File{
		FileName:     header.Filename,
		FilePath:     path,
		FileSize:     header.Size,
		FileType:     header.Header.Get("Content-Type"),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		UploadedBy:   p.ID,
	}
	id, err := s.files.Create(ctx, file)
	if err != nil {
		return nil, err
	}
	file.ID = id
	return file, nil
}

func (s *AssignmentService) enrolledForViewer(ctx context.Context, p *auth.Principal, courseID int64) (bool, error) {
	switch {
	case p.IsStudent():
		return s.courses.IsEnrolled(ctx, courseID, p.ID)
	case p.IsParent():
		if len(p.Children) == 0 {
			return false, nil
		}
		return s.courses.IsEnrolled(ctx, courseID, p.Children...)
	}
	return false, nil
}
