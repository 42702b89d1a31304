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

// enrollmentSchema is the public projection of the enrollment_requests table.
var enrollmentSchema = query.Schema{
	Columns: map[string]string{
		"id":          "id",
		"studentId":   "student_id",
		"courseId":    "course_id",
		"status":      "status",
		"requestDate": "request_date",
	},
	DefaultSort: "-requestDate",
}

// EnrollmentStore is the subset of the enrollment request store the
// service needs.
type EnrollmentStore interface {
	Create(ctx context.Context, req *models.EnrollmentRequest) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.EnrollmentRequest, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.EnrollmentRequest, error)
	List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.EnrollmentRequest, int64, error)
	Update(ctx context.Context, req *models.EnrollmentRequest) error
	Delete(ctx context.Context, id int64) error
}

// EnrollmentCourseStore resolves courses and applies roster changes.
type EnrollmentCourseStore interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID int64, studentIDs ...int64) (bool, error)
	EnrollStudents(ctx context.Context, courseID int64, studentIDs []int64) error
}

// EnrollmentService runs the enrollment request state machine:
// pending -> approved | rejected, with rejected requests reset back to
// pending on re-request and approved absorbing.
type EnrollmentService struct {
	requests EnrollmentStore
	courses  EnrollmentCourseStore
	policy   *auth.Policy
	effects  *effects.Dispatcher
	now      func() time.Time
}

// NewEnrollmentService creates the enrollment service.
func NewEnrollmentService(requests EnrollmentStore, courses EnrollmentCourseStore, policy *auth.Policy, dispatcher *effects.Dispatcher) *EnrollmentService {
	return &EnrollmentService{requests: requests, courses: courses, policy: policy, effects: dispatcher, now: time.Now}
}

// Create opens an enrollment request for the calling student. A pending
// request for the pair is a conflict; a rejected one is reset to pending;
// an approved one, or current enrollment, is a precondition failure.
func (s *EnrollmentService) Create(ctx context.Context, p *auth.Principal, req *dto.CreateEnrollmentRequest) (*models.EnrollmentRequest, error) {
	if err := s.policy.EnrollmentRequestCreate(p); err != nil {
		return nil, err
	}
	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, req.CourseID, p.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, apperrors.FailedPrecondition("already enrolled in this course")
	}

	existing, err := s.requests.GetByStudentAndCourse(ctx, p.ID, req.CourseID)
	if err != nil && apperrors.KindOf(err) != apperrors.KindNotFound {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.EnrollmentPending:
			return nil, apperrors.Conflict("enrollmentRequest")
		case models.EnrollmentApproved:
			return nil, apperrors.FailedPrecondition("already enrolled in this course")
		case models.EnrollmentRejected:
			existing.Reset(s.now())
			existing.Notes = req.Notes
			if err := s.requests.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	request := &models.EnrollmentRequest{
		StudentID:   p.ID,
		CourseID:    req.CourseID,
		Status:      models.EnrollmentPending,
		RequestDate: s.now(),
		Notes:       req.Notes,
	}
	id, err := s.requests.Create(ctx, request)
	if err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, id)
}

// Get returns one enrollment request.
func (s *EnrollmentService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.EnrollmentRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, request.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnrollmentView(p, course, request); err != nil {
		return nil, err
	}
	return request, nil
}

// List returns the page of enrollment requests visible to the caller.
func (s *EnrollmentService) List(ctx context.Context, p *auth.Principal, values url.Values) (*dto.ListResult, error) {
	scope := auth.ScopeFor(p, auth.EntityEnrollmentRequest)
	q := query.Parse(values, enrollmentSchema)

	requests, total, err := s.requests.List(ctx, scope, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(requests, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Decide approves or rejects a pending request. Approval also puts the
// student on the roster; either outcome notifies the student.
func (s *EnrollmentService) Decide(ctx context.Context, p *auth.Principal, id int64, req *dto.DecideEnrollmentRequest) (*models.EnrollmentRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, request.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnrollmentDecide(p, course, request); err != nil {
		return nil, err
	}

	now := s.now()
	request.Status = models.EnrollmentRejected
	if req.Approve {
		request.Status = models.EnrollmentApproved
	}
	request.ResponseDate = &now
	request.ResponseBy = &p.ID
	if req.Notes != "" {
		request.Notes = req.Notes
	}

	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	if req.Approve {
		if err := s.courses.EnrollStudents(ctx, request.CourseID, []int64{request.StudentID}); err != nil {
			return nil, err
		}
	}

	s.effects.EnrollmentDecided(ctx, request, course.Name, p.ID)
	return request, nil
}

// Cancel withdraws the calling student's own pending request.
func (s *EnrollmentService) Cancel(ctx context.Context, p *auth.Principal, id int64) error {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.EnrollmentCancel(p, request); err != nil {
		return err
	}
	return s.requests.Delete(ctx, id)
}
