package services

import (
	"context"
	"net/url"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/effects"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// attendanceSchema is the public projection of the attendance table.
var attendanceSchema = query.Schema{
	Columns: map[string]string{
		"id":        "id",
		"studentId": "student_id",
		"courseId":  "course_id",
		"date":      "date",
		"status":    "status",
	},
	DefaultSort: "-date",
}

// AttendanceStore is the subset of the attendance store the service needs.
type AttendanceStore interface {
	Upsert(ctx context.Context, a *models.Attendance) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Attendance, error)
	List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.Attendance, int64, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, studentID, courseID int64) (*dto.AttendanceStats, error)
}

// AttendanceCourseStore resolves the owning course and enrollment state.
type AttendanceCourseStore interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID int64, studentIDs ...int64) (bool, error)
}

// AttendanceService records and reports class attendance.
type AttendanceService struct {
	attendance AttendanceStore
	courses    AttendanceCourseStore
	policy     *auth.Policy
	effects    *effects.Dispatcher
}

// NewAttendanceService creates the attendance service.
func NewAttendanceService(attendance AttendanceStore, courses AttendanceCourseStore, policy *auth.Policy, dispatcher *effects.Dispatcher) *AttendanceService {
	return &AttendanceService{attendance: attendance, courses: courses, policy: policy, effects: dispatcher}
}

// Record writes one attendance record; re-recording the same day updates
// in place. Absent and late records notify the student and their parents.
func (s *AttendanceService) Record(ctx context.Context, p *auth.Principal, req *dto.RecordAttendanceRequest) (*models.Attendance, error) {
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AttendanceRecord(p, course); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperrors.Invalid("status", "unknown attendance status")
	}

	enrolled, err := s.courses.IsEnrolled(ctx, req.CourseID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperrors.FailedPrecondition("student is not enrolled in this course")
	}

	record := &models.Attendance{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		Date:         req.Date,
		Status:       req.Status,
		LateMinutes:  req.LateMinutes,
		ExcuseReason: req.ExcuseReason,
		RecordedBy:   p.ID,
	}
	record.NormalizeDate()

	id, err := s.attendance.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	saved, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.effects.AttendanceRecorded(ctx, saved)
	return saved, nil
}

// BulkRecord writes a whole class session. Rows are recorded
// independently; the first failure aborts the remainder.
func (s *AttendanceService) BulkRecord(ctx context.Context, p *auth.Principal, req *dto.BulkAttendanceRequest) ([]*models.Attendance, error) {
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AttendanceRecord(p, course); err != nil {
		return nil, err
	}

	records := make([]*models.Attendance, 0, len(req.Records))
	for _, entry := range req.Records {
		saved, err := s.Record(ctx, p, &dto.RecordAttendanceRequest{
			StudentID:    entry.StudentID,
			CourseID:     req.CourseID,
			Date:         req.Date,
			Status:       entry.Status,
			LateMinutes:  entry.LateMinutes,
			ExcuseReason: entry.ExcuseReason,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, saved)
	}
	return records, nil
}

// Get returns one attendance record.
func (s *AttendanceService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.Attendance, error) {
	record, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, record.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AttendanceView(p, course, record); err != nil {
		return nil, err
	}
	return record, nil
}

// List returns the page of attendance records visible to the caller.
func (s *AttendanceService) List(ctx context.Context, p *auth.Principal, values url.Values) (*dto.ListResult, error) {
	scope := auth.ScopeFor(p, auth.EntityAttendance)
	q := query.Parse(values, attendanceSchema)

	records, total, err := s.attendance.List(ctx, scope, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(records, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	record, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		return err
	}
	course, err := s.courses.GetByID(ctx, record.CourseID)
	if err != nil {
		return err
	}
	if err := s.policy.AttendanceRecord(p, course); err != nil {
		return err
	}
	return s.attendance.Delete(ctx, id)
}

// Stats summarizes a student's attendance within a course for anyone who
// may view that student's records.
func (s *AttendanceService) Stats(ctx context.Context, p *auth.Principal, studentID, courseID int64) (*dto.AttendanceStats, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	probe := &models.Attendance{StudentID: studentID, CourseID: courseID}
	if err := s.policy.AttendanceView(p, course, probe); err != nil {
		return nil, err
	}
	return s.attendance.Stats(ctx, studentID, courseID)
}
