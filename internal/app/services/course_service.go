package services

import (
	"context"
	"net/url"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// courseSchema is the public projection of the courses table.
var courseSchema = query.Schema{
	Columns: map[string]string{
		"id":           "id",
		"code":         "code",
		"name":         "name",
		"gradeLevel":   "grade_level",
		"academicYear": "academic_year",
		"semester":     "semester",
		"teacherId":    "teacher_id",
		"createdAt":    "created_at",
	},
	DefaultSort: "-createdAt",
}

// CourseStore is the subset of the course store the course service needs.
type CourseStore interface {
	Create(ctx context.Context, course *models.Course) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.Course, int64, error)
	Update(ctx context.Context, course *models.Course, replaceSchedule bool) error
	Delete(ctx context.Context, id int64) error
	EnrollStudents(ctx context.Context, courseID int64, studentIDs []int64) error
	UnenrollStudents(ctx context.Context, courseID int64, studentIDs []int64) error
	IsEnrolled(ctx context.Context, courseID int64, studentIDs ...int64) (bool, error)
	AddMaterial(ctx context.Context, material *models.CourseMaterial) (int64, error)
	RemoveMaterial(ctx context.Context, courseID, materialID int64) error
}

// RosterUserStore validates that enrolled IDs are active students.
type RosterUserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// CourseService handles course lifecycle, enrollment roster and materials.
type CourseService struct {
	courses CourseStore
	users   RosterUserStore
	policy  *auth.Policy
}

// NewCourseService creates the course service.
func NewCourseService(courses CourseStore, users RosterUserStore, policy *auth.Policy) *CourseService {
	return &CourseService{courses: courses, users: users, policy: policy}
}

// Create opens a new course. Teachers always become the course teacher
// themselves; only admins may assign someone else.
func (s *CourseService) Create(ctx context.Context, p *auth.Principal, req *dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.policy.CourseCreate(p); err != nil {
		return nil, err
	}
	if !req.Semester.Valid() {
		return nil, apperrors.Invalid("semester", "unknown semester")
	}

	teacherID := req.TeacherID
	if p.IsTeacher() || teacherID == 0 {
		teacherID = p.ID
	}
	if p.IsAdmin() && req.TeacherID != 0 {
		teacher, err := s.users.GetByID(ctx, req.TeacherID)
		if err != nil {
			return nil, err
		}
		if !teacher.IsTeacher() {
			return nil, apperrors.Invalid("teacherId", "not a teacher")
		}
	}

	course := &models.Course{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		TeacherID:    teacherID,
		Schedule:     scheduleFromInput(req.Schedule),
	}

	id, err := s.courses.Create(ctx, course)
	if err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, id)
}

// Get returns one course. A course that exists but is outside the caller's
// reach is a forbidden, not a missing, course.
func (s *CourseService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrolledForViewer(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CourseView(p, course, enrolled); err != nil {
		return nil, err
	}
	return course, nil
}

// List returns the page of courses visible to the caller.
func (s *CourseService) List(ctx context.Context, p *auth.Principal, values url.Values) (*dto.ListResult, error) {
	scope := auth.ScopeFor(p, auth.EntityCourse)
	q := query.Parse(values, courseSchema)

	courses, total, err := s.courses.List(ctx, scope, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(courses, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Update applies a partial course update. Reassigning the teacher is an
// admin move.
func (s *CourseService) Update(ctx context.Context, p *auth.Principal, id int64, req *dto.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CourseUpdate(p, course); err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.GradeLevel != nil {
		course.GradeLevel = *req.GradeLevel
	}
	if req.AcademicYear != nil {
		course.AcademicYear = *req.AcademicYear
	}
	if req.Semester != nil {
		if !req.Semester.Valid() {
			return nil, apperrors.Invalid("semester", "unknown semester")
		}
		course.Semester = *req.Semester
	}
	if req.TeacherID != nil {
		if !p.IsAdmin() {
			return nil, apperrors.Forbidden("only admins can reassign the course teacher")
		}
		teacher, err := s.users.GetByID(ctx, *req.TeacherID)
		if err != nil {
			return nil, err
		}
		if !teacher.IsTeacher() {
			return nil, apperrors.Invalid("teacherId", "not a teacher")
		}
		course.TeacherID = *req.TeacherID
	}

	replaceSchedule := req.Schedule != nil
	if replaceSchedule {
		course.Schedule = scheduleFromInput(req.Schedule)
	}

	if err := s.courses.Update(ctx, course, replaceSchedule); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, id)
}

// Delete removes a course and everything it owns.
func (s *CourseService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if err := s.policy.CourseDelete(p); err != nil {
		return err
	}
	if _, err := s.courses.GetByID(ctx, id); err != nil {
		return err
	}
	return s.courses.Delete(ctx, id)
}

// Enroll adds students to the roster. Every ID must name an active student.
func (s *CourseService) Enroll(ctx context.Context, p *auth.Principal, courseID int64, studentIDs []int64) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CourseManage(p, course); err != nil {
		return nil, err
	}

	for _, studentID := range studentIDs {
		student, err := s.users.GetByID(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if !student.IsStudent() {
			return nil, apperrors.Invalid("students", "all enrolled users must be students")
		}
	}

	if err := s.courses.EnrollStudents(ctx, courseID, studentIDs); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, courseID)
}

// Unenroll removes students from the roster.
func (s *CourseService) Unenroll(ctx context.Context, p *auth.Principal, courseID int64, studentIDs []int64) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CourseManage(p, course); err != nil {
		return nil, err
	}

	if err := s.courses.UnenrollStudents(ctx, courseID, studentIDs); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, courseID)
}

// Materials lists a course's materials for anyone who can view the course.
func (s *CourseService) Materials(ctx context.Context, p *auth.Principal, courseID int64) ([]models.CourseMaterial, error) {
	course, err := s.Get(ctx, p, courseID)
	if err != nil {
		return nil, err
	}
	return course.Materials, nil
}

// AddMaterial attaches a named URL to the course.
func (s *CourseService) AddMaterial(ctx context.Context, p *auth.Principal, courseID int64, req *dto.MaterialRequest) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CourseManage(p, course); err != nil {
		return nil, err
	}

	material := &models.CourseMaterial{
		CourseID: courseID,
		Name:     req.Name,
		URL:      req.URL,
		Type:     req.Type,
	}
	if _, err := s.courses.AddMaterial(ctx, material); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, courseID)
}

// RemoveMaterial detaches a material from the course.
func (s *CourseService) RemoveMaterial(ctx context.Context, p *auth.Principal, courseID, materialID int64) error {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if err := s.policy.CourseManage(p, course); err != nil {
		return err
	}
	return s.courses.RemoveMaterial(ctx, courseID, materialID)
}

// enrolledForViewer reports whether the caller, or one of a parent caller's
// children, is on the course roster.
func (s *CourseService) enrolledForViewer(ctx context.Context, p *auth.Principal, courseID int64) (bool, error) {
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

func scheduleFromInput(inputs []dto.ScheduleInput) []models.ScheduleEntry {
	entries := make([]models.ScheduleEntry, 0, len(inputs))
	for _, in := range inputs {
		entries = append(entries, models.ScheduleEntry{
			Day:       in.Day,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Room:      in.Room,
		})
	}
	return entries
}
