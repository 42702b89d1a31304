package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/effects"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/identity"
)

// Map-backed store doubles shared by the service tests. Each mock keeps
// just enough state for the behavior under test; errors are forced through
// the fail* fields.

type mockCourseStore struct {
	courses     map[int64]*models.Course
	enrollments map[int64][]int64 // courseID -> studentIDs
	materials   map[int64][]models.CourseMaterial
	nextID      int64
}

func newMockCourseStore() *mockCourseStore {
	return &mockCourseStore{
		courses:     make(map[int64]*models.Course),
		enrollments: make(map[int64][]int64),
		materials:   make(map[int64][]models.CourseMaterial),
	}
}

func (m *mockCourseStore) Create(_ context.Context, course *models.Course) (int64, error) {
	for _, existing := range m.courses {
		if existing.Code == course.Code {
			return 0, apperrors.Conflict("courses_code_key")
		}
	}
	m.nextID++
	course.ID = m.nextID
	m.courses[course.ID] = course
	return course.ID, nil
}

func (m *mockCourseStore) GetByID(_ context.Context, id int64) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, apperrors.NotFound("course", id)
	}
	return course, nil
}

func (m *mockCourseStore) IsEnrolled(_ context.Context, courseID int64, studentIDs ...int64) (bool, error) {
	for _, enrolled := range m.enrollments[courseID] {
		for _, id := range studentIDs {
			if enrolled == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockCourseStore) EnrollStudents(_ context.Context, courseID int64, studentIDs []int64) error {
	m.enrollments[courseID] = append(m.enrollments[courseID], studentIDs...)
	return nil
}

func (m *mockCourseStore) StudentIDs(_ context.Context, courseID int64) ([]int64, error) {
	return m.enrollments[courseID], nil
}

func (m *mockCourseStore) List(_ context.Context, _ auth.Scope, _ query.ListQuery) ([]*models.Course, int64, error) {
	out := make([]*models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *mockCourseStore) Update(_ context.Context, course *models.Course, _ bool) error {
	if _, ok := m.courses[course.ID]; !ok {
		return apperrors.NotFound("course", course.ID)
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseStore) Delete(_ context.Context, id int64) error {
	delete(m.courses, id)
	delete(m.enrollments, id)
	return nil
}

func (m *mockCourseStore) UnenrollStudents(_ context.Context, courseID int64, studentIDs []int64) error {
	var kept []int64
	for _, enrolled := range m.enrollments[courseID] {
		if !containsID(studentIDs, enrolled) {
			kept = append(kept, enrolled)
		}
	}
	m.enrollments[courseID] = kept
	return nil
}

func (m *mockCourseStore) AddMaterial(_ context.Context, material *models.CourseMaterial) (int64, error) {
	material.ID = int64(len(m.materials[material.CourseID]) + 1)
	m.materials[material.CourseID] = append(m.materials[material.CourseID], *material)
	course := m.courses[material.CourseID]
	course.Materials = m.materials[material.CourseID]
	return material.ID, nil
}

func (m *mockCourseStore) RemoveMaterial(_ context.Context, courseID, materialID int64) error {
	var kept []models.CourseMaterial
	for _, mat := range m.materials[courseID] {
		if mat.ID != materialID {
			kept = append(kept, mat)
		}
	}
	if len(kept) == len(m.materials[courseID]) {
		return apperrors.NotFound("material", materialID)
	}
	m.materials[courseID] = kept
	m.courses[courseID].Materials = kept
	return nil
}

type mockAssignmentStore struct {
	assignments map[int64]*models.Assignment
	nextID      int64
}

func newMockAssignmentStore() *mockAssignmentStore {
	return &mockAssignmentStore{assignments: make(map[int64]*models.Assignment)}
}

func (m *mockAssignmentStore) Create(_ context.Context, a *models.Assignment) (int64, error) {
	m.nextID++
	a.ID = m.nextID
	m.assignments[a.ID] = a
	return a.ID, nil
}

func (m *mockAssignmentStore) GetByID(_ context.Context, id int64) (*models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, apperrors.NotFound("assignment", id)
	}
	return a, nil
}

func (m *mockAssignmentStore) List(_ context.Context, _ auth.Scope, _ int64, _ query.ListQuery) ([]*models.Assignment, int64, error) {
	out := make([]*models.Assignment, 0, len(m.assignments))
	for _, a := range m.assignments {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *mockAssignmentStore) Update(_ context.Context, a *models.Assignment) error {
	if _, ok := m.assignments[a.ID]; !ok {
		return apperrors.NotFound("assignment", a.ID)
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *mockAssignmentStore) Delete(_ context.Context, id int64) error {
	delete(m.assignments, id)
	return nil
}

func (m *mockAssignmentStore) Publish(_ context.Context, id int64) error {
	a, ok := m.assignments[id]
	if !ok {
		return apperrors.NotFound("assignment", id)
	}
	a.IsPublished = true
	return nil
}

type mockSubmissionStore struct {
	submissions map[int64]*models.Submission
	nextID      int64
}

func newMockSubmissionStore() *mockSubmissionStore {
	return &mockSubmissionStore{submissions: make(map[int64]*models.Submission)}
}

func (m *mockSubmissionStore) Upsert(_ context.Context, s *models.Submission) (int64, error) {
	for id, existing := range m.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.StudentID == s.StudentID {
			s.ID = id
			m.submissions[id] = s
			return id, nil
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.submissions[s.ID] = s
	return s.ID, nil
}

func (m *mockSubmissionStore) GetByID(_ context.Context, id int64) (*models.Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return nil, apperrors.NotFound("submission", id)
	}
	return s, nil
}

func (m *mockSubmissionStore) List(_ context.Context, _ auth.Scope, assignmentID int64, _ query.ListQuery) ([]*models.Submission, int64, error) {
	var out []*models.Submission
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockSubmissionStore) UpdateGrade(_ context.Context, s *models.Submission) error {
	if _, ok := m.submissions[s.ID]; !ok {
		return apperrors.NotFound("submission", s.ID)
	}
	m.submissions[s.ID] = s
	return nil
}

type mockAttachmentStore struct {
	files  map[int64]*models.File
	nextID int64
}

func newMockAttachmentStore() *mockAttachmentStore {
	return &mockAttachmentStore{files: make(map[int64]*models.File)}
}

func (m *mockAttachmentStore) Create(_ context.Context, f *models.File) (int64, error) {
	m.nextID++
	f.ID = m.nextID
	m.files[f.ID] = f
	return f.ID, nil
}

func (m *mockAttachmentStore) ListByResource(_ context.Context, resourceType models.ResourceType, resourceID int64) ([]models.File, error) {
	var out []models.File
	for _, f := range m.files {
		if f.ResourceType == resourceType && f.ResourceID == resourceID {
			out = append(out, *f)
		}
	}
	return out, nil
}

type mockGradeStore struct {
	grades     map[int64]*models.Grade
	nextID     int64
	failUpsert error
}

func newMockGradeStore() *mockGradeStore {
	return &mockGradeStore{grades: make(map[int64]*models.Grade)}
}

func gradeKey(g *models.Grade) string {
	assignmentID := int64(0)
	if g.AssignmentID != nil {
		assignmentID = *g.AssignmentID
	}
	return fmt.Sprintf("%d/%d/%d/%s", g.StudentID, g.CourseID, assignmentID, g.Type)
}

func (m *mockGradeStore) Upsert(_ context.Context, g *models.Grade) (int64, error) {
	if m.failUpsert != nil {
		return 0, m.failUpsert
	}
	for id, existing := range m.grades {
		if gradeKey(existing) == gradeKey(g) {
			g.ID = id
			m.grades[id] = g
			return id, nil
		}
	}
	m.nextID++
	g.ID = m.nextID
	m.grades[g.ID] = g
	return g.ID, nil
}

func (m *mockGradeStore) GetByID(_ context.Context, id int64) (*models.Grade, error) {
	g, ok := m.grades[id]
	if !ok {
		return nil, apperrors.NotFound("grade", id)
	}
	return g, nil
}

func (m *mockGradeStore) List(_ context.Context, _ auth.Scope, _ query.ListQuery) ([]*models.Grade, int64, error) {
	out := make([]*models.Grade, 0, len(m.grades))
	for _, g := range m.grades {
		out = append(out, g)
	}
	return out, int64(len(out)), nil
}

func (m *mockGradeStore) Update(_ context.Context, g *models.Grade) error {
	if _, ok := m.grades[g.ID]; !ok {
		return apperrors.NotFound("grade", g.ID)
	}
	m.grades[g.ID] = g
	return nil
}

func (m *mockGradeStore) Delete(_ context.Context, id int64) error {
	delete(m.grades, id)
	return nil
}

func (m *mockGradeStore) Summary(_ context.Context, studentID, courseID int64, publishedOnly bool) (*dto.GradeSummary, error) {
	summary := &dto.GradeSummary{StudentID: studentID, CourseID: courseID}
	var sum, count float64
	for _, g := range m.grades {
		if g.StudentID != studentID || g.CourseID != courseID {
			continue
		}
		if publishedOnly && !g.IsPublished {
			continue
		}
		sum += g.Percentage
		count++
	}
	if count > 0 {
		summary.Overall = sum / count
		summary.LetterGrade = models.LetterFor(summary.Overall)
	}
	return summary, nil
}

type mockAttendanceStore struct {
	records map[int64]*models.Attendance
	nextID  int64
}

func newMockAttendanceStore() *mockAttendanceStore {
	return &mockAttendanceStore{records: make(map[int64]*models.Attendance)}
}

func (m *mockAttendanceStore) Upsert(_ context.Context, a *models.Attendance) (int64, error) {
	for id, existing := range m.records {
		if existing.StudentID == a.StudentID && existing.CourseID == a.CourseID && existing.Date.Equal(a.Date) {
			a.ID = id
			m.records[id] = a
			return id, nil
		}
	}
	m.nextID++
	a.ID = m.nextID
	m.records[a.ID] = a
	return a.ID, nil
}

func (m *mockAttendanceStore) GetByID(_ context.Context, id int64) (*models.Attendance, error) {
	a, ok := m.records[id]
	if !ok {
		return nil, apperrors.NotFound("attendance", id)
	}
	return a, nil
}

func (m *mockAttendanceStore) List(_ context.Context, _ auth.Scope, _ query.ListQuery) ([]*models.Attendance, int64, error) {
	out := make([]*models.Attendance, 0, len(m.records))
	for _, a := range m.records {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *mockAttendanceStore) Delete(_ context.Context, id int64) error {
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceStore) Stats(_ context.Context, studentID, courseID int64) (*dto.AttendanceStats, error) {
	stats := &dto.AttendanceStats{StudentID: studentID, CourseID: courseID}
	for _, a := range m.records {
		if a.StudentID != studentID || a.CourseID != courseID {
			continue
		}
		stats.TotalDays++
		switch a.Status {
		case models.AttendancePresent:
			stats.Present++
		case models.AttendanceAbsent:
			stats.Absent++
		case models.AttendanceLate:
			stats.Late++
		case models.AttendanceExcused:
			stats.Excused++
		}
	}
	if stats.TotalDays > 0 {
		stats.AttendanceRate = float64(stats.Present+stats.Late) / float64(stats.TotalDays) * 100
	}
	return stats, nil
}

type mockEnrollmentStore struct {
	requests map[int64]*models.EnrollmentRequest
	nextID   int64
}

func newMockEnrollmentStore() *mockEnrollmentStore {
	return &mockEnrollmentStore{requests: make(map[int64]*models.EnrollmentRequest)}
}

func (m *mockEnrollmentStore) Create(_ context.Context, r *models.EnrollmentRequest) (int64, error) {
	m.nextID++
	r.ID = m.nextID
	m.requests[r.ID] = r
	return r.ID, nil
}

func (m *mockEnrollmentStore) GetByID(_ context.Context, id int64) (*models.EnrollmentRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, apperrors.NotFound("enrollmentRequest", id)
	}
	return r, nil
}

func (m *mockEnrollmentStore) GetByStudentAndCourse(_ context.Context, studentID, courseID int64) (*models.EnrollmentRequest, error) {
	for _, r := range m.requests {
		if r.StudentID == studentID && r.CourseID == courseID {
			return r, nil
		}
	}
	return nil, apperrors.NotFound("enrollmentRequest", 0)
}

func (m *mockEnrollmentStore) List(_ context.Context, _ auth.Scope, _ query.ListQuery) ([]*models.EnrollmentRequest, int64, error) {
	out := make([]*models.EnrollmentRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (m *mockEnrollmentStore) Update(_ context.Context, r *models.EnrollmentRequest) error {
	if _, ok := m.requests[r.ID]; !ok {
		return apperrors.NotFound("enrollmentRequest", r.ID)
	}
	m.requests[r.ID] = r
	return nil
}

func (m *mockEnrollmentStore) Delete(_ context.Context, id int64) error {
	delete(m.requests, id)
	return nil
}

type mockUserStore struct {
	users    map[int64]*models.User
	teachers map[int64][]int64 // studentID -> teacherIDs
	nextID   int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:    make(map[int64]*models.User),
		teachers: make(map[int64][]int64),
	}
}

func (m *mockUserStore) Create(_ context.Context, u *models.User) (int64, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, apperrors.Conflict("users_email_key")
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *mockUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return u, nil
}

func (m *mockUserStore) List(_ context.Context, _ query.ListQuery) ([]*models.User, int64, error) {
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserStore) Update(_ context.Context, u *models.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID)
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", 0)
}

func (m *mockUserStore) GetByFederatedUID(_ context.Context, uid string) (*models.User, error) {
	for _, u := range m.users {
		if u.FederatedUID != nil && *u.FederatedUID == uid {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", 0)
}

func (m *mockUserStore) LinkFederatedUID(_ context.Context, userID int64, uid string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	u.FederatedUID = &uid
	return nil
}

func (m *mockUserStore) ChildrenOf(_ context.Context, parentID int64) ([]int64, error) {
	u, ok := m.users[parentID]
	if !ok {
		return nil, nil
	}
	return u.Children, nil
}

func (m *mockUserStore) ParentsOf(_ context.Context, studentID int64) ([]int64, error) {
	u, ok := m.users[studentID]
	if !ok {
		return nil, nil
	}
	return u.Parents, nil
}

func (m *mockUserStore) TeachersOf(_ context.Context, studentID int64) ([]int64, error) {
	return m.teachers[studentID], nil
}

// Effect sink doubles.

type mockNotificationSink struct {
	mu      sync.Mutex
	batches [][]*models.Notification
	failErr error
}

func (m *mockNotificationSink) CreateBatch(_ context.Context, batch []*models.Notification) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockNotificationSink) all() []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, batch := range m.batches {
		out = append(out, batch...)
	}
	return out
}

func (m *mockNotificationSink) recipients() []int64 {
	var out []int64
	for _, n := range m.all() {
		out = append(out, n.RecipientID)
	}
	return out
}

type pushedEvent struct {
	UserID    int64
	EventType string
}

type mockPusher struct {
	mu     sync.Mutex
	pushes []pushedEvent
}

func (m *mockPusher) PushToUser(userID int64, eventType string, _ interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes = append(m.pushes, pushedEvent{UserID: userID, EventType: eventType})
}

type mockRelationSource struct {
	parents map[int64][]int64 // studentID -> parentIDs
}

func (m *mockRelationSource) ParentsOf(_ context.Context, studentID int64) ([]int64, error) {
	return m.parents[studentID], nil
}

// fakeVerifier implements identity.TokenVerifier for federated login tests.
type fakeVerifier struct {
	identities map[string]*identity.FederatedIdentity // token -> identity
}

func (f *fakeVerifier) Verify(_ context.Context, idToken string) (*identity.FederatedIdentity, error) {
	ident, ok := f.identities[idToken]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}
	return ident, nil
}

// testDispatcher wires a real dispatcher over the mock sinks so service
// tests can observe fan-out.
func testDispatcher(sink *mockNotificationSink, pusher *mockPusher, relations *mockRelationSource, courses *mockCourseStore, grades *mockGradeStore) *effects.Dispatcher {
	return effects.NewDispatcher(sink, pusher, relations, courses, grades, zerolog.Nop())
}

func containsID(ids []int64, want int64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
