package services

import (
	"context"
	"testing"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

type courseFixture struct {
	svc     *CourseService
	courses *mockCourseStore
	users   *mockUserStore
	admin   *auth.Principal
	teacher *auth.Principal
	student *auth.Principal
}

func setupCourseTest(t *testing.T) *courseFixture {
	t.Helper()

	courses := newMockCourseStore()
	users := newMockUserStore()
	svc := NewCourseService(courses, users, auth.NewPolicy())

	users.users[10] = &models.User{ID: 10, Role: models.RoleTeacher, IsActive: true}
	users.users[11] = &models.User{ID: 11, Role: models.RoleTeacher, IsActive: true}
	users.users[100] = &models.User{ID: 100, Role: models.RoleStudent, IsActive: true}
	users.users[101] = &models.User{ID: 101, Role: models.RoleStudent, IsActive: true}
	users.nextID = 101

	return &courseFixture{
		svc:     svc,
		courses: courses,
		users:   users,
		admin:   &auth.Principal{ID: 1, Role: models.RoleAdmin},
		teacher: &auth.Principal{ID: 10, Role: models.RoleTeacher},
		student: &auth.Principal{ID: 100, Role: models.RoleStudent},
	}
}

func (f *courseFixture) createCourse(t *testing.T) *models.Course {
	t.Helper()
	course, err := f.svc.Create(context.Background(), f.teacher, &dto.CreateCourseRequest{
		Code:         "MATH-101",
		Name:         "Algebra",
		GradeLevel:   9,
		AcademicYear: "2025-2026",
		Semester:     models.SemesterSpring,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return course
}

func TestCourseCreateTeacherSelfAssigns(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	if course.TeacherID != f.teacher.ID {
		t.Errorf("teacher callers self-assign, got teacherID %d", course.TeacherID)
	}
}

func TestCourseCreateAdminAssignsTeacher(t *testing.T) {
	f := setupCourseTest(t)

	course, err := f.svc.Create(context.Background(), f.admin, &dto.CreateCourseRequest{
		Code: "LIT-201", Name: "Literature", GradeLevel: 10, AcademicYear: "2025-2026",
		Semester: models.SemesterFall, TeacherID: 11,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if course.TeacherID != 11 {
		t.Errorf("teacherID = %d, want 11", course.TeacherID)
	}
}

func TestCourseCreateRejectsNonTeacherAssignment(t *testing.T) {
	f := setupCourseTest(t)

	_, err := f.svc.Create(context.Background(), f.admin, &dto.CreateCourseRequest{
		Code: "LIT-201", Name: "Literature", GradeLevel: 10, AcademicYear: "2025-2026",
		Semester: models.SemesterFall, TeacherID: 100, // a student
	})
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("assigning a student as course teacher should be invalid, got %v", err)
	}
}

func TestCourseCreateInvalidSemester(t *testing.T) {
	f := setupCourseTest(t)

	_, err := f.svc.Create(context.Background(), f.teacher, &dto.CreateCourseRequest{
		Code: "X-1", Name: "X", GradeLevel: 9, AcademicYear: "2025-2026", Semester: "Winter",
	})
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("unknown semester should be invalid, got %v", err)
	}
}

func TestCourseGetGating(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	if _, err := f.svc.Get(context.Background(), f.student, course.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("unenrolled student should be forbidden, got %v", err)
	}

	if _, err := f.svc.Enroll(context.Background(), f.teacher, course.ID, []int64{100}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), f.student, course.ID); err != nil {
		t.Errorf("enrolled student should see the course, got %v", err)
	}
}

func TestCourseEnrollRejectsNonStudents(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	_, err := f.svc.Enroll(context.Background(), f.teacher, course.ID, []int64{11})
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("enrolling a teacher should be invalid, got %v", err)
	}
}

func TestCourseUnenroll(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)
	if _, err := f.svc.Enroll(context.Background(), f.teacher, course.ID, []int64{100, 101}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	if _, err := f.svc.Unenroll(context.Background(), f.teacher, course.ID, []int64{100}); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}

	enrolled, _ := f.courses.IsEnrolled(context.Background(), course.ID, 100)
	if enrolled {
		t.Error("student 100 should be off the roster")
	}
	enrolled, _ = f.courses.IsEnrolled(context.Background(), course.ID, 101)
	if !enrolled {
		t.Error("student 101 should remain on the roster")
	}
}

func TestCourseUpdateTeacherReassignmentAdminOnly(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	newTeacher := int64(11)
	_, err := f.svc.Update(context.Background(), f.teacher, course.ID, &dto.UpdateCourseRequest{TeacherID: &newTeacher})
	if apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("teacher cannot reassign the course, got %v", err)
	}

	updated, err := f.svc.Update(context.Background(), f.admin, course.ID, &dto.UpdateCourseRequest{TeacherID: &newTeacher})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.TeacherID != 11 {
		t.Errorf("teacherID = %d, want 11", updated.TeacherID)
	}
}

func TestCourseDeleteAdminOnly(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	if err := f.svc.Delete(context.Background(), f.teacher, course.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("only admins delete courses, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), f.admin, course.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.courses.GetByID(context.Background(), course.ID); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("deleted course should be gone, got %v", err)
	}
}

func TestCourseMaterials(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	withMaterial, err := f.svc.AddMaterial(context.Background(), f.teacher, course.ID, &dto.MaterialRequest{
		Name: "Syllabus", URL: "https://example.com/syllabus.pdf", Type: "document",
	})
	if err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}
	if len(withMaterial.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(withMaterial.Materials))
	}

	if err := f.svc.RemoveMaterial(context.Background(), f.teacher, course.ID, withMaterial.Materials[0].ID); err != nil {
		t.Fatalf("RemoveMaterial: %v", err)
	}

	other := &auth.Principal{ID: 11, Role: models.RoleTeacher}
	_, err = f.svc.AddMaterial(context.Background(), other, course.ID, &dto.MaterialRequest{
		Name: "x", URL: "https://example.com/x", Type: "link",
	})
	if apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("non-owning teacher cannot manage materials, got %v", err)
	}
}

func TestCourseMaterialsListingFollowsViewAccess(t *testing.T) {
	f := setupCourseTest(t)
	course := f.createCourse(t)

	if _, err := f.svc.AddMaterial(context.Background(), f.teacher, course.ID, &dto.MaterialRequest{
		Name: "Syllabus", URL: "https://example.com/syllabus.pdf", Type: "document",
	}); err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}

	if _, err := f.svc.Materials(context.Background(), f.student, course.ID); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("unenrolled student cannot list materials, got %v", err)
	}

	if _, err := f.svc.Enroll(context.Background(), f.teacher, course.ID, []int64{100}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	materials, err := f.svc.Materials(context.Background(), f.student, course.ID)
	if err != nil {
		t.Fatalf("Materials: %v", err)
	}
	if len(materials) != 1 || materials[0].Name != "Syllabus" {
		t.Errorf("expected the added material, got %v", materials)
	}
}
