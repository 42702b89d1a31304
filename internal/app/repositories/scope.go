package repositories

import (
	"github.com/Masterminds/squirrel"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
)

// teacherCourses builds the "courses taught by this teacher" sub-select
// applied to a course-bearing column.
func teacherCourses(column string, teacherID int64) squirrel.Sqlizer {
	return squirrel.Expr(column+" IN (SELECT id FROM courses WHERE teacher_id = ?)", teacherID)
}

// enrolledCourses builds the "courses any of these students attend"
// sub-select applied to a course-bearing column.
func enrolledCourses(column string, studentIDs []int64) squirrel.Sqlizer {
	return squirrel.Expr(
		column+" IN (SELECT course_id FROM course_students WHERE student_id = ANY(?))",
		studentIDs,
	)
}

// scopeColumns names the columns a scope predicate binds to for one table.
// Leave a column empty when the axis does not apply.
type scopeColumns struct {
	// CourseID is the column holding the owning course for teacher scopes.
	CourseID string
	// TeacherID, when set, is matched directly instead of through CourseID.
	TeacherID string
	// StudentID is the column holding the owning student.
	StudentID string
	// EnrolledVia, when set, resolves student scopes through course
	// enrollment instead of direct row ownership (course listings).
	EnrolledVia string
	// Published is the published flag column for PublishedOnly scopes.
	Published string
}

// applyScope compiles a visibility predicate onto a select builder. The
// returned bool is false when the scope admits nothing; callers short-circuit
// to an empty result without touching the database.
func applyScope(b squirrel.SelectBuilder, s auth.Scope, cols scopeColumns) (squirrel.SelectBuilder, bool) {
	if s.None {
		return b, false
	}

	if !s.All {
		switch {
		case s.TeacherID != 0 && cols.TeacherID != "":
			b = b.Where(squirrel.Eq{cols.TeacherID: s.TeacherID})
		case s.TeacherID != 0 && cols.CourseID != "":
			b = b.Where(teacherCourses(cols.CourseID, s.TeacherID))
		case len(s.StudentIDs) > 0 && cols.StudentID != "":
			b = b.Where(squirrel.Eq{cols.StudentID: s.StudentIDs})
		case len(s.StudentIDs) > 0 && cols.EnrolledVia != "":
			b = b.Where(enrolledCourses(cols.EnrolledVia, s.StudentIDs))
		default:
			// A non-admin scope with no matching axis admits nothing.
			return b, false
		}
	}

	if s.PublishedOnly && cols.Published != "" {
		b = b.Where(squirrel.Eq{cols.Published: true})
	}

	return b, true
}
