package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/dberrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// CourseRepository handles database operations for courses, their schedule
// slots, materials and enrollment roster.
type CourseRepository struct {
	DB *pgxpool.Pool
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{DB: db}
}

var courseColumns = []string{
	"id", "code", "name", "description", "grade_level", "academic_year",
	"semester", "teacher_id", "created_at", "updated_at",
}

var courseScope = scopeColumns{
	TeacherID:   "teacher_id",
	EnrolledVia: "id",
}

func (r *CourseRepository) selectCourseQuery() squirrel.SelectBuilder {
	return squirrel.Select(courseColumns...).
		From("courses").
		PlaceholderFormat(squirrel.Dollar)
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var course models.Course
	err := row.Scan(
		&course.ID, &course.Code, &course.Name, &course.Description,
		&course.GradeLevel, &course.AcademicYear, &course.Semester,
		&course.TeacherID, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course together with its schedule slots.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (int64, error) {
	sqlStr, args, err := squirrel.Insert("courses").
		Columns("code", "name", "description", "grade_level", "academic_year", "semester", "teacher_id").
		Values(course.Code, course.Name, course.Description, course.GradeLevel,
			course.AcademicYear, course.Semester, course.TeacherID).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		if dberrors.IsUniqueViolation(err, dberrors.ConstraintCourseCode) {
			return 0, apperrors.Conflict("code")
		}
		logger.Error().Err(err).Msg("Error executing create course query")
		return 0, err
	}

	if len(course.Schedule) > 0 {
		if err := r.replaceSchedule(ctx, id, course.Schedule); err != nil {
			return 0, err
		}
	}

	return id, nil
}

// GetByID retrieves a course with its roster, schedule and materials loaded.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sqlStr, args, err := r.selectCourseQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	course, err := scanCourse(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("course", id)
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course")
		return nil, err
	}

	if course.StudentIDs, err = r.StudentIDs(ctx, id); err != nil {
		return nil, err
	}
	if course.Schedule, err = r.schedule(ctx, id); err != nil {
		return nil, err
	}
	if course.Materials, err = r.materials(ctx, id); err != nil {
		return nil, err
	}
	return course, nil
}

// List retrieves the page of courses visible under the scope.
func (r *CourseRepository) List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.Course, int64, error) {
	base, visible := applyScope(r.selectCourseQuery(), scope, courseScope)
	if !visible {
		return nil, 0, nil
	}

	builder := q.ApplyPagination(q.ApplySort(q.ApplyFilters(base)))
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, 0, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, scope, q)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *CourseRepository) count(ctx context.Context, scope auth.Scope, q query.ListQuery) (int64, error) {
	base, visible := applyScope(
		squirrel.Select("count(*)").From("courses").PlaceholderFormat(squirrel.Dollar),
		scope, courseScope,
	)
	if !visible {
		return 0, nil
	}

	sqlStr, args, err := q.ApplyFilters(base).ToSql()
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Update persists the mutable course fields and replaces the schedule when
// one is supplied.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course, replaceSchedule bool) error {
	sqlStr, args, err := squirrel.Update("courses").
		Set("name", course.Name).
		Set("description", course.Description).
		Set("grade_level", course.GradeLevel).
		Set("academic_year", course.AcademicYear).
		Set("semester", course.Semester).
		Set("teacher_id", course.TeacherID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": course.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("course", course.ID)
	}

	if replaceSchedule {
		return r.replaceSchedule(ctx, course.ID, course.Schedule)
	}
	return nil
}

// Delete removes a course. Assignments, roster rows, schedule and materials
// go with it via cascading keys.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("course", id)
	}
	return nil
}

// EnrollStudents adds students to the roster; already-enrolled students are
// left alone.
func (r *CourseRepository) EnrollStudents(ctx context.Context, courseID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}

	builder := squirrel.Insert("course_students").
		Columns("course_id", "student_id").
		PlaceholderFormat(squirrel.Dollar).
		Suffix("ON CONFLICT DO NOTHING")
	for _, studentID := range studentIDs {
		builder = builder.Values(courseID, studentID)
	}
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.DB.Exec(ctx, sqlStr, args...); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NotFound("student", 0)
		}
		return err
	}
	return nil
}

// UnenrollStudents removes students from the roster.
func (r *CourseRepository) UnenrollStudents(ctx context.Context, courseID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}

	sqlStr, args, err := squirrel.Delete("course_students").
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentIDs}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, sqlStr, args...)
	return err
}

// IsEnrolled reports whether any of the given students is on the roster.
func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID int64, studentIDs ...int64) (bool, error) {
	if len(studentIDs) == 0 {
		return false, nil
	}

	sqlStr, args, err := squirrel.Select("1").
		From("course_students").
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentIDs}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.DB.QueryRow(ctx, sqlStr, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StudentIDs returns the course roster.
func (r *CourseRepository) StudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	sqlStr, args, err := squirrel.Select("student_id").
		From("course_students").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("student_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMaterial attaches a named URL to the course.
func (r *CourseRepository) AddMaterial(ctx context.Context, material *models.CourseMaterial) (int64, error) {
	sqlStr, args, err := squirrel.Insert("course_materials").
		Columns("course_id", "name", "url", "type").
		Values(material.CourseID, material.Name, material.URL, material.Type).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveMaterial detaches a material from its course.
func (r *CourseRepository) RemoveMaterial(ctx context.Context, courseID, materialID int64) error {
	sqlStr, args, err := squirrel.Delete("course_materials").
		Where(squirrel.Eq{"id": materialID, "course_id": courseID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("material", materialID)
	}
	return nil
}

func (r *CourseRepository) schedule(ctx context.Context, courseID int64) ([]models.ScheduleEntry, error) {
	sqlStr, args, err := squirrel.Select("id", "course_id", "day", "start_time", "end_time", "room").
		From("course_schedule").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.CourseID, &e.Day, &e.StartTime, &e.EndTime, &e.Room); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *CourseRepository) materials(ctx context.Context, courseID int64) ([]models.CourseMaterial, error) {
	sqlStr, args, err := squirrel.Select("id", "course_id", "name", "url", "type", "created_at").
		From("course_materials").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []models.CourseMaterial
	for rows.Next() {
		var m models.CourseMaterial
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Name, &m.URL, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// replaceSchedule swaps the course schedule wholesale.
func (r *CourseRepository) replaceSchedule(ctx context.Context, courseID int64, entries []models.ScheduleEntry) error {
	delSQL, delArgs, err := squirrel.Delete("course_schedule").
		Where(squirrel.Eq{"course_id": courseID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.DB.Exec(ctx, delSQL, delArgs...); err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	builder := squirrel.Insert("course_schedule").
		Columns("course_id", "day", "start_time", "end_time", "room").
		PlaceholderFormat(squirrel.Dollar)
	for _, e := range entries {
		builder = builder.Values(courseID, e.Day, e.StartTime, e.EndTime, e.Room)
	}
	insSQL, insArgs, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, insSQL, insArgs...)
	return err
}
