package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// AttendanceRepository handles database operations for attendance records.
type AttendanceRepository struct {
	DB *pgxpool.Pool
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

var attendanceColumns = []string{
	"id", "student_id", "course_id", "date", "status", "late_minutes",
	"excuse_reason", "recorded_by", "created_at", "updated_at",
}

var attendanceScope = scopeColumns{
	CourseID:  "course_id",
	StudentID: "student_id",
}

func (r *AttendanceRepository) selectAttendanceQuery() squirrel.SelectBuilder {
	return squirrel.Select(attendanceColumns...).
		From("attendance").
		PlaceholderFormat(squirrel.Dollar)
}

func scanAttendance(row pgx.Row) (*models.Attendance, error) {
	var a models.Attendance
	err := row.Scan(
		&a.ID, &a.StudentID, &a.CourseID, &a.Date, &a.Status, &a.LateMinutes,
		&a.ExcuseReason, &a.RecordedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert inserts an attendance record or, when the day was already
// recorded for the student, updates the existing record in place.
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) (int64, error) {
	sqlStr, args, err := squirrel.Insert("attendance").
		Columns("student_id", "course_id", "date", "status", "late_minutes", "excuse_reason", "recorded_by").
		Values(a.StudentID, a.CourseID, a.Date, a.Status, a.LateMinutes, a.ExcuseReason, a.RecordedBy).
		Suffix(`ON CONFLICT (student_id, course_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			late_minutes = EXCLUDED.late_minutes,
			excuse_reason = EXCLUDED.excuse_reason,
			recorded_by = EXCLUDED.recorded_by,
			updated_at = now()
			RETURNING id`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Msg("Error executing upsert attendance query")
		return 0, err
	}
	return id, nil
}

// GetByID retrieves an attendance record by its ID.
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.Attendance, error) {
	sqlStr, args, err := r.selectAttendanceQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	a, err := scanAttendance(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("attendance", id)
		}
		logger.Error().Err(err).Int64("attendanceID", id).Msg("Error scanning attendance")
		return nil, err
	}
	return a, nil
}

// List retrieves the page of attendance records visible under the scope.
func (r *AttendanceRepository) List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.Attendance, int64, error) {
	base, visible := applyScope(r.selectAttendanceQuery(), scope, attendanceScope)
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
		logger.Error().Err(err).Msg("Error executing list attendance query")
		return nil, 0, err
	}
	defer rows.Close()

	var records []*models.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, scope, q)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *AttendanceRepository) count(ctx context.Context, scope auth.Scope, q query.ListQuery) (int64, error) {
	base, visible := applyScope(
		squirrel.Select("count(*)").From("attendance").PlaceholderFormat(squirrel.Dollar),
		scope, attendanceScope,
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

// Delete removes an attendance record.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("attendance").
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
		return apperrors.NotFound("attendance", id)
	}
	return nil
}

// Stats aggregates one student's attendance within a course.
func (r *AttendanceRepository) Stats(ctx context.Context, studentID, courseID int64) (*dto.AttendanceStats, error) {
	sqlStr, args, err := squirrel.Select(
		"count(*)",
		"count(*) FILTER (WHERE status = 'present')",
		"count(*) FILTER (WHERE status = 'absent')",
		"count(*) FILTER (WHERE status = 'late')",
		"count(*) FILTER (WHERE status = 'excused')",
	).
		From("attendance").
		Where(squirrel.Eq{"student_id": studentID, "course_id": courseID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	stats := &dto.AttendanceStats{StudentID: studentID, CourseID: courseID}
	err = r.DB.QueryRow(ctx, sqlStr, args...).Scan(
		&stats.TotalDays, &stats.Present, &stats.Absent, &stats.Late, &stats.Excused,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing attendance stats query")
		return nil, err
	}

	if stats.TotalDays > 0 {
		// Late still counts as attended for the rate.
		stats.AttendanceRate = float64(stats.Present+stats.Late+stats.Excused) / float64(stats.TotalDays) * 100
	}
	return stats, nil
}
