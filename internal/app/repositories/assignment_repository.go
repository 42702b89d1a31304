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
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// AssignmentRepository handles database operations for assignments.
type AssignmentRepository struct {
	DB *pgxpool.Pool
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

var assignmentColumns = []string{
	"id", "course_id", "title", "description", "due_date", "total_points",
	"assignment_type", "allow_late_submissions", "late_penalty", "is_published",
	"created_by", "created_at", "updated_at",
}

var assignmentScope = scopeColumns{
	CourseID:    "course_id",
	EnrolledVia: "course_id",
	Published:   "is_published",
}

func (r *AssignmentRepository) selectAssignmentQuery() squirrel.SelectBuilder {
	return squirrel.Select(assignmentColumns...).
		From("assignments").
		PlaceholderFormat(squirrel.Dollar)
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(
		&a.ID, &a.CourseID, &a.Title, &a.Description, &a.DueDate, &a.TotalPoints,
		&a.Type, &a.AllowLateSubmissions, &a.LatePenalty, &a.IsPublished,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) (int64, error) {
	sqlStr, args, err := squirrel.Insert("assignments").
		Columns("course_id", "title", "description", "due_date", "total_points",
			"assignment_type", "allow_late_submissions", "late_penalty", "is_published", "created_by").
		Values(a.CourseID, a.Title, a.Description, a.DueDate, a.TotalPoints,
			a.Type, a.AllowLateSubmissions, a.LatePenalty, a.IsPublished, a.CreatedBy).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Msg("Error executing create assignment query")
		return 0, err
	}
	return id, nil
}

// GetByID retrieves an assignment by its ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	sqlStr, args, err := r.selectAssignmentQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	a, err := scanAssignment(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("assignment", id)
		}
		logger.Error().Err(err).Int64("assignmentID", id).Msg("Error scanning assignment")
		return nil, err
	}
	return a, nil
}

// List retrieves the page of assignments visible under the scope, optionally
// restricted to one course.
func (r *AssignmentRepository) List(ctx context.Context, scope auth.Scope, courseID int64, q query.ListQuery) ([]*models.Assignment, int64, error) {
	base, visible := applyScope(r.selectAssignmentQuery(), scope, assignmentScope)
	if !visible {
		return nil, 0, nil
	}
	if courseID != 0 {
		base = base.Where(squirrel.Eq{"course_id": courseID})
	}

	builder := q.ApplyPagination(q.ApplySort(q.ApplyFilters(base)))
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list assignments query")
		return nil, 0, err
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, scope, courseID, q)
	if err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

func (r *AssignmentRepository) count(ctx context.Context, scope auth.Scope, courseID int64, q query.ListQuery) (int64, error) {
	base, visible := applyScope(
		squirrel.Select("count(*)").From("assignments").PlaceholderFormat(squirrel.Dollar),
		scope, assignmentScope,
	)
	if !visible {
		return 0, nil
	}
	if courseID != 0 {
		base = base.Where(squirrel.Eq{"course_id": courseID})
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

// Update persists the mutable assignment fields.
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	sqlStr, args, err := squirrel.Update("assignments").
		Set("title", a.Title).
		Set("description", a.Description).
		Set("due_date", a.DueDate).
		Set("total_points", a.TotalPoints).
		Set("assignment_type", a.Type).
		Set("allow_late_submissions", a.AllowLateSubmissions).
		Set("late_penalty", a.LatePenalty).
		Set("is_published", a.IsPublished).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assignmentID", a.ID).Msg("Error executing update assignment query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("assignment", a.ID)
	}
	return nil
}

// Delete removes an assignment; its submissions go with it via the
// cascading key.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("assignments").
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
		return apperrors.NotFound("assignment", id)
	}
	return nil
}

// Publish flips the published flag on.
func (r *AssignmentRepository) Publish(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Update("assignments").
		Set("is_published", true).
		Set("updated_at", squirrel.Expr("now()")).
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
		return apperrors.NotFound("assignment", id)
	}
	return nil
}
