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

// GradeRepository handles database operations for grade entries.
type GradeRepository struct {
	DB *pgxpool.Pool
}

// NewGradeRepository creates a new instance of GradeRepository.
func NewGradeRepository(db *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{DB: db}
}

var gradeColumns = []string{
	"id", "student_id", "course_id", "assignment_id", "type", "score",
	"max_score", "percentage", "letter_grade", "weight", "is_published",
	"published_at", "graded_by", "created_at", "updated_at",
}

var gradeScope = scopeColumns{
	CourseID:  "course_id",
	StudentID: "student_id",
	Published: "is_published",
}

func (r *GradeRepository) selectGradeQuery() squirrel.SelectBuilder {
	return squirrel.Select(gradeColumns...).
		From("grades").
		PlaceholderFormat(squirrel.Dollar)
}

func scanGrade(row pgx.Row) (*models.Grade, error) {
	var g models.Grade
	err := row.Scan(
		&g.ID, &g.StudentID, &g.CourseID, &g.AssignmentID, &g.Type, &g.Score,
		&g.MaxScore, &g.Percentage, &g.LetterGrade, &g.Weight, &g.IsPublished,
		&g.PublishedAt, &g.GradedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Upsert inserts a grade entry or, when the graded item already has an
// entry for the student, updates it in place. The unique key treats a NULL
// assignment as a distinct value, so standalone entries collapse per type.
func (r *GradeRepository) Upsert(ctx context.Context, g *models.Grade) (int64, error) {
	sqlStr, args, err := squirrel.Insert("grades").
		Columns("student_id", "course_id", "assignment_id", "type", "score",
			"max_score", "percentage", "letter_grade", "weight", "is_published",
			"published_at", "graded_by").
		Values(g.StudentID, g.CourseID, g.AssignmentID, g.Type, g.Score,
			g.MaxScore, g.Percentage, g.LetterGrade, g.Weight, g.IsPublished,
			g.PublishedAt, g.GradedBy).
		Suffix(`ON CONFLICT (student_id, course_id, assignment_id, type) DO UPDATE SET
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			percentage = EXCLUDED.percentage,
			letter_grade = EXCLUDED.letter_grade,
			weight = EXCLUDED.weight,
			is_published = grades.is_published OR EXCLUDED.is_published,
			published_at = COALESCE(grades.published_at, EXCLUDED.published_at),
			graded_by = EXCLUDED.graded_by,
			updated_at = now()
			RETURNING id`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Msg("Error executing upsert grade query")
		return 0, err
	}
	return id, nil
}

// GetByID retrieves a grade entry by its ID.
func (r *GradeRepository) GetByID(ctx context.Context, id int64) (*models.Grade, error) {
	sqlStr, args, err := r.selectGradeQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	g, err := scanGrade(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("grade", id)
		}
		logger.Error().Err(err).Int64("gradeID", id).Msg("Error scanning grade")
		return nil, err
	}
	return g, nil
}

// List retrieves the page of grade entries visible under the scope.
func (r *GradeRepository) List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.Grade, int64, error) {
	base, visible := applyScope(r.selectGradeQuery(), scope, gradeScope)
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
		logger.Error().Err(err).Msg("Error executing list grades query")
		return nil, 0, err
	}
	defer rows.Close()

	var grades []*models.Grade
	for rows.Next() {
		g, err := scanGrade(rows)
		if err != nil {
			return nil, 0, err
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, scope, q)
	if err != nil {
		return nil, 0, err
	}
	return grades, total, nil
}

func (r *GradeRepository) count(ctx context.Context, scope auth.Scope, q query.ListQuery) (int64, error) {
	base, visible := applyScope(
		squirrel.Select("count(*)").From("grades").PlaceholderFormat(squirrel.Dollar),
		scope, gradeScope,
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

// Update persists a recomputed grade entry.
func (r *GradeRepository) Update(ctx context.Context, g *models.Grade) error {
	sqlStr, args, err := squirrel.Update("grades").
		Set("score", g.Score).
		Set("max_score", g.MaxScore).
		Set("percentage", g.Percentage).
		Set("letter_grade", g.LetterGrade).
		Set("weight", g.Weight).
		Set("is_published", g.IsPublished).
		Set("published_at", g.PublishedAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": g.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("gradeID", g.ID).Msg("Error executing update grade query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("grade", g.ID)
	}
	return nil
}

// Delete removes a grade entry.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("grades").
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
		return apperrors.NotFound("grade", id)
	}
	return nil
}

// Summary aggregates a student's standing within a course. The overall
// figure is the weight-adjusted mean of all entries; per-type rows break
// it down.
func (r *GradeRepository) Summary(ctx context.Context, studentID, courseID int64, publishedOnly bool) (*dto.GradeSummary, error) {
	builder := squirrel.Select(
		"type",
		"count(*)",
		"avg(percentage)",
		"sum(percentage * weight) / NULLIF(sum(weight), 0)",
	).
		From("grades").
		Where(squirrel.Eq{"student_id": studentID, "course_id": courseID}).
		GroupBy("type").
		OrderBy("type").
		PlaceholderFormat(squirrel.Dollar)
	if publishedOnly {
		builder = builder.Where(squirrel.Eq{"is_published": true})
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing grade summary query")
		return nil, err
	}
	defer rows.Close()

	summary := &dto.GradeSummary{StudentID: studentID, CourseID: courseID}
	var totalWeighted, totalCount float64
	for rows.Next() {
		var row dto.GradeTypeSummary
		var weighted *float64
		if err := rows.Scan(&row.Type, &row.Count, &row.Average, &weighted); err != nil {
			return nil, err
		}
		if weighted != nil {
			row.WeightedAvg = *weighted
		}
		summary.ByType = append(summary.ByType, row)
		totalWeighted += row.WeightedAvg * float64(row.Count)
		totalCount += float64(row.Count)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if totalCount > 0 {
		summary.Overall = totalWeighted / totalCount
	}
	summary.LetterGrade = models.LetterFor(summary.Overall)
	return summary, nil
}
