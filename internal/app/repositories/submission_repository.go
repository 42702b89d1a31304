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

// SubmissionRepository handles database operations for submissions.
type SubmissionRepository struct {
	DB *pgxpool.Pool
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

var submissionColumns = []string{
	"id", "assignment_id", "student_id", "submitted_at", "content", "score",
	"feedback", "graded_by", "graded_at", "status", "is_late",
	"created_at", "updated_at",
}

func (r *SubmissionRepository) selectSubmissionQuery() squirrel.SelectBuilder {
	return squirrel.Select(submissionColumns...).
		From("submissions").
		PlaceholderFormat(squirrel.Dollar)
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(
		&s.ID, &s.AssignmentID, &s.StudentID, &s.SubmittedAt, &s.Content,
		&s.Score, &s.Feedback, &s.GradedBy, &s.GradedAt, &s.Status, &s.IsLate,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// applySubmissionScope compiles the visibility predicate for submissions.
// The teacher axis resolves through the owning assignment's course.
func applySubmissionScope(b squirrel.SelectBuilder, s auth.Scope) (squirrel.SelectBuilder, bool) {
	if s.None {
		return b, false
	}
	if s.All {
		return b, true
	}
	switch {
	case s.TeacherID != 0:
		return b.Where(squirrel.Expr(
			"assignment_id IN (SELECT a.id FROM assignments a JOIN courses c ON a.course_id = c.id WHERE c.teacher_id = ?)",
			s.TeacherID,
		)), true
	case len(s.StudentIDs) > 0:
		return b.Where(squirrel.Eq{"student_id": s.StudentIDs}), true
	}
	return b, false
}

// Upsert inserts a submission or, when the student already submitted for
// the assignment, replaces the previous submission in place.
func (r *SubmissionRepository) Upsert(ctx context.Context, s *models.Submission) (int64, error) {
	sqlStr, args, err := squirrel.Insert("submissions").
		Columns("assignment_id", "student_id", "submitted_at", "content", "score",
			"feedback", "graded_by", "graded_at", "status", "is_late").
		Values(s.AssignmentID, s.StudentID, s.SubmittedAt, s.Content, s.Score,
			s.Feedback, s.GradedBy, s.GradedAt, s.Status, s.IsLate).
		Suffix(`ON CONFLICT (assignment_id, student_id) DO UPDATE SET
			submitted_at = EXCLUDED.submitted_at,
			content = EXCLUDED.content,
			score = EXCLUDED.score,
			feedback = EXCLUDED.feedback,
			graded_by = EXCLUDED.graded_by,
			graded_at = EXCLUDED.graded_at,
			status = EXCLUDED.status,
			is_late = EXCLUDED.is_late,
			updated_at = now()
			RETURNING id`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Msg("Error executing upsert submission query")
		return 0, err
	}
	return id, nil
}

// GetByID retrieves a submission by its ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	sqlStr, args, err := r.selectSubmissionQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSubmission(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("submission", id)
		}
		logger.Error().Err(err).Int64("submissionID", id).Msg("Error scanning submission")
		return nil, err
	}
	return s, nil
}

// GetByAssignmentAndStudent retrieves the single submission for the pair.
func (r *SubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID int64) (*models.Submission, error) {
	sqlStr, args, err := r.selectSubmissionQuery().
		Where(squirrel.Eq{"assignment_id": assignmentID, "student_id": studentID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSubmission(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("submission", 0)
		}
		return nil, err
	}
	return s, nil
}

// List retrieves the page of submissions visible under the scope, optionally
// restricted to one assignment.
func (r *SubmissionRepository) List(ctx context.Context, scope auth.Scope, assignmentID int64, q query.ListQuery) ([]*models.Submission, int64, error) {
	base, visible := applySubmissionScope(r.selectSubmissionQuery(), scope)
	if !visible {
		return nil, 0, nil
	}
	if assignmentID != 0 {
		base = base.Where(squirrel.Eq{"assignment_id": assignmentID})
	}

	builder := q.ApplyPagination(q.ApplySort(q.ApplyFilters(base)))
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list submissions query")
		return nil, 0, err
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, scope, assignmentID, q)
	if err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (r *SubmissionRepository) count(ctx context.Context, scope auth.Scope, assignmentID int64, q query.ListQuery) (int64, error) {
	base, visible := applySubmissionScope(
		squirrel.Select("count(*)").From("submissions").PlaceholderFormat(squirrel.Dollar),
		scope,
	)
	if !visible {
		return 0, nil
	}
	if assignmentID != 0 {
		base = base.Where(squirrel.Eq{"assignment_id": assignmentID})
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

// UpdateGrade persists the grading fields of a submission.
func (r *SubmissionRepository) UpdateGrade(ctx context.Context, s *models.Submission) error {
	sqlStr, args, err := squirrel.Update("submissions").
		Set("score", s.Score).
		Set("feedback", s.Feedback).
		Set("graded_by", s.GradedBy).
		Set("graded_at", s.GradedAt).
		Set("status", s.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": s.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("submissionID", s.ID).Msg("Error executing update submission grade query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("submission", s.ID)
	}
	return nil
}

// Delete removes a submission.
func (r *SubmissionRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("submissions").
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
		return apperrors.NotFound("submission", id)
	}
	return nil
}
