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

// EnrollmentRequestRepository handles database operations for enrollment
// requests.
type EnrollmentRequestRepository struct {
	DB *pgxpool.Pool
}

// NewEnrollmentRequestRepository creates a new instance of EnrollmentRequestRepository.
func NewEnrollmentRequestRepository(db *pgxpool.Pool) *EnrollmentRequestRepository {
	return &EnrollmentRequestRepository{DB: db}
}

var enrollmentRequestColumns = []string{
	"id", "student_id", "course_id", "status", "request_date", "response_date",
	"response_by", "notes", "created_at", "updated_at",
}

var enrollmentRequestScope = scopeColumns{
	CourseID:  "course_id",
	StudentID: "student_id",
}

func (r *EnrollmentRequestRepository) selectRequestQuery() squirrel.SelectBuilder {
	return squirrel.Select(enrollmentRequestColumns...).
		From("enrollment_requests").
		PlaceholderFormat(squirrel.Dollar)
}

func scanEnrollmentRequest(row pgx.Row) (*models.EnrollmentRequest, error) {
	var req models.EnrollmentRequest
	err := row.Scan(
		&req.ID, &req.StudentID, &req.CourseID, &req.Status, &req.RequestDate,
		&req.ResponseDate, &req.ResponseBy, &req.Notes, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a new enrollment request. A second request for the same
// (student, course) pair trips the unique key; the service decides whether
// that means reset or conflict.
func (r *EnrollmentRequestRepository) Create(ctx context.Context, req *models.EnrollmentRequest) (int64, error) {
	sqlStr, args, err := squirrel.Insert("enrollment_requests").
		Columns("student_id", "course_id", "status", "request_date", "notes").
		Values(req.StudentID, req.CourseID, req.Status, req.RequestDate, req.Notes).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		if dberrors.IsUniqueViolation(err, dberrors.ConstraintEnrollmentReq) {
			return 0, apperrors.Conflict("enrollmentRequest")
		}
		logger.Error().Err(err).Msg("Error executing create enrollment request query")
		return 0, err
	}
	return id, nil
}

// GetByID retrieves an enrollment request by its ID.
func (r *EnrollmentRequestRepository) GetByID(ctx context.Context, id int64) (*models.EnrollmentRequest, error) {
	sqlStr, args, err := r.selectRequestQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	req, err := scanEnrollmentRequest(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("enrollmentRequest", id)
		}
		logger.Error().Err(err).Int64("requestID", id).Msg("Error scanning enrollment request")
		return nil, err
	}
	return req, nil
}

// GetByStudentAndCourse retrieves the single request for the pair.
func (r *EnrollmentRequestRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.EnrollmentRequest, error) {
	sqlStr, args, err := r.selectRequestQuery().
		Where(squirrel.Eq{"student_id": studentID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	req, err := scanEnrollmentRequest(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("enrollmentRequest", 0)
		}
		return nil, err
	}
	return req, nil
}

// List retrieves the page of enrollment requests visible under the scope.
func (r *EnrollmentRequestRepository) List(ctx context.Context, scope auth.Scope, q query.ListQuery) ([]*models.EnrollmentRequest, int64, error) {
	base, visible := applyScope(r.selectRequestQuery(), scope, enrollmentRequestScope)
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
		logger.Error().Err(err).Msg("Error executing list enrollment requests query")
		return nil, 0, err
	}
	defer rows.Close()

	var requests []*models.EnrollmentRequest
	for rows.Next() {
		req, err := scanEnrollmentRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, scope, q)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *EnrollmentRequestRepository) count(ctx context.Context, scope auth.Scope, q query.ListQuery) (int64, error) {
	base, visible := applyScope(
		squirrel.Select("count(*)").From("enrollment_requests").PlaceholderFormat(squirrel.Dollar),
		scope, enrollmentRequestScope,
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

// Update persists a request's state transition.
func (r *EnrollmentRequestRepository) Update(ctx context.Context, req *models.EnrollmentRequest) error {
	sqlStr, args, err := squirrel.Update("enrollment_requests").
		Set("status", req.Status).
		Set("request_date", req.RequestDate).
		Set("response_date", req.ResponseDate).
		Set("response_by", req.ResponseBy).
		Set("notes", req.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": req.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("requestID", req.ID).Msg("Error executing update enrollment request query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("enrollmentRequest", req.ID)
	}
	return nil
}

// Delete removes an enrollment request.
func (r *EnrollmentRequestRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("enrollment_requests").
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
		return apperrors.NotFound("enrollmentRequest", id)
	}
	return nil
}
