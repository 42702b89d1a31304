package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// FileRepository handles database operations for uploaded file records.
type FileRepository struct {
	DB *pgxpool.Pool
}

// NewFileRepository creates a new instance of FileRepository.
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{DB: db}
}

var fileColumns = []string{
	"id", "file_name", "file_path", "file_size", "file_type",
	"resource_type", "resource_id", "uploaded_by", "created_at",
}

func (r *FileRepository) selectFileQuery() squirrel.SelectBuilder {
	return squirrel.Select(fileColumns...).
		From("files").
		PlaceholderFormat(squirrel.Dollar)
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID, &f.FileName, &f.FilePath, &f.FileSize, &f.FileType,
		&f.ResourceType, &f.ResourceID, &f.UploadedBy, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a file record.
func (r *FileRepository) Create(ctx context.Context, f *models.File) (int64, error) {
	sqlStr, args, err := squirrel.Insert("files").
		Columns("file_name", "file_path", "file_size", "file_type",
			"resource_type", "resource_id", "uploaded_by").
		Values(f.FileName, f.FilePath, f.FileSize, f.FileType,
			f.ResourceType, f.ResourceID, f.UploadedBy).
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

// GetByID retrieves a file record by its ID.
func (r *FileRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	sqlStr, args, err := r.selectFileQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	f, err := scanFile(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("file", id)
		}
		return nil, err
	}
	return f, nil
}

// ListByResource returns the files attached to one entity.
func (r *FileRepository) ListByResource(ctx context.Context, resourceType models.ResourceType, resourceID int64) ([]models.File, error) {
	sqlStr, args, err := r.selectFileQuery().
		Where(squirrel.Eq{"resource_type": resourceType, "resource_id": resourceID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Delete removes a file record.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("files").
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
		return apperrors.NotFound("file", id)
	}
	return nil
}
