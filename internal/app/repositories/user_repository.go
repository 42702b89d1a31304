package repositories

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/dberrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// UserRepository handles database operations for users and the
// parent/student link table.
type UserRepository struct {
	DB *pgxpool.Pool
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name", "role", "phone",
	"federated_uid", "is_active", "grade_level", "department",
	"created_at", "updated_at",
}

func (r *UserRepository) selectUserQuery() squirrel.SelectBuilder {
	return squirrel.Select(userColumns...).
		From("users").
		PlaceholderFormat(squirrel.Dollar)
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName,
		&user.Role, &user.Phone, &user.FederatedUID, &user.IsActive,
		&user.GradeLevel, &user.Department, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user and its parent/child links.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	sqlStr, args, err := squirrel.Insert("users").
		Columns("email", "password", "first_name", "last_name", "role", "phone",
			"federated_uid", "is_active", "grade_level", "department").
		Values(user.Email, user.Password, user.FirstName, user.LastName, user.Role,
			user.Phone, user.FederatedUID, user.IsActive, user.GradeLevel, user.Department).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		if dberrors.IsUniqueViolation(err, dberrors.ConstraintUserEmail) {
			return 0, apperrors.Conflict("email")
		}
		if dberrors.IsUniqueViolation(err, dberrors.ConstraintUserFederatedUID) {
			return 0, apperrors.Conflict("federatedUid")
		}
		logger.Error().Err(err).Msg("Error executing create user query")
		return 0, err
	}

	if user.IsStudent() && len(user.Parents) > 0 {
		if err := r.linkParents(ctx, id, user.Parents); err != nil {
			return 0, err
		}
	}
	if user.Role == models.RoleParent && len(user.Children) > 0 {
		if err := r.linkChildren(ctx, id, user.Children); err != nil {
			return 0, err
		}
	}

	return id, nil
}

// GetByID retrieves a user with its role-specific relations loaded.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	sqlStr, args, err := r.selectUserQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		logger.Error().Err(err).Int64("userID", id).Msg("Error scanning user")
		return nil, err
	}

	if err := r.loadRelations(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail retrieves a user by its unique email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	sqlStr, args, err := r.selectUserQuery().Where(squirrel.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", 0)
		}
		return nil, err
	}
	return user, nil
}

// GetByFederatedUID retrieves a user by its federated identity subject.
func (r *UserRepository) GetByFederatedUID(ctx context.Context, uid string) (*models.User, error) {
	sqlStr, args, err := r.selectUserQuery().Where(squirrel.Eq{"federated_uid": uid}).ToSql()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", 0)
		}
		return nil, err
	}
	return user, nil
}

// List retrieves a page of users with the compiled query applied.
func (r *UserRepository) List(ctx context.Context, q query.ListQuery) ([]*models.User, int64, error) {
	builder := q.ApplyPagination(q.ApplySort(q.ApplyFilters(r.selectUserQuery())))
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, 0, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) count(ctx context.Context, q query.ListQuery) (int64, error) {
	builder := q.ApplyFilters(
		squirrel.Select("count(*)").From("users").PlaceholderFormat(squirrel.Dollar),
	)
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Update persists the mutable user fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sqlStr, args, err := squirrel.Update("users").
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("phone", user.Phone).
		Set("password", user.Password).
		Set("is_active", user.IsActive).
		Set("grade_level", user.GradeLevel).
		Set("department", user.Department).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": user.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user", user.ID)
	}
	return nil
}

// Delete removes a user. Link-table rows go with it via cascading keys.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := squirrel.Delete("users").
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
		return apperrors.NotFound("user", id)
	}
	return nil
}

// LinkFederatedUID attaches a federated identity subject to a local account.
func (r *UserRepository) LinkFederatedUID(ctx context.Context, userID int64, uid string) error {
	sqlStr, args, err := squirrel.Update("users").
		Set("federated_uid", uid).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err, dberrors.ConstraintUserFederatedUID) {
			return apperrors.Conflict("federatedUid")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}
	return nil
}

// ChildrenOf returns the student IDs linked to a parent.
func (r *UserRepository) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	return r.linkedIDs(ctx, "student_id", squirrel.Eq{"parent_id": parentID})
}

// ParentsOf returns the parent IDs linked to a student.
func (r *UserRepository) ParentsOf(ctx context.Context, studentID int64) ([]int64, error) {
	return r.linkedIDs(ctx, "parent_id", squirrel.Eq{"student_id": studentID})
}

// TeachersOf returns the distinct teacher IDs across the courses a student
// is enrolled in.
func (r *UserRepository) TeachersOf(ctx context.Context, studentID int64) ([]int64, error) {
	sqlStr, args, err := squirrel.Select("DISTINCT c.teacher_id").
		From("course_students cs").
		Join("courses c ON c.id = cs.course_id").
		Where(squirrel.Eq{"cs.student_id": studentID}).
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

func (r *UserRepository) linkedIDs(ctx context.Context, column string, where squirrel.Eq) ([]int64, error) {
	sqlStr, args, err := squirrel.Select(column).
		From("parent_students").
		Where(where).
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

// linkParents attaches parents to a student.
func (r *UserRepository) linkParents(ctx context.Context, studentID int64, parentIDs []int64) error {
	builder := squirrel.Insert("parent_students").
		Columns("parent_id", "student_id").
		PlaceholderFormat(squirrel.Dollar).
		Suffix("ON CONFLICT DO NOTHING")
	for _, parentID := range parentIDs {
		builder = builder.Values(parentID, studentID)
	}
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, sqlStr, args...)
	return err
}

// linkChildren attaches children to a parent.
func (r *UserRepository) linkChildren(ctx context.Context, parentID int64, studentIDs []int64) error {
	builder := squirrel.Insert("parent_students").
		Columns("parent_id", "student_id").
		PlaceholderFormat(squirrel.Dollar).
		Suffix("ON CONFLICT DO NOTHING")
	for _, studentID := range studentIDs {
		builder = builder.Values(parentID, studentID)
	}
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, sqlStr, args...)
	return err
}

// loadRelations populates the role-specific relation slices.
func (r *UserRepository) loadRelations(ctx context.Context, user *models.User) error {
	var err error
	switch user.Role {
	case models.RoleStudent:
		user.Parents, err = r.ParentsOf(ctx, user.ID)
	case models.RoleParent:
		user.Children, err = r.ChildrenOf(ctx, user.ID)
	}
	return err
}
