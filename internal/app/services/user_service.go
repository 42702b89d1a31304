package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	pkgauth "github.com/dyilmaz/schoolhub/internal/pkg/auth"
)

// userSchema is the public projection of the users table.
var userSchema = query.Schema{
	Columns: map[string]string{
		"id":         "id",
		"email":      "email",
		"firstName":  "first_name",
		"lastName":   "last_name",
		"role":       "role",
		"isActive":   "is_active",
		"gradeLevel": "grade_level",
		"department": "department",
		"createdAt":  "created_at",
	},
	DefaultSort: "-createdAt",
}

// UserStore is the subset of the user store the user service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, q query.ListQuery) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	ChildrenOf(ctx context.Context, parentID int64) ([]int64, error)
	ParentsOf(ctx context.Context, studentID int64) ([]int64, error)
	TeachersOf(ctx context.Context, studentID int64) ([]int64, error)
}

// UserService handles admin-side user management and relation lookups.
type UserService struct {
	users  UserStore
	policy *auth.Policy
}

// NewUserService creates the user service.
func NewUserService(users UserStore, policy *auth.Policy) *UserService {
	return &UserService{users: users, policy: policy}
}

// List returns the page of users matching the caller-supplied query.
func (s *UserService) List(ctx context.Context, p *auth.Principal, values url.Values) (*dto.ListResult, error) {
	if err := s.policy.UserList(p); err != nil {
		return nil, err
	}

	q := query.Parse(values, userSchema)
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(users, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, p *auth.Principal, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.UserView(p, id); err != nil {
		return nil, err
	}
	return user, nil
}

// Create provisions a new account of any role, including admin.
func (s *UserService) Create(ctx context.Context, p *auth.Principal, req *dto.CreateUserRequest) (*models.User, error) {
	if err := s.policy.UserCreate(p); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, apperrors.Invalid("role", "unknown role")
	}

	hashed, err := pkgauth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Phone:     req.Phone,
		IsActive:  true,
	}
	switch req.Role {
	case models.RoleStudent:
		user.GradeLevel = req.GradeLevel
		user.Parents = req.Parents
	case models.RoleTeacher:
		user.Department = req.Department
	case models.RoleParent:
		user.Children = req.Children
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Update applies a partial update. Only admins may flip the active flag.
func (s *UserService) Update(ctx context.Context, p *auth.Principal, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.UserUpdate(p, id); err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Password != nil {
		hashed, err := pkgauth.HashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		user.Password = hashed
	}
	if req.GradeLevel != nil && user.IsStudent() {
		user.GradeLevel = req.GradeLevel
	}
	if req.Department != nil && user.IsTeacher() {
		user.Department = req.Department
	}
	if req.IsActive != nil {
		if !p.IsAdmin() {
			return nil, apperrors.Forbidden("only admins can change account status")
		}
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if err := s.policy.UserDelete(p); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// Children returns the caller's linked children as full user records.
func (s *UserService) Children(ctx context.Context, p *auth.Principal) ([]*models.User, error) {
	if !p.IsParent() {
		return nil, apperrors.Forbidden("only parents have linked children")
	}
	return s.loadUsers(ctx, p.Children)
}

// Teachers returns the teachers of the courses the calling student is
// enrolled in.
func (s *UserService) Teachers(ctx context.Context, p *auth.Principal) ([]*models.User, error) {
	if !p.IsStudent() {
		return nil, apperrors.Forbidden("only students have course teachers")
	}

	ids, err := s.users.TeachersOf(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.loadUsers(ctx, ids)
}

func (s *UserService) loadUsers(ctx context.Context, ids []int64) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
