package auth

import (
	"context"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// Principal is the authenticated caller: its role plus the identity-derived
// relations the scope resolver and effect dispatcher need. Children is
// populated for parents, Parents for students.
type Principal struct {
	ID       int64
	Role     models.Role
	Children []int64
	Parents  []int64
}

func (p *Principal) IsAdmin() bool   { return p.Role == models.RoleAdmin }
func (p *Principal) IsTeacher() bool { return p.Role == models.RoleTeacher }
func (p *Principal) IsStudent() bool { return p.Role == models.RoleStudent }
func (p *Principal) IsParent() bool  { return p.Role == models.RoleParent }

// HasChild reports whether studentID is one of the parent's linked children.
func (p *Principal) HasChild(studentID int64) bool {
	for _, id := range p.Children {
		if id == studentID {
			return true
		}
	}
	return false
}

// UserSource is the subset of the user store the resolver needs.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]int64, error)
	ParentsOf(ctx context.Context, studentID int64) ([]int64, error)
}

// Resolver maps verified token claims to a principal record. A valid token
// whose subject no longer exists resolves to Unauthenticated.
type Resolver struct {
	users UserSource
}

// NewResolver creates a principal resolver over the user store.
func NewResolver(users UserSource) *Resolver {
	return &Resolver{users: users}
}

// Resolve loads the principal for a verified user ID.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Principal, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.Unauthenticated("user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated("account disabled")
	}

	p := &Principal{ID: user.ID, Role: user.Role}

	switch user.Role {
	case models.RoleParent:
		p.Children, err = r.users.ChildrenOf(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	case models.RoleStudent:
		p.Parents, err = r.users.ParentsOf(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}
