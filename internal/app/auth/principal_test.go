package auth

import (
	"context"
	"reflect"
	"testing"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

type stubUserSource struct {
	users    map[int64]*models.User
	children map[int64][]int64
	parents  map[int64][]int64
}

func (s *stubUserSource) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return u, nil
}

func (s *stubUserSource) ChildrenOf(_ context.Context, parentID int64) ([]int64, error) {
	return s.children[parentID], nil
}

func (s *stubUserSource) ParentsOf(_ context.Context, studentID int64) ([]int64, error) {
	return s.parents[studentID], nil
}

func TestResolve(t *testing.T) {
	source := &stubUserSource{
		users: map[int64]*models.User{
			200: {ID: 200, Role: models.RoleParent, IsActive: true},
		},
		children: map[int64][]int64{200: {100, 101}},
	}
	r := NewResolver(source)

	p, err := r.Resolve(context.Background(), 200)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !p.IsParent() {
		t.Errorf("role = %s, want parent", p.Role)
	}
	if !reflect.DeepEqual(p.Children, []int64{100, 101}) {
		t.Errorf("children = %v, want [100 101]", p.Children)
	}
}

func TestResolveStudentLoadsParents(t *testing.T) {
	source := &stubUserSource{
		users: map[int64]*models.User{
			100: {ID: 100, Role: models.RoleStudent, IsActive: true},
		},
		parents: map[int64][]int64{100: {200}},
	}
	r := NewResolver(source)

	p, err := r.Resolve(context.Background(), 100)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(p.Parents, []int64{200}) {
		t.Errorf("parents = %v, want [200]", p.Parents)
	}
}

func TestResolveVanishedUser(t *testing.T) {
	r := NewResolver(&stubUserSource{users: map[int64]*models.User{}})

	_, err := r.Resolve(context.Background(), 999)
	if apperrors.KindOf(err) != apperrors.KindUnauthenticated {
		t.Errorf("vanished user should resolve to unauthenticated, got %v", err)
	}
}

func TestResolveDisabledUser(t *testing.T) {
	source := &stubUserSource{
		users: map[int64]*models.User{
			1: {ID: 1, Role: models.RoleTeacher, IsActive: false},
		},
	}
	r := NewResolver(source)

	_, err := r.Resolve(context.Background(), 1)
	if apperrors.KindOf(err) != apperrors.KindUnauthenticated {
		t.Errorf("disabled account should resolve to unauthenticated, got %v", err)
	}
}

func TestHasChild(t *testing.T) {
	p := &Principal{Role: models.RoleParent, Children: []int64{100, 101}}
	if !p.HasChild(100) {
		t.Error("linked child should match")
	}
	if p.HasChild(999) {
		t.Error("unlinked student should not match")
	}
}
