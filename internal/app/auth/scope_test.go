package auth

import (
	"reflect"
	"testing"

	"github.com/dyilmaz/schoolhub/internal/app/models"
)

func TestScopeForAdmin(t *testing.T) {
	p := &Principal{ID: 1, Role: models.RoleAdmin}
	for _, e := range []Entity{EntityUser, EntityCourse, EntityAssignment, EntityGrade, EntityAttendance} {
		if s := ScopeFor(p, e); !s.All {
			t.Errorf("admin scope over %s should be All, got %+v", e, s)
		}
	}
}

func TestScopeForTeacher(t *testing.T) {
	p := &Principal{ID: 10, Role: models.RoleTeacher}

	s := ScopeFor(p, EntityCourse)
	if s.TeacherID != p.ID || s.All || s.None {
		t.Errorf("teacher course scope should key on TeacherID, got %+v", s)
	}

	if s := ScopeFor(p, EntityUser); !s.None {
		t.Errorf("teacher user scope should be None, got %+v", s)
	}
}

func TestScopeForStudent(t *testing.T) {
	p := &Principal{ID: 100, Role: models.RoleStudent}

	s := ScopeFor(p, EntityGrade)
	if !reflect.DeepEqual(s.StudentIDs, []int64{100}) || !s.PublishedOnly {
		t.Errorf("student grade scope should be own rows, published only; got %+v", s)
	}

	s = ScopeFor(p, EntityAssignment)
	if !s.PublishedOnly {
		t.Errorf("student assignment scope should be published only, got %+v", s)
	}

	s = ScopeFor(p, EntityAttendance)
	if s.PublishedOnly {
		t.Errorf("attendance has no publication axis, got %+v", s)
	}
	if !reflect.DeepEqual(s.StudentIDs, []int64{100}) {
		t.Errorf("student attendance scope should be own rows, got %+v", s)
	}
}

func TestScopeForParent(t *testing.T) {
	p := &Principal{ID: 200, Role: models.RoleParent, Children: []int64{100, 101}}

	s := ScopeFor(p, EntityGrade)
	if !reflect.DeepEqual(s.StudentIDs, []int64{100, 101}) || !s.PublishedOnly {
		t.Errorf("parent grade scope should cover children, published only; got %+v", s)
	}

	s = ScopeFor(p, EntityEnrollmentRequest)
	if s.PublishedOnly || !reflect.DeepEqual(s.StudentIDs, []int64{100, 101}) {
		t.Errorf("parent enrollment scope should cover children, got %+v", s)
	}
}

func TestScopeForParentWithoutChildren(t *testing.T) {
	p := &Principal{ID: 200, Role: models.RoleParent}
	for _, e := range []Entity{EntityCourse, EntityGrade, EntityAttendance} {
		if s := ScopeFor(p, e); !s.None {
			t.Errorf("parent without children should see nothing for %s, got %+v", e, s)
		}
	}
}
