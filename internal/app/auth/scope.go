package auth

import (
	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// Entity names an entity class for scope resolution.
type Entity string

const (
	EntityUser              Entity = "user"
	EntityCourse            Entity = "course"
	EntityAssignment        Entity = "assignment"
	EntitySubmission        Entity = "submission"
	EntityAttendance        Entity = "attendance"
	EntityGrade             Entity = "grade"
	EntityEnrollmentRequest Entity = "enrollmentRequest"
)

// Scope is the visibility predicate for one principal over one entity class.
// Repositories compile it into SQL conjunctions; it is the only place list
// visibility is decided. Zero or one of All/None/TeacherID/StudentIDs is set;
// PublishedOnly narrows further.
//
//   - All: no restriction (admin).
//   - None: nothing visible (e.g. a parent with no linked children).
//   - TeacherID: rows belonging to courses taught by this teacher.
//   - StudentIDs: rows belonging to (or enrolling) any of these students.
//   - PublishedOnly: only published rows (student/parent views of
//     assignments and grades).
type Scope struct {
	All           bool
	None          bool
	TeacherID     int64
	StudentIDs    []int64
	PublishedOnly bool
}

// ScopeFor produces the visibility predicate for principal p over entity
// class e. Domain services must not recompute these rules inline.
func ScopeFor(p *Principal, e Entity) Scope {
	if p.IsAdmin() {
		return Scope{All: true}
	}

	switch p.Role {
	case models.RoleTeacher:
		if e == EntityUser {
			return Scope{None: true}
		}
		return Scope{TeacherID: p.ID}

	case models.RoleStudent:
		switch e {
		case EntityUser:
			return Scope{None: true}
		case EntityAssignment, EntityGrade:
			return Scope{StudentIDs: []int64{p.ID}, PublishedOnly: true}
		default:
			return Scope{StudentIDs: []int64{p.ID}}
		}

	case models.RoleParent:
		if len(p.Children) == 0 || e == EntityUser {
			return Scope{None: true}
		}
		switch e {
		case EntityAssignment, EntityGrade:
			return Scope{StudentIDs: p.Children, PublishedOnly: true}
		default:
			return Scope{StudentIDs: p.Children}
		}
	}

	return Scope{None: true}
}
