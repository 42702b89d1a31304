package models

import (
	"time"
)

// User defines the user model based on the 'users' table. Role-specific
// extensions are populated only when the role matches: GradeLevel and Parents
// for students, Department for teachers, Children for parents.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Password     string    `json:"-" db:"password"` // hashed, never projected on reads
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Role         Role      `json:"role" db:"role"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	FederatedUID *string   `json:"-" db:"federated_uid"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	// Student extension
	GradeLevel *int    `json:"gradeLevel,omitempty" db:"grade_level"`
	Parents    []int64 `json:"parents,omitempty"`

	// Teacher extension
	Department *string `json:"department,omitempty" db:"department"`

	// Parent extension
	Children []int64 `json:"children,omitempty"`
}

// IsStudent reports whether the user carries the student role.
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsTeacher reports whether the user carries the teacher role.
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
