package dto

import (
	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// CreateUserRequest is the admin-side user creation payload.
type CreateUserRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8"`
	FirstName string      `json:"firstName" binding:"required"`
	LastName  string      `json:"lastName" binding:"required"`
	Role      models.Role `json:"role" binding:"required"`
	Phone     *string     `json:"phone"`

	GradeLevel *int    `json:"gradeLevel"`
	Parents    []int64 `json:"parents"`
	Department *string `json:"department"`
	Children   []int64 `json:"children"`
}

// UpdateUserRequest carries partial user updates; nil fields are untouched.
type UpdateUserRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Phone      *string `json:"phone"`
	Password   *string `json:"password" binding:"omitempty,min=8"`
	GradeLevel *int    `json:"gradeLevel"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"isActive"`
}
