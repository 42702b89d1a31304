package dto

import (
	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// RegisterRequest creates a local-credential account. Role-specific fields
// are accepted only when the role matches.
type RegisterRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8"`
	FirstName string      `json:"firstName" binding:"required"`
	LastName  string      `json:"lastName" binding:"required"`
	Role      models.Role `json:"role" binding:"required"`
	Phone     *string     `json:"phone"`

	// Student fields
	GradeLevel *int    `json:"gradeLevel"`
	Parents    []int64 `json:"parents"`

	// Teacher fields
	Department *string `json:"department"`

	// Parent fields
	Children []int64 `json:"children"`
}

// LoginRequest authenticates a local credential.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// FederatedLoginRequest authenticates a third-party ID token.
type FederatedLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// AuthResponse carries the issued token and the authenticated user.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expiresIn"`
	User      *models.User `json:"user"`
}
