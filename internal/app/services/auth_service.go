package services

import (
	"context"
	"strings"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	pkgauth "github.com/dyilmaz/schoolhub/internal/pkg/auth"
	"github.com/dyilmaz/schoolhub/internal/pkg/identity"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// AuthUserStore is the subset of the user store the auth service needs.
type AuthUserStore interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByFederatedUID(ctx context.Context, uid string) (*models.User, error)
	LinkFederatedUID(ctx context.Context, userID int64, uid string) error
}

// AuthService handles registration and the two credential flows: local
// email/password and federated ID tokens.
type AuthService struct {
	users     AuthUserStore
	jwt       *pkgauth.JWTService
	federated identity.TokenVerifier
}

// NewAuthService creates the auth service. federated may be nil when no
// issuer is configured.
func NewAuthService(users AuthUserStore, jwt *pkgauth.JWTService, federated identity.TokenVerifier) *AuthService {
	return &AuthService{users: users, jwt: jwt, federated: federated}
}

// Register creates a local-credential account and issues a token. Admin
// accounts are provisioned through the user management surface, never here.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if !req.Role.Valid() || req.Role == models.RoleAdmin {
		return nil, apperrors.Invalid("role", "must be teacher, student or parent")
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

	created, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.issue(created)
}

// Login authenticates a local credential.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.Unauthenticated("invalid credentials")
		}
		return nil, err
	}

	if !pkgauth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated("account disabled")
	}

	return s.issue(user)
}

// FederatedLogin authenticates a third-party ID token. Resolution order:
// previously linked UID, then verified email (linking the UID on match).
// An identity with no matching account provisions a fresh student account
// on the spot.
func (s *AuthService) FederatedLogin(ctx context.Context, req *dto.FederatedLoginRequest) (*dto.AuthResponse, error) {
	if s.federated == nil {
		return nil, apperrors.FailedPrecondition("federated login is not configured")
	}

	ident, err := s.federated.Verify(ctx, req.IDToken)
	if err != nil {
		logger.Warn().Err(err).Msg("Federated token rejected")
		return nil, apperrors.Unauthenticated("invalid identity token")
	}

	user, err := s.users.GetByFederatedUID(ctx, ident.UID)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, err
		}
		user, err = s.resolveOrProvision(ctx, ident)
		if err != nil {
			return nil, err
		}
	}

	if !user.IsActive {
		return nil, apperrors.Unauthenticated("account disabled")
	}
	return s.issue(user)
}

// resolveOrProvision matches a verified federated identity to an account by
// email, or creates a student account for it when none exists.
func (s *AuthService) resolveOrProvision(ctx context.Context, ident *identity.FederatedIdentity) (*models.User, error) {
	if ident.Email != "" {
		user, err := s.users.GetByEmail(ctx, strings.ToLower(ident.Email))
		if err == nil {
			if err := s.users.LinkFederatedUID(ctx, user.ID, ident.UID); err != nil {
				return nil, err
			}
			return user, nil
		}
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, err
		}
	}

	firstName, lastName := splitDisplayName(ident.Name)
	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(ident.Email)),
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleStudent,
		IsActive:  true,
	}
	id, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.users.LinkFederatedUID(ctx, id, ident.UID); err != nil {
		return nil, err
	}
	logger.Info().Int64("userID", id).Msg("Provisioned student account from federated identity")
	return s.users.GetByID(ctx, id)
}

// splitDisplayName splits a provider display name into first/last on the
// final space.
func splitDisplayName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Student", ""
	}
	if i := strings.LastIndex(name, " "); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &dto.AuthResponse{Token: token, ExpiresIn: expiresIn, User: user}, nil
}
