package services

import (
	"context"
	"testing"
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	pkgauth "github.com/dyilmaz/schoolhub/internal/pkg/auth"
	"github.com/dyilmaz/schoolhub/internal/pkg/identity"
)

func setupAuthTest(t *testing.T, federated identity.TokenVerifier) (*AuthService, *mockUserStore) {
	t.Helper()
	users := newMockUserStore()
	jwt := pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:   "test-secret",
		TokenExp:    time.Hour,
		TokenIssuer: "schoolhub-test",
	})
	return NewAuthService(users, jwt, federated), users
}

func TestRegisterIssuesToken(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:     "  Ada.Lovelace@Example.COM ",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      models.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Token == "" || resp.ExpiresIn != 3600 {
		t.Errorf("expected a token valid for an hour, got %q / %d", resp.Token, resp.ExpiresIn)
	}
	if resp.User.Email != "ada.lovelace@example.com" {
		t.Errorf("email should be lowercased and trimmed, got %q", resp.User.Email)
	}
	if !resp.User.IsActive {
		t.Error("new accounts should start active")
	}
	if resp.User.Password == "correct-horse" {
		t.Error("password must be stored hashed")
	}
}

func TestRegisterForbidsAdminRole(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "boss@example.com", Password: "password1", FirstName: "B", LastName: "Oss",
		Role: models.RoleAdmin,
	})
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("admin self-registration should be invalid, got %v", err)
	}
}

func TestRegisterUnknownRole(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "x@example.com", Password: "password1", FirstName: "X", LastName: "Y",
		Role: "janitor",
	})
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("unknown role should be invalid, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	if _, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "kid@example.com", Password: "hunter22", FirstName: "K", LastName: "Id",
		Role: models.RoleStudent,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "KID@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	if _, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "kid@example.com", Password: "hunter22", FirstName: "K", LastName: "Id",
		Role: models.RoleStudent,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "kid@example.com", Password: "wrong"})
	if apperrors.KindOf(err) != apperrors.KindUnauthenticated {
		t.Errorf("wrong password should be unauthenticated, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	if apperrors.KindOf(err) != apperrors.KindUnauthenticated {
		t.Errorf("unknown email should be unauthenticated, not a not-found leak, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, users := setupAuthTest(t, nil)
	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "kid@example.com", Password: "hunter22", FirstName: "K", LastName: "Id",
		Role: models.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	users.users[resp.User.ID].IsActive = false

	_, err = svc.Login(context.Background(), &dto.LoginRequest{Email: "kid@example.com", Password: "hunter22"})
	if apperrors.KindOf(err) != apperrors.KindUnauthenticated {
		t.Errorf("disabled account should be unauthenticated, got %v", err)
	}
}

func TestFederatedLoginNotConfigured(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)

	_, err := svc.FederatedLogin(context.Background(), &dto.FederatedLoginRequest{IDToken: "tok"})
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Errorf("federated login without a verifier should fail the precondition, got %v", err)
	}
}

func TestFederatedLoginLinksByEmail(t *testing.T) {
	verifier := &fakeVerifier{identities: map[string]*identity.FederatedIdentity{
		"good-token": {UID: "fed-uid-1", Email: "Kid@Example.com", Name: "Kid"},
	}}
	svc, users := setupAuthTest(t, verifier)
	if _, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email: "kid@example.com", Password: "hunter22", FirstName: "K", LastName: "Id",
		Role: models.RoleStudent,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resp, err := svc.FederatedLogin(context.Background(), &dto.FederatedLoginRequest{IDToken: "good-token"})
	if err != nil {
		t.Fatalf("FederatedLogin: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}

	linked := users.users[resp.User.ID]
	if linked.FederatedUID == nil || *linked.FederatedUID != "fed-uid-1" {
		t.Errorf("UID should be linked after email match, got %v", linked.FederatedUID)
	}

	// second login resolves directly by the linked UID
	if _, err := svc.FederatedLogin(context.Background(), &dto.FederatedLoginRequest{IDToken: "good-token"}); err != nil {
		t.Errorf("login by linked UID should succeed, got %v", err)
	}
}

func TestFederatedLoginProvisionsStudent(t *testing.T) {
	verifier := &fakeVerifier{identities: map[string]*identity.FederatedIdentity{
		"stranger-token": {UID: "fed-uid-2", Email: "New.Student@Example.com", Name: "New Student"},
	}}
	svc, users := setupAuthTest(t, verifier)

	resp, err := svc.FederatedLogin(context.Background(), &dto.FederatedLoginRequest{IDToken: "stranger-token"})
	if err != nil {
		t.Fatalf("FederatedLogin: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User.Role != models.RoleStudent {
		t.Errorf("role = %s, want student", resp.User.Role)
	}
	if !resp.User.IsActive {
		t.Error("provisioned account should start active")
	}
	if resp.User.Email != "new.student@example.com" {
		t.Errorf("email should be lowercased, got %q", resp.User.Email)
	}
	if resp.User.FirstName != "New" || resp.User.LastName != "Student" {
		t.Errorf("name split = %q %q, want New Student", resp.User.FirstName, resp.User.LastName)
	}

	created := users.users[resp.User.ID]
	if created.FederatedUID == nil || *created.FederatedUID != "fed-uid-2" {
		t.Errorf("UID should be linked on provisioning, got %v", created.FederatedUID)
	}

	// second login resolves the same account, no duplicate
	again, err := svc.FederatedLogin(context.Background(), &dto.FederatedLoginRequest{IDToken: "stranger-token"})
	if err != nil {
		t.Fatalf("second FederatedLogin: %v", err)
	}
	if again.User.ID != resp.User.ID {
		t.Errorf("second login created a new account: %d vs %d", again.User.ID, resp.User.ID)
	}
}

func TestFederatedLoginBadToken(t *testing.T) {
	verifier := &fakeVerifier{identities: map[string]*identity.FederatedIdentity{}}
	svc, _ := setupAuthTest(t, verifier)

	_, err := svc.FederatedLogin(context.Background(), &dto.FederatedLoginRequest{IDToken: "forged"})
	if apperrors.KindOf(err) != apperrors.KindUnauthenticated {
		t.Errorf("rejected token should be unauthenticated, got %v", err)
	}
}
