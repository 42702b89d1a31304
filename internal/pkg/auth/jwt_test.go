package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:   "test-secret-key",
		TokenExp:    time.Hour,
		TokenIssuer: "schoolhub-test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := testJWTService()

	token, expiresIn, err := svc.GenerateToken(42, "teacher")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresIn != 3600 {
		t.Errorf("expiresIn = %d, want 3600", expiresIn)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("userID = %d, want 42", claims.UserID)
	}
	if claims.Role != "teacher" {
		t.Errorf("role = %q, want teacher", claims.Role)
	}
	if claims.Issuer != "schoolhub-test" {
		t.Errorf("issuer = %q, want schoolhub-test", claims.Issuer)
	}
}

func TestValidateTokenEmpty(t *testing.T) {
	svc := testJWTService()
	if _, err := svc.ValidateToken(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("empty token should be invalid, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService(JWTConfig{
		SecretKey:   "test-secret-key",
		TokenExp:    -time.Minute,
		TokenIssuer: "schoolhub-test",
	})

	token, _, err := svc.GenerateToken(42, "student")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, _, err := testJWTService().GenerateToken(42, "student")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "different-key", TokenExp: time.Hour})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another key should be invalid, got %v", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := testJWTService()
	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token should be invalid, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc123")
	if err != nil {
		t.Fatalf("ExtractBearerToken: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want abc123", token)
	}

	if _, err := ExtractBearerToken(""); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("empty header should fail, got %v", err)
	}
	if _, err := ExtractBearerToken("abc123"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("missing Bearer prefix should fail, got %v", err)
	}
	if _, err := ExtractBearerToken("Basic abc123"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("wrong scheme should fail, got %v", err)
	}
}
