package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnhub_backend/internal/common"
	"learnhub_backend/internal/common/security"
	"learnhub_backend/internal/domain/model"
	"learnhub_backend/internal/domain/repository"
	"learnhub_backend/internal/platform/config"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: time.Hour,
	}
	security.InitJWT()
	db := newTestDB(t)
	return NewAuthService(repository.NewSQLUserRepository(db))
}

func TestSignupAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token from signup")
	}
	if resp.User.Role != model.RoleStudent {
		t.Errorf("expected default role student, got %q", resp.User.Role)
	}
	if resp.User.HashedPassword != "" {
		t.Error("hashed password must not be returned")
	}

	// Login by email, then by username.
	for _, field := range []string{"alice@example.com", "alice"} {
		got, err := svc.Login(ctx, LoginRequest{LoginField: field, Password: "s3cret-pass"})
		if err != nil {
			t.Fatalf("Login with %q failed: %v", field, err)
		}
		if got.User.ID != resp.User.ID {
			t.Errorf("Login with %q returned user %s, want %s", field, got.User.ID, resp.User.ID)
		}
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{Username: "bob"}); !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for missing fields, got %v", err)
	}

	_, err := svc.Signup(ctx, SignupRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "s3cret-pass",
		Role:     model.RoleAdmin,
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation for admin signup, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{LoginField: "carol", Password: "wrong"}},
		{"unknown user", LoginRequest{LoginField: "nobody", Password: "s3cret-pass"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.req); !errors.Is(err, common.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
