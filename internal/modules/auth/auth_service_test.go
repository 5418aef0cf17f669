package auth

import (
	"context"
	"errors"
	"testing"

	"courier-dispatch/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func TestMasterLoginIssuesAdminToken(t *testing.T) {
	svc := NewService(true, "Ops@Example.com", mustHash(t, "hunter2"), testSecret)

	resp, err := svc.MasterLogin(context.Background(), models.MasterLoginRequest{
		Email:    "ops@example.com",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("MasterLogin: %v", err)
	}
	if resp.Role != models.RoleAdmin {
		t.Errorf("role = %q, want %q", resp.Role, models.RoleAdmin)
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("claims role = %q, want admin", claims.Role)
	}
	if claims.Email != "ops@example.com" {
		t.Errorf("claims email = %q", claims.Email)
	}
}

func TestMasterLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(true, "ops@example.com", mustHash(t, "hunter2"), testSecret)

	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "ops@example.com", "wrong"},
		{"wrong email", "other@example.com", "hunter2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.MasterLogin(context.Background(), models.MasterLoginRequest{Email: tc.email, Password: tc.pass})
			if !errors.Is(err, models.ErrUnauthorized) {
				t.Errorf("err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestMasterLoginDisabled(t *testing.T) {
	svc := NewService(false, "ops@example.com", mustHash(t, "hunter2"), testSecret)
	_, err := svc.MasterLogin(context.Background(), models.MasterLoginRequest{Email: "ops@example.com", Password: "hunter2"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound (endpoint hidden when disabled)", err)
	}
}
