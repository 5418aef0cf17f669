// Package auth issues local JWTs for the feature-flagged master test login.
// Regular operator sessions come from the hosted auth provider; this module
// only exists so a deployment without that provider can still be driven.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courier-dispatch/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// ServiceInterface defines the master-login operation.
type ServiceInterface interface {
	MasterLogin(ctx context.Context, req models.MasterLoginRequest) (*models.AuthResponse, error)
}

// Service verifies the configured master credentials and signs access tokens.
type Service struct {
	enabled     bool
	masterEmail string
	masterHash  string
	jwtSecret   string
}

// NewService creates a new auth service. masterHash is a bcrypt hash of the
// master password, never the password itself.
func NewService(enabled bool, masterEmail, masterHash, jwtSecret string) *Service {
	return &Service{
		enabled:     enabled,
		masterEmail: strings.ToLower(strings.TrimSpace(masterEmail)),
		masterHash:  masterHash,
		jwtSecret:   jwtSecret,
	}
}

// MasterLogin verifies the request against the configured master account and
// issues an admin token. When the feature flag is off the endpoint behaves
// as if it did not exist.
func (s *Service) MasterLogin(_ context.Context, req models.MasterLoginRequest) (*models.AuthResponse, error) {
	if !s.enabled || s.masterEmail == "" || s.masterHash == "" {
		return nil, models.ErrNotFound
	}

	if strings.ToLower(strings.TrimSpace(req.Email)) != s.masterEmail {
		return nil, models.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.masterHash), []byte(req.Password)); err != nil {
		return nil, models.ErrUnauthorized
	}

	claims := &models.JwtCustomClaims{
		UserID: "master",
		Email:  s.masterEmail,
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("service.MasterLogin: sign token: %w", err)
	}

	return &models.AuthResponse{AccessToken: signed, Role: models.RoleAdmin}, nil
}
