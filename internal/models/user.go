package models

import "time"

// User is an operator account. Session management is delegated to a hosted
// auth provider; this table backs role lookups and the master test login.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Roles recognized by the admin middleware.
const (
	RoleAdmin      = "admin"
	RoleDispatcher = "dispatcher"
	RoleDriver     = "driver"
)

// MasterLoginRequest is the body of the feature-flagged master test login.
type MasterLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries a freshly issued access token.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}
