package auth

import "github.com/marketmaster/marketmaster-backend/internal/users"

// RegisterRequest captures the sign-up payload.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	// ClientIP feeds the registration rate limit.
	ClientIP string
}

// LoginRequest captures the sign-in payload.
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// RefreshRequest carries the expired (or expiring) access token plus the
// refresh token issued alongside it.
type RefreshRequest struct {
	AccessToken  string
	RefreshToken string
}

// AuthResponse is returned by register, login, and refresh.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         users.UserDTO `json:"user"`
}
