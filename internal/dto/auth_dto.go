package dto

import "time"

// ExchangeCodeRequest is the body posted by the frontend after Google login.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// AuthResponse carries the application access token issued after sign-in.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
}
