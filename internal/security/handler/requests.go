package handler

import (
	"strings"
	"time"

	"attest/internal/security/models"
	dErrors "attest/pkg/domain-errors"
)

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	return nil
}

// LoginResponse is the HTTP response for POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ChangePasswordRequest is the HTTP request body for POST /account/password.
// Field-level rules live in the service; the handler only requires presence.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" || r.NewPassword == "" || r.ConfirmPassword == "" {
		return dErrors.New(dErrors.CodeBadRequest, "current, new, and confirmation passwords are required")
	}
	return nil
}

// UpdatePolicyRequest is the HTTP request body for PUT /admin/security-policy.
type UpdatePolicyRequest struct {
	PasswordChangeIntervalDays int `json:"password_change_interval_days"`
}

func (r *UpdatePolicyRequest) Validate() error {
	if r.PasswordChangeIntervalDays < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "password_change_interval_days must be zero or positive")
	}
	return nil
}

// PolicyResponse is the wire form of the security policy.
type PolicyResponse struct {
	PasswordChangeIntervalDays int       `json:"password_change_interval_days"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// FromPolicy converts the domain policy to its wire form.
func FromPolicy(policy models.Policy) PolicyResponse {
	return PolicyResponse{
		PasswordChangeIntervalDays: policy.PasswordChangeIntervalDays,
		UpdatedAt:                  policy.UpdatedAt,
	}
}
