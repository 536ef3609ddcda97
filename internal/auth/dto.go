package auth

import (
	"github.com/iuiualumni/alumni-backend/internal/identities"
	"github.com/iuiualumni/alumni-backend/internal/roles"
)

// RegisterRequest is the self-service registration payload.
type RegisterRequest struct {
	FullName       string  `json:"full_name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password,omitempty" validate:"omitempty,min=8"`
	Batch          string  `json:"batch,omitempty"`
	Course         string  `json:"course,omitempty"`
	GraduationYear *int    `json:"graduation_year,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	CurrentJob     string  `json:"current_job,omitempty"`
	CurrentCompany string  `json:"current_company,omitempty"`
}

// LoginRequest is the credential payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token plus the refresh token to
// rotate.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is one issued access/refresh credential pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	TokenPair
	Identity *identities.IdentityDTO `json:"identity"`
}

// RegisterResponse is returned on successful registration. Session is nil
// when the auto-login step failed; the registration itself stands.
type RegisterResponse struct {
	Identity *identities.IdentityDTO `json:"identity"`
	Role     *roles.RoleDTO          `json:"role,omitempty"`
	Session  *TokenPair              `json:"session,omitempty"`
}
