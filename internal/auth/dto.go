package auth

import (
	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/internal/profiles"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// LoginRequest is the credentials payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StudioSummary is the compact studio shape returned with tokens.
type StudioSummary struct {
	ID   uuid.UUID        `json:"id"`
	Name string           `json:"name"`
	Role enums.MemberRole `json:"role"`
}

// LoginResponse carries the issued token pair plus studio context.
type LoginResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	Studios      []StudioSummary      `json:"studios"`
	Profile      *profiles.ProfileDTO `json:"profile"`
}

// RefreshRequest rotates an existing session.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
