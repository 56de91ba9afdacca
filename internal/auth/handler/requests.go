package handler

import (
	"strings"

	"github.com/google/uuid"

	"mapproperties/internal/auth/service"
	"mapproperties/internal/user"
)

// GoogleLoginRequest carries the ID token from Google Sign-In.
type GoogleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

func (r *GoogleLoginRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	return nil
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	UserID      uuid.UUID `json:"user_id"`
	IsVerified  bool      `json:"is_verified"`
}

func toTokenResponse(s *service.Session) *TokenResponse {
	return &TokenResponse{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		ExpiresIn:   int64(s.ExpiresIn.Seconds()),
		UserID:      s.User.ID,
		IsVerified:  s.User.IsVerified,
	}
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	IsVerified bool      `json:"is_verified"`
}

func toUserResponse(u *user.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		IsVerified: u.IsVerified,
	}
}
