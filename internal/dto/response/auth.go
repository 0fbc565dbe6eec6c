package response

import (
	"time"

	"medhistory/internal/data/entity"
	"medhistory/internal/token"
)

type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func TokenToResponse(pair *token.Pair) TokenResponse {
	return TokenResponse{Access: pair.Access, Refresh: pair.Refresh}
}

// SignupVerifyResponse is returned once a phone number is confirmed.
type SignupVerifyResponse struct {
	TokenResponse
	EmailPending bool   `json:"email_pending"`
	Hint         string `json:"hint"`
}

type ResetLinkResponse struct {
	Link string `json:"link"`
}

type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         *string   `json:"email,omitempty"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	IsActive      bool      `json:"is_active"`
	IsStaff       bool      `json:"is_staff"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:            user.ID.String(),
		Username:      user.Username,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		IsActive:      user.IsActive,
		IsStaff:       user.IsStaff,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}
