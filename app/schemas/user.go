// Package schemas defines request and response payloads.
package schemas

import (
	"time"

	"github.com/km-arc/fastie/app/models"
)

// UserCreate is the body of POST /user/register.
type UserCreate struct {
	Name     string `json:"name"      validate:"required|string|max:100"`
	Email    string `json:"email"     validate:"required|email|max:100"`
	Password string `json:"password"  validate:"required|min:8|max:72"`
	IsActive *int   `json:"is_active" validate:"sometimes|in:0,1"`
	Avatar   string `json:"avatar"    validate:"sometimes|url|max:255"`
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name"      validate:"sometimes|max:100"`
	Email    *string `json:"email"     validate:"sometimes|email|max:100"`
	Password *string `json:"password"  validate:"sometimes|min:8|max:72"`
	IsActive *int    `json:"is_active" validate:"sometimes|in:0,1"`
	Avatar   *string `json:"avatar"    validate:"sometimes|url|max:255"`
	Token    *string `json:"token"     validate:"sometimes|max:255"`
}

// Empty reports whether no field is set.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil &&
		u.IsActive == nil && u.Avatar == nil && u.Token == nil
}

// UserResponse is the public view of a user; it never carries the password
// hash or the token.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  int       `json:"is_active"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse projects u.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsActive:  u.IsActive,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required|email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}
