package auth

import (
	"time"
)

// User is an application account.
type User struct {
	ID                int64
	Username          string
	Email             string
	FirstName         string
	LastName          string
	IsActive          bool
	HasUsablePassword bool
	DateJoined        time.Time
	LastLogin         *time.Time
}

// UserResponse is the JSON shape of a user.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Response renders u for API responses.
func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest for username/password registration.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest for username/password authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries optional profile edits. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// Identity is a verified external identity used to find or create a user.
type Identity struct {
	Email     string
	FirstName string
	LastName  string
	Username  string // suggested; de-duplicated on create
}
