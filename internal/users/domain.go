package users

import "time"

// User is an application account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `json:"is_active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=160"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest edits profile fields. A nil field is left unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=160"`
	IsActive *bool   `json:"is_active,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}
