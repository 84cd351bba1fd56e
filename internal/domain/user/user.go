package user

import (
	"errors"
	"time"
)

// Roles known to the dashboard. Every account has exactly one.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrEmailConflict  = errors.New("email belongs to another account")
	ErrMissingField   = errors.New("missing required field")
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=patient doctor admin"`
}

// Patch applied by the profile editor. Password is optional, an empty
// value keeps the current one.
type UpdateProfileRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=120"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"omitempty"`
	ConfirmPassword string `json:"confirmPassword" binding:"omitempty"`
}
