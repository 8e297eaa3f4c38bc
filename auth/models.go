package auth

import "time"

type Role string

const (
	RoleCaptain   Role = "captain"
	RoleSecretary Role = "secretary"
	RoleLupon     Role = "lupon"
)

// Official is a barangay official allowed to act on blotter cases.
// It mirrors the officials table and carries no JSON annotations so it can be
// reused by different presentation layers.
type Official struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// RegisterRequest contains official registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains official login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
