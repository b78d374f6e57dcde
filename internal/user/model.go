package user

import (
	"time"

	"coachslot/internal/auth"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile is the public view of a user.
type Profile struct {
	ID   string    `json:"id" example:"6f1c2b8e-3d4a-4f5b-9c6d-7e8f9a0b1c2d"`
	Name string    `json:"name" example:"Aiko Tanaka"`
	Role auth.Role `json:"role" example:"trainer"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Role: u.Role}
}

type SignupRequest struct {
	Name     string    `json:"name" binding:"required,max=100" example:"Aiko Tanaka"`
	Email    string    `json:"email" binding:"required,email" example:"aiko@example.com"`
	Phone    string    `json:"phone" binding:"max=32" example:"090-1234-5678"`
	Password string    `json:"password" binding:"required,min=8,max=72"`
	Role     auth.Role `json:"role" binding:"omitempty,oneof=trainer trainee" example:"trainee"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateRequest changes profile fields. The role is fixed at signup.
type UpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}
