package user

import "github.com/simp-lee/medibook/internal/domain"

// CreateUserRequest represents the input for registering a user.
type CreateUserRequest struct {
	DNI      string      `json:"dni" binding:"required,max=32"`
	Name     string      `json:"name" binding:"required,min=2,max=100"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8,max=72"`
	Role     domain.Role `json:"role" binding:"omitempty,oneof=CLIENT DOCTOR"`
}

// LoginRequest represents the input for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r CreateUserRequest) toNewUser() domain.NewUser {
	return domain.NewUser{
		DNI:      r.DNI,
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     r.Role,
	}
}
