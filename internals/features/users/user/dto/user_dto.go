package dto

import (
	"strings"
	"time"

	uModel "campusku_backend/internals/features/users/user/model"

	"github.com/google/uuid"
)

// CreateUserRequest is used by admins to provision staff accounts.
type CreateUserRequest struct {
	UserName   string  `json:"user_name" validate:"required,min=3,max=50"`
	FullName   string  `json:"full_name" validate:"required,min=2,max=150"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Role       string  `json:"role" validate:"omitempty,oneof=ADMIN FACULTY"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=120"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

func (r *CreateUserRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = "FACULTY"
	}
}

// ToModel leaves Password as given; the controller hashes it.
func (r *CreateUserRequest) ToModel() *uModel.UserModel {
	m := &uModel.UserModel{
		UserName:   r.UserName,
		FullName:   r.FullName,
		Email:      r.Email,
		Password:   r.Password,
		Role:       r.Role,
		Department: r.Department,
		Phone:      r.Phone,
		IsActive:   true,
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	return m
}

// UpdateUserRequest: partial update, nil means untouched.
type UpdateUserRequest struct {
	FullName   *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=150"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Role       *string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN FACULTY"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=120"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.Email != nil {
		e := strings.TrimSpace(strings.ToLower(*r.Email))
		r.Email = &e
	}
	if r.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*r.Role))
		r.Role = &role
	}
	if r.FullName != nil {
		n := strings.TrimSpace(*r.FullName)
		r.FullName = &n
	}
}

// Apply returns the column map without the password.
func (r *UpdateUserRequest) Apply() map[string]any {
	m := map[string]any{}
	if r.FullName != nil {
		m["full_name"] = *r.FullName
	}
	if r.Email != nil {
		m["email"] = *r.Email
	}
	if r.Role != nil {
		m["role"] = *r.Role
	}
	if r.Department != nil {
		m["department"] = strings.TrimSpace(*r.Department)
	}
	if r.Phone != nil {
		m["phone"] = strings.TrimSpace(*r.Phone)
	}
	if r.IsActive != nil {
		m["is_active"] = *r.IsActive
	}
	return m
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	UserName   string    `json:"user_name"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department *string   `json:"department,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func FromModel(u *uModel.UserModel) UserResponse {
	return UserResponse{
		ID:         u.ID,
		UserName:   u.UserName,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Phone:      u.Phone,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
