package dto

import (
	"strings"
	"time"

	"campusku_backend/internals/features/campus/trainers/model"

	"github.com/google/uuid"
)

type CreateTrainerRequest struct {
	Name           string  `json:"name" validate:"required,min=2,max=150"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Specialization *string `json:"specialization,omitempty" validate:"omitempty,max=150"`
}

// UpdateTrainerRequest: nil fields are left untouched.
type UpdateTrainerRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Specialization *string `json:"specialization,omitempty" validate:"omitempty,max=150"`
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

func (r *CreateTrainerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = trimPtr(r.Email)
	r.Phone = trimPtr(r.Phone)
	r.Specialization = trimPtr(r.Specialization)
	if r.Email != nil {
		lower := strings.ToLower(*r.Email)
		r.Email = &lower
	}
}

func (r *UpdateTrainerRequest) Normalize() {
	r.Name = trimPtr(r.Name)
	r.Email = trimPtr(r.Email)
	r.Phone = trimPtr(r.Phone)
	r.Specialization = trimPtr(r.Specialization)
}

func (r CreateTrainerRequest) ToModel() model.TrainerModel {
	return model.TrainerModel{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Specialization: r.Specialization,
	}
}

// Apply returns the column map for Updates.
func (r UpdateTrainerRequest) Apply() map[string]any {
	m := map[string]any{}
	if r.Name != nil {
		m["name"] = *r.Name
	}
	if r.Email != nil {
		m["email"] = strings.ToLower(*r.Email)
	}
	if r.Phone != nil {
		m["phone"] = *r.Phone
	}
	if r.Specialization != nil {
		m["specialization"] = *r.Specialization
	}
	return m
}

type TrainerResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func ToTrainerResponse(m model.TrainerModel) TrainerResponse {
	return TrainerResponse{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		Specialization: m.Specialization,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
