package dto

import (
	"strings"
	"time"

	"campusku_backend/internals/features/campus/sections/model"

	"github.com/google/uuid"
)

type CreateSectionRequest struct {
	Name      string     `json:"name" validate:"required,min=1,max=100"`
	TrainerID *uuid.UUID `json:"trainer_id,omitempty"`
}

type UpdateSectionRequest struct {
	Name      *string    `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	TrainerID *uuid.UUID `json:"trainer_id,omitempty"`
	// ClearTrainer unassigns the trainer; TrainerID wins when both are set.
	ClearTrainer bool `json:"clear_trainer,omitempty"`
}

func (r *CreateSectionRequest) Normalize() {
	r.Name = strings.ToUpper(strings.TrimSpace(r.Name))
}

func (r *UpdateSectionRequest) Normalize() {
	if r.Name != nil {
		n := strings.ToUpper(strings.TrimSpace(*r.Name))
		r.Name = &n
	}
}

func (r UpdateSectionRequest) Apply() map[string]any {
	m := map[string]any{}
	if r.Name != nil {
		m["name"] = *r.Name
	}
	switch {
	case r.TrainerID != nil:
		m["trainer_id"] = *r.TrainerID
	case r.ClearTrainer:
		m["trainer_id"] = nil
	}
	return m
}

type SectionResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	TrainerID   *uuid.UUID `json:"trainer_id,omitempty"`
	TrainerName *string    `json:"trainer_name,omitempty"`
	Strength    int        `json:"strength"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToSectionResponse(m model.SectionModel, trainerName *string) SectionResponse {
	return SectionResponse{
		ID:          m.ID,
		Name:        m.Name,
		TrainerID:   m.TrainerID,
		TrainerName: trainerName,
		Strength:    m.Strength,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
