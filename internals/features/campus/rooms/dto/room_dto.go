package dto

import (
	"strings"
	"time"

	"campusku_backend/internals/features/campus/rooms/model"

	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Block    *string `json:"block,omitempty" validate:"omitempty,max=60"`
	Capacity int     `json:"capacity" validate:"min=0,max=1000"`
	IsLab    bool    `json:"is_lab"`
}

type UpdateRoomRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Block    *string `json:"block,omitempty" validate:"omitempty,max=60"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,min=0,max=1000"`
	IsLab    *bool   `json:"is_lab,omitempty"`
}

func (r *CreateRoomRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Block != nil {
		b := strings.TrimSpace(*r.Block)
		r.Block = &b
	}
}

func (r CreateRoomRequest) ToModel() model.RoomModel {
	return model.RoomModel{Name: r.Name, Block: r.Block, Capacity: r.Capacity, IsLab: r.IsLab}
}

func (r UpdateRoomRequest) Apply() map[string]any {
	m := map[string]any{}
	if r.Name != nil {
		m["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Block != nil {
		m["block"] = strings.TrimSpace(*r.Block)
	}
	if r.Capacity != nil {
		m["capacity"] = *r.Capacity
	}
	if r.IsLab != nil {
		m["is_lab"] = *r.IsLab
	}
	return m
}

type RoomResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Block     *string   `json:"block,omitempty"`
	Capacity  int       `json:"capacity"`
	IsLab     bool      `json:"is_lab"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToRoomResponse(m model.RoomModel) RoomResponse {
	return RoomResponse{
		ID:        m.ID,
		Name:      m.Name,
		Block:     m.Block,
		Capacity:  m.Capacity,
		IsLab:     m.IsLab,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
