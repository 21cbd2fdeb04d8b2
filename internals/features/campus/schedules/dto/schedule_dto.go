package dto

import (
	"strings"
	"time"

	"campusku_backend/internals/features/campus/schedules/model"

	"github.com/google/uuid"
)

type TimeSlotInput struct {
	StartTime         string     `json:"start_time" validate:"required,max=8"`
	EndTime           string     `json:"end_time" validate:"required,max=8"`
	IsBreak           bool       `json:"is_break"`
	InchargeFacultyID *uuid.UUID `json:"incharge_faculty_id,omitempty"`
	RoomID            *uuid.UUID `json:"room_id,omitempty"`
	Label             *string    `json:"label,omitempty" validate:"omitempty,max=100"`
}

func (in TimeSlotInput) ToModel(scheduleID, sectionID uuid.UUID) model.TimeSlotModel {
	return model.TimeSlotModel{
		StartTime:         strings.TrimSpace(in.StartTime),
		EndTime:           strings.TrimSpace(in.EndTime),
		IsBreak:           in.IsBreak,
		SectionID:         sectionID,
		InchargeFacultyID: in.InchargeFacultyID,
		RoomID:            in.RoomID,
		ScheduleID:        scheduleID,
		Label:             in.Label,
	}
}

type UpdateTimeSlotRequest struct {
	StartTime         *string    `json:"start_time,omitempty" validate:"omitempty,max=8"`
	EndTime           *string    `json:"end_time,omitempty" validate:"omitempty,max=8"`
	IsBreak           *bool      `json:"is_break,omitempty"`
	InchargeFacultyID *uuid.UUID `json:"incharge_faculty_id,omitempty"`
	RoomID            *uuid.UUID `json:"room_id,omitempty"`
	Label             *string    `json:"label,omitempty" validate:"omitempty,max=100"`
	ClearIncharge     bool       `json:"clear_incharge,omitempty"`
	ClearRoom         bool       `json:"clear_room,omitempty"`
}

// ApplyTo mutates m in place.
func (r UpdateTimeSlotRequest) ApplyTo(m *model.TimeSlotModel) {
	if r.StartTime != nil {
		m.StartTime = strings.TrimSpace(*r.StartTime)
	}
	if r.EndTime != nil {
		m.EndTime = strings.TrimSpace(*r.EndTime)
	}
	if r.IsBreak != nil {
		m.IsBreak = *r.IsBreak
	}
	switch {
	case r.InchargeFacultyID != nil:
		m.InchargeFacultyID = r.InchargeFacultyID
	case r.ClearIncharge:
		m.InchargeFacultyID = nil
	}
	switch {
	case r.RoomID != nil:
		m.RoomID = r.RoomID
	case r.ClearRoom:
		m.RoomID = nil
	}
	if r.Label != nil {
		m.Label = r.Label
	}
}

type CreateScheduleRequest struct {
	SectionID uuid.UUID       `json:"section_id" validate:"required"`
	Title     string          `json:"title" validate:"required,max=150"`
	IsActive  *bool           `json:"is_active,omitempty"`
	TimeSlots []TimeSlotInput `json:"time_slots" validate:"omitempty,dive"`
}

type UpdateScheduleRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=150"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (r *CreateScheduleRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r UpdateScheduleRequest) Apply() map[string]any {
	m := map[string]any{}
	if r.Title != nil {
		m["title"] = strings.TrimSpace(*r.Title)
	}
	if r.IsActive != nil {
		m["is_active"] = *r.IsActive
	}
	return m
}

type TimeSlotResponse struct {
	ID                uint       `json:"id"`
	StartTime         string     `json:"start_time"`
	EndTime           string     `json:"end_time"`
	IsBreak           bool       `json:"is_break"`
	SectionID         uuid.UUID  `json:"section_id"`
	ScheduleID        uuid.UUID  `json:"schedule_id"`
	InchargeFacultyID *uuid.UUID `json:"incharge_faculty_id,omitempty"`
	RoomID            *uuid.UUID `json:"room_id,omitempty"`
	Label             *string    `json:"label,omitempty"`
}

func ToTimeSlotResponse(m model.TimeSlotModel) TimeSlotResponse {
	return TimeSlotResponse{
		ID:                m.ID,
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		IsBreak:           m.IsBreak,
		SectionID:         m.SectionID,
		ScheduleID:        m.ScheduleID,
		InchargeFacultyID: m.InchargeFacultyID,
		RoomID:            m.RoomID,
		Label:             m.Label,
	}
}

type ScheduleResponse struct {
	ID        uuid.UUID          `json:"id"`
	SectionID uuid.UUID          `json:"section_id"`
	Title     string             `json:"title"`
	IsActive  bool               `json:"is_active"`
	TimeSlots []TimeSlotResponse `json:"time_slots"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func ToScheduleResponse(m model.SectionScheduleModel) ScheduleResponse {
	slots := make([]TimeSlotResponse, 0, len(m.TimeSlots))
	for _, s := range m.TimeSlots {
		slots = append(slots, ToTimeSlotResponse(s))
	}
	return ScheduleResponse{
		ID:        m.ID,
		SectionID: m.SectionID,
		Title:     m.Title,
		IsActive:  m.IsActive,
		TimeSlots: slots,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
