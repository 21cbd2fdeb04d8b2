package dto

import (
	"strings"
	"time"

	"campusku_backend/internals/features/campus/students/model"

	"github.com/google/uuid"
)

type CreateStudentRequest struct {
	RegNum    string    `json:"reg_num" validate:"required,max=50"`
	Name      string    `json:"name" validate:"required,max=150"`
	Email     *string   `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string   `json:"phone,omitempty" validate:"omitempty,max=30"`
	SectionID uuid.UUID `json:"section_id" validate:"required"`
}

type UpdateStudentRequest struct {
	RegNum    *string    `json:"reg_num,omitempty" validate:"omitempty,min=1,max=50"`
	Name      *string    `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	SectionID *uuid.UUID `json:"section_id,omitempty"`
}

func (r *CreateStudentRequest) Normalize() {
	r.RegNum = strings.ToUpper(strings.TrimSpace(r.RegNum))
	r.Name = strings.TrimSpace(r.Name)
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
	}
}

func (r *UpdateStudentRequest) Normalize() {
	if r.RegNum != nil {
		s := strings.ToUpper(strings.TrimSpace(*r.RegNum))
		r.RegNum = &s
	}
	if r.Name != nil {
		s := strings.TrimSpace(*r.Name)
		r.Name = &s
	}
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
	}
}

func (r CreateStudentRequest) ToModel() model.StudentModel {
	return model.StudentModel{
		RegNum:    r.RegNum,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		SectionID: r.SectionID,
	}
}

func (r UpdateStudentRequest) Apply() map[string]any {
	m := map[string]any{}
	if r.RegNum != nil {
		m["reg_num"] = *r.RegNum
	}
	if r.Name != nil {
		m["name"] = *r.Name
	}
	if r.Email != nil {
		m["email"] = *r.Email
	}
	if r.Phone != nil {
		m["phone"] = strings.TrimSpace(*r.Phone)
	}
	if r.SectionID != nil {
		m["section_id"] = *r.SectionID
	}
	return m
}

type StudentResponse struct {
	ID                   uuid.UUID `json:"id"`
	RegNum               string    `json:"reg_num"`
	Name                 string    `json:"name"`
	Email                *string   `json:"email,omitempty"`
	Phone                *string   `json:"phone,omitempty"`
	SectionID            uuid.UUID `json:"section_id"`
	AttendancePercentage float64   `json:"attendance_percentage"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func ToStudentResponse(m model.StudentModel) StudentResponse {
	return StudentResponse{
		ID:                   m.ID,
		RegNum:               m.RegNum,
		Name:                 m.Name,
		Email:                m.Email,
		Phone:                m.Phone,
		SectionID:            m.SectionID,
		AttendancePercentage: m.AttendancePercentage,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
