package model

import (
	"time"

	"github.com/google/uuid"
)

// SectionScheduleModel owns the time slots of a section's timetable.
type SectionScheduleModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SectionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"section_id"`
	Title     string          `gorm:"size:150;not null" json:"title"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	TimeSlots []TimeSlotModel `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"time_slots,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SectionScheduleModel) TableName() string { return "section_schedules" }

// TimeSlotModel is a fixed daily period. Times are wall-clock strings ("09:00" or "9").
type TimeSlotModel struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	StartTime         string     `gorm:"size:8;not null" json:"start_time"`
	EndTime           string     `gorm:"size:8;not null" json:"end_time"`
	IsBreak           bool       `gorm:"not null;default:false" json:"is_break"`
	SectionID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"section_id"`
	InchargeFacultyID *uuid.UUID `gorm:"type:uuid;index" json:"incharge_faculty_id,omitempty"`
	RoomID            *uuid.UUID `gorm:"type:uuid" json:"room_id,omitempty"`
	ScheduleID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"schedule_id"`
	Label             *string    `gorm:"size:100" json:"label,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TimeSlotModel) TableName() string { return "time_slots" }
