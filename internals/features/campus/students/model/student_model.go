package model

import (
	"time"

	"github.com/google/uuid"
)

type StudentModel struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RegNum    string    `gorm:"column:reg_num;size:50;not null;uniqueIndex" json:"reg_num"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Email     *string   `gorm:"size:255" json:"email,omitempty"`
	Phone     *string   `gorm:"size:30" json:"phone,omitempty"`
	SectionID uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`

	// cumulative over every attendance row of the student
	AttendancePercentage float64 `gorm:"type:numeric(5,2);not null;default:0" json:"attendance_percentage"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StudentModel) TableName() string { return "students" }
