package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainerModel struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string         `gorm:"size:150;not null" json:"name"`
	Email          *string        `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Phone          *string        `gorm:"size:30" json:"phone,omitempty"`
	Specialization *string        `gorm:"size:150" json:"specialization,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TrainerModel) TableName() string { return "trainers" }
