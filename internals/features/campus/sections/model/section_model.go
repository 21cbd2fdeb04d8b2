package model

import (
	"time"

	"github.com/google/uuid"
)

// SectionModel is a cohort taught as a unit. Strength caches the roster size.
type SectionModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null;uniqueIndex" json:"name"`
	TrainerID *uuid.UUID `gorm:"type:uuid;index" json:"trainer_id,omitempty"`
	Strength  int        `gorm:"not null;default:0" json:"strength"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SectionModel) TableName() string { return "sections" }
