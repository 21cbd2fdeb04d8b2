package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionOnTime SubmissionStatus = "ON_TIME"
	SubmissionLate   SubmissionStatus = "LATE"
	// never stored, derived for slots without a session
	SubmissionMissed SubmissionStatus = "MISSED"
)

// AttendanceSessionModel is one submission for one time slot on one date.
// At most one row per (time_slot_id, date).
type AttendanceSessionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FacultyID   uuid.UUID `gorm:"type:uuid;not null;index:idx_session_faculty_date,priority:1" json:"faculty_id"`
	SubmittedBy uuid.UUID `gorm:"type:uuid;not null" json:"submitted_by"`
	SectionID   uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`
	TimeSlotID  uint      `gorm:"not null;uniqueIndex:uq_session_slot_date,priority:1" json:"time_slot_id"`
	Date        time.Time `gorm:"type:date;not null;uniqueIndex:uq_session_slot_date,priority:2;index:idx_session_faculty_date,priority:2" json:"date"`

	TotalStudents        int     `gorm:"not null;default:0" json:"total_students"`
	PresentCount         int     `gorm:"not null;default:0" json:"present_count"`
	AbsentCount          int     `gorm:"not null;default:0" json:"absent_count"`
	LateCount            int     `gorm:"not null;default:0" json:"late_count"`
	AttendancePercentage float64 `gorm:"type:numeric(5,2);not null;default:0" json:"attendance_percentage"`

	TopicTaught          *string          `gorm:"size:255" json:"topic_taught,omitempty"`
	SubmittedAt          time.Time        `gorm:"type:timestamptz;not null" json:"submitted_at"`
	SubmissionStatus     SubmissionStatus `gorm:"type:varchar(10);not null" json:"submission_status"`
	LateSubmissionReason *string          `gorm:"type:text" json:"late_submission_reason,omitempty"`

	IsOverride       bool              `gorm:"not null;default:false" json:"is_override"`
	OverrideReason   *string           `gorm:"type:text" json:"override_reason,omitempty"`
	OverriddenBy     *uuid.UUID        `gorm:"type:uuid" json:"overridden_by,omitempty"`
	OverrideSnapshot datatypes.JSONMap `gorm:"type:jsonb" json:"override_snapshot,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AttendanceSessionModel) TableName() string { return "attendance_sessions" }
