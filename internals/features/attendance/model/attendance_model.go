package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

// AttendanceModel is one student's row for a session. One per (student, slot, date).
type AttendanceModel struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_student_slot_date,priority:1" json:"student_id"`
	TimeSlotID uint      `gorm:"not null;uniqueIndex:uq_attendance_student_slot_date,priority:2" json:"time_slot_id"`
	SectionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:uq_attendance_student_slot_date,priority:3;index" json:"date"`
	Status     Status    `gorm:"type:varchar(10);not null" json:"status"`
	Feedback   *string   `gorm:"type:text" json:"feedback,omitempty"`
	PostedAt   time.Time `gorm:"type:timestamptz;not null" json:"posted_at"`
	MarkedBy   uuid.UUID `gorm:"type:uuid;not null" json:"marked_by"`

	Session *AttendanceSessionModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AttendanceModel) TableName() string { return "attendances" }

// AttendanceArchiveModel is the cold copy written by the monthly archive.
type AttendanceArchiveModel struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OriginalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"original_id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	TimeSlotID uint      `gorm:"not null" json:"time_slot_id"`
	SectionID  uuid.UUID `gorm:"type:uuid;not null" json:"section_id"`
	Date       time.Time `gorm:"type:date;not null;index" json:"date"`
	Status     Status    `gorm:"type:varchar(10);not null" json:"status"`
	Feedback   *string   `gorm:"type:text" json:"feedback,omitempty"`
	PostedAt   time.Time `gorm:"type:timestamptz;not null" json:"posted_at"`
	MarkedBy   uuid.UUID `gorm:"type:uuid;not null" json:"marked_by"`
	ArchivedAt time.Time `gorm:"type:timestamptz;not null" json:"archived_at"`
}

func (AttendanceArchiveModel) TableName() string { return "attendance_archives" }

func (a AttendanceModel) ToArchive(at time.Time) AttendanceArchiveModel {
	return AttendanceArchiveModel{
		ID:         uuid.New(),
		OriginalID: a.ID,
		SessionID:  a.SessionID,
		StudentID:  a.StudentID,
		TimeSlotID: a.TimeSlotID,
		SectionID:  a.SectionID,
		Date:       a.Date,
		Status:     a.Status,
		Feedback:   a.Feedback,
		PostedAt:   a.PostedAt,
		MarkedBy:   a.MarkedBy,
		ArchivedAt: at,
	}
}
