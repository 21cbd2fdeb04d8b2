package service

import (
	"context"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentModel "campusku_backend/internals/features/campus/students/model"

	"github.com/google/uuid"
)

// AttendanceCount is a student's lifetime row count, archives included.
type AttendanceCount struct {
	Total    int
	Absences int
}

// Store is the persistence boundary of the attendance flow. Lookups by id
// return an apperror NotFound; Find* return (nil, nil) when nothing matches.
// Dates are calendar days; only their Y-M-D is significant.
type Store interface {
	// WithTx runs fn atomically. A Store obtained inside fn is bound to the transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	GetTimeSlot(ctx context.Context, id uint) (*schedModel.TimeSlotModel, error)
	// GetTimeSlots returns the slots that exist, in no particular order.
	GetTimeSlots(ctx context.Context, ids []uint) ([]schedModel.TimeSlotModel, error)
	ListFacultyTimeSlots(ctx context.Context, facultyID uuid.UUID) ([]schedModel.TimeSlotModel, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*schedModel.SectionScheduleModel, error)
	ScheduleSlotIDs(ctx context.Context, scheduleID uuid.UUID) ([]uint, error)
	GetSection(ctx context.Context, id uuid.UUID) (*sectionModel.SectionModel, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*studentModel.StudentModel, error)
	ListSectionStudents(ctx context.Context, sectionID uuid.UUID) ([]studentModel.StudentModel, error)

	FindSession(ctx context.Context, slotID uint, date time.Time) (*attModel.AttendanceSessionModel, error)
	FindFacultySession(ctx context.Context, facultyID uuid.UUID, slotID uint, date time.Time) (*attModel.AttendanceSessionModel, error)
	GetSession(ctx context.Context, id uuid.UUID) (*attModel.AttendanceSessionModel, error)
	ListSessionsForSlots(ctx context.Context, slotIDs []uint, date time.Time) ([]attModel.AttendanceSessionModel, error)
	ListFacultySessions(ctx context.Context, facultyID uuid.UUID, from, to time.Time) ([]attModel.AttendanceSessionModel, error)
	// CreateSession inserts the session and its rows; a (time slot, date) clash is a Duplicate.
	CreateSession(ctx context.Context, s *attModel.AttendanceSessionModel, rows []attModel.AttendanceModel) error
	// DeleteSession removes the rows, then the session.
	DeleteSession(ctx context.Context, id uuid.UUID) error
	UpdateLateReason(ctx context.Context, id uuid.UUID, reason string) error

	ListSessionAttendance(ctx context.Context, sessionID uuid.UUID) ([]attModel.AttendanceModel, error)
	ListSlotAttendance(ctx context.Context, slotID uint, date time.Time) ([]attModel.AttendanceModel, error)
	ListStudentAttendance(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]attModel.AttendanceModel, error)
	ListSectionAttendance(ctx context.Context, sectionID uuid.UUID, from, to time.Time) ([]attModel.AttendanceModel, error)

	StudentAttendanceCounts(ctx context.Context, studentIDs []uuid.UUID) (map[uuid.UUID]AttendanceCount, error)
	UpdateStudentPercentages(ctx context.Context, pct map[uuid.UUID]float64) error

	// ListAttendanceBetween returns rows with from <= date < to.
	ListAttendanceBetween(ctx context.Context, from, to time.Time) ([]attModel.AttendanceModel, error)
	// ArchiveAttendance inserts the archive rows and deletes their originals.
	ArchiveAttendance(ctx context.Context, rows []attModel.AttendanceArchiveModel) error
	// DeleteSessionArchives drops the archived rows of a session and returns their student ids.
	DeleteSessionArchives(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
}
