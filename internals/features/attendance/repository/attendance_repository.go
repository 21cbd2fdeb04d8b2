// Package repository is the PostgreSQL service.Store, built on GORM.
package repository

import (
	"context"
	"errors"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/features/attendance/service"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/helpers/apperror"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository struct {
	db   *gorm.DB
	inTx bool
}

var _ service.Store = (*AttendanceRepository)(nil)

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// DATE columns are compared as strings so the driver never shifts the day.
func day(t time.Time) string { return t.Format(dbtime.DateLayout) }

func (r *AttendanceRepository) q(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

func (r *AttendanceRepository) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.q(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AttendanceRepository{db: tx, inTx: true})
	})
}

/* ===============================
   Roster
=================================*/

func (r *AttendanceRepository) GetTimeSlot(ctx context.Context, id uint) (*schedModel.TimeSlotModel, error) {
	var sl schedModel.TimeSlotModel
	if err := r.q(ctx).First(&sl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("time slot %d not found", id)
		}
		return nil, apperror.FromDB(err, "time slot")
	}
	return &sl, nil
}

func (r *AttendanceRepository) GetTimeSlots(ctx context.Context, ids []uint) ([]schedModel.TimeSlotModel, error) {
	out := []schedModel.TimeSlotModel{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.q(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, apperror.FromDB(err, "time slots")
	}
	return out, nil
}

func (r *AttendanceRepository) ListFacultyTimeSlots(ctx context.Context, facultyID uuid.UUID) ([]schedModel.TimeSlotModel, error) {
	out := []schedModel.TimeSlotModel{}
	err := r.q(ctx).
		Joins("JOIN section_schedules ss ON ss.id = time_slots.schedule_id AND ss.is_active = TRUE").
		Where("time_slots.incharge_faculty_id = ?", facultyID).
		Order("time_slots.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperror.FromDB(err, "time slots")
	}
	return out, nil
}

func (r *AttendanceRepository) GetSchedule(ctx context.Context, id uuid.UUID) (*schedModel.SectionScheduleModel, error) {
	var sch schedModel.SectionScheduleModel
	if err := r.q(ctx).First(&sch, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "schedule")
	}
	return &sch, nil
}

func (r *AttendanceRepository) ScheduleSlotIDs(ctx context.Context, scheduleID uuid.UUID) ([]uint, error) {
	ids := []uint{}
	err := r.q(ctx).Model(&schedModel.TimeSlotModel{}).
		Where("schedule_id = ?", scheduleID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, apperror.FromDB(err, "time slots")
	}
	return ids, nil
}

func (r *AttendanceRepository) GetSection(ctx context.Context, id uuid.UUID) (*sectionModel.SectionModel, error) {
	var sec sectionModel.SectionModel
	if err := r.q(ctx).First(&sec, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "section")
	}
	return &sec, nil
}

func (r *AttendanceRepository) GetStudent(ctx context.Context, id uuid.UUID) (*studentModel.StudentModel, error) {
	var st studentModel.StudentModel
	if err := r.q(ctx).First(&st, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "student")
	}
	return &st, nil
}

func (r *AttendanceRepository) ListSectionStudents(ctx context.Context, sectionID uuid.UUID) ([]studentModel.StudentModel, error) {
	out := []studentModel.StudentModel{}
	if err := r.q(ctx).Where("section_id = ?", sectionID).Order("reg_num ASC").Find(&out).Error; err != nil {
		return nil, apperror.FromDB(err, "students")
	}
	return out, nil
}

/* ===============================
   Sessions
=================================*/

func (r *AttendanceRepository) findSession(ctx context.Context, where string, args ...any) (*attModel.AttendanceSessionModel, error) {
	var sess attModel.AttendanceSessionModel
	tx := r.q(ctx)
	if r.inTx {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := tx.Where(where, args...).Take(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.FromDB(err, "attendance session")
	}
	return &sess, nil
}

func (r *AttendanceRepository) FindSession(ctx context.Context, slotID uint, date time.Time) (*attModel.AttendanceSessionModel, error) {
	return r.findSession(ctx, "time_slot_id = ? AND date = ?", slotID, day(date))
}

func (r *AttendanceRepository) FindFacultySession(ctx context.Context, facultyID uuid.UUID, slotID uint, date time.Time) (*attModel.AttendanceSessionModel, error) {
	return r.findSession(ctx, "faculty_id = ? AND time_slot_id = ? AND date = ?", facultyID, slotID, day(date))
}

func (r *AttendanceRepository) GetSession(ctx context.Context, id uuid.UUID) (*attModel.AttendanceSessionModel, error) {
	var sess attModel.AttendanceSessionModel
	if err := r.q(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "attendance session")
	}
	return &sess, nil
}

func (r *AttendanceRepository) ListSessionsForSlots(ctx context.Context, slotIDs []uint, date time.Time) ([]attModel.AttendanceSessionModel, error) {
	out := []attModel.AttendanceSessionModel{}
	if len(slotIDs) == 0 {
		return out, nil
	}
	if err := r.q(ctx).Where("time_slot_id IN ? AND date = ?", slotIDs, day(date)).Find(&out).Error; err != nil {
		return nil, apperror.FromDB(err, "attendance sessions")
	}
	return out, nil
}

func (r *AttendanceRepository) ListFacultySessions(ctx context.Context, facultyID uuid.UUID, from, to time.Time) ([]attModel.AttendanceSessionModel, error) {
	out := []attModel.AttendanceSessionModel{}
	err := r.q(ctx).
		Where("faculty_id = ? AND date BETWEEN ? AND ?", facultyID, day(from), day(to)).
		Order("submitted_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperror.FromDB(err, "attendance sessions")
	}
	return out, nil
}

func (r *AttendanceRepository) CreateSession(ctx context.Context, s *attModel.AttendanceSessionModel, rows []attModel.AttendanceModel) error {
	return r.WithTx(ctx, func(tx service.Store) error {
		db := tx.(*AttendanceRepository).q(ctx)
		if err := db.Create(s).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return apperror.ErrDuplicateSubmission()
			}
			return apperror.FromDB(err, "attendance session")
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].SessionID = s.ID
		}
		if err := db.CreateInBatches(rows, 200).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return apperror.ErrDuplicateSubmission()
			}
			return apperror.FromDB(err, "attendance")
		}
		return nil
	})
}

func (r *AttendanceRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx service.Store) error {
		db := tx.(*AttendanceRepository).q(ctx)
		if err := db.Where("session_id = ?", id).Delete(&attModel.AttendanceModel{}).Error; err != nil {
			return apperror.FromDB(err, "attendance")
		}
		res := db.Where("id = ?", id).Delete(&attModel.AttendanceSessionModel{})
		if res.Error != nil {
			return apperror.FromDB(res.Error, "attendance session")
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("attendance session %s not found", id)
		}
		return nil
	})
}

func (r *AttendanceRepository) UpdateLateReason(ctx context.Context, id uuid.UUID, reason string) error {
	res := r.q(ctx).Model(&attModel.AttendanceSessionModel{}).
		Where("id = ?", id).
		Update("late_submission_reason", reason)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "attendance session")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("attendance session %s not found", id)
	}
	return nil
}

/* ===============================
   Attendance rows
=================================*/

func (r *AttendanceRepository) listAttendance(ctx context.Context, where string, args ...any) ([]attModel.AttendanceModel, error) {
	out := []attModel.AttendanceModel{}
	err := r.q(ctx).Where(where, args...).
		Order("date ASC, time_slot_id ASC, student_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperror.FromDB(err, "attendance")
	}
	return out, nil
}

func (r *AttendanceRepository) ListSessionAttendance(ctx context.Context, sessionID uuid.UUID) ([]attModel.AttendanceModel, error) {
	return r.listAttendance(ctx, "session_id = ?", sessionID)
}

func (r *AttendanceRepository) ListSlotAttendance(ctx context.Context, slotID uint, date time.Time) ([]attModel.AttendanceModel, error) {
	return r.listAttendance(ctx, "time_slot_id = ? AND date = ?", slotID, day(date))
}

func (r *AttendanceRepository) ListStudentAttendance(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]attModel.AttendanceModel, error) {
	return r.listAttendance(ctx, "student_id = ? AND date BETWEEN ? AND ?", studentID, day(from), day(to))
}

func (r *AttendanceRepository) ListSectionAttendance(ctx context.Context, sectionID uuid.UUID, from, to time.Time) ([]attModel.AttendanceModel, error) {
	return r.listAttendance(ctx, "section_id = ? AND date BETWEEN ? AND ?", sectionID, day(from), day(to))
}

type countRow struct {
	StudentID uuid.UUID
	Total     int
	Absences  int
}

const countsSQL = `
SELECT student_id,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'ABSENT') AS absences
FROM (
    SELECT student_id, status FROM attendances WHERE student_id IN ?
    UNION ALL
    SELECT student_id, status FROM attendance_archives WHERE student_id IN ?
) t
GROUP BY student_id`

func (r *AttendanceRepository) StudentAttendanceCounts(ctx context.Context, studentIDs []uuid.UUID) (map[uuid.UUID]service.AttendanceCount, error) {
	out := make(map[uuid.UUID]service.AttendanceCount, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}
	var rows []countRow
	if err := r.q(ctx).Raw(countsSQL, studentIDs, studentIDs).Scan(&rows).Error; err != nil {
		return nil, apperror.FromDB(err, "attendance counts")
	}
	for _, row := range rows {
		out[row.StudentID] = service.AttendanceCount{Total: row.Total, Absences: row.Absences}
	}
	return out, nil
}

func (r *AttendanceRepository) UpdateStudentPercentages(ctx context.Context, pct map[uuid.UUID]float64) error {
	return r.WithTx(ctx, func(tx service.Store) error {
		db := tx.(*AttendanceRepository).q(ctx)
		for id, p := range pct {
			err := db.Model(&studentModel.StudentModel{}).
				Where("id = ?", id).
				Update("attendance_percentage", p).Error
			if err != nil {
				return apperror.FromDB(err, "student")
			}
		}
		return nil
	})
}

/* ===============================
   Archive
=================================*/

func (r *AttendanceRepository) ListAttendanceBetween(ctx context.Context, from, to time.Time) ([]attModel.AttendanceModel, error) {
	return r.listAttendance(ctx, "date >= ? AND date < ?", day(from), day(to))
}

func (r *AttendanceRepository) DeleteSessionArchives(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	var gone []attModel.AttendanceArchiveModel
	err := r.q(ctx).Clauses(clause.Returning{Columns: []clause.Column{{Name: "student_id"}}}).
		Where("session_id = ?", sessionID).
		Delete(&gone).Error
	if err != nil {
		return nil, apperror.FromDB(err, "attendance archive")
	}
	ids := make([]uuid.UUID, 0, len(gone))
	for _, a := range gone {
		ids = append(ids, a.StudentID)
	}
	return ids, nil
}

func (r *AttendanceRepository) ArchiveAttendance(ctx context.Context, rows []attModel.AttendanceArchiveModel) error {
	if len(rows) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx service.Store) error {
		db := tx.(*AttendanceRepository).q(ctx)
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error; err != nil {
			return apperror.FromDB(err, "attendance archive")
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, a := range rows {
			ids = append(ids, a.OriginalID)
		}
		for start := 0; start < len(ids); start += 1000 {
			end := start + 1000
			if end > len(ids) {
				end = len(ids)
			}
			if err := db.Where("id IN ?", ids[start:end]).Delete(&attModel.AttendanceModel{}).Error; err != nil {
				return apperror.FromDB(err, "attendance")
			}
		}
		return nil
	})
}
