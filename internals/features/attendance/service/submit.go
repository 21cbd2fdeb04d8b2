package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/dbtime"
	"campusku_backend/internals/helpers/locker"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmitInput struct {
	TimeSlotID       uint
	DateTime         time.Time
	SectionID        *uuid.UUID
	ScheduleID       *uuid.UUID
	TopicTaught      *string
	AbsentStudentIDs []uuid.UUID
	LateStudents     []LateStudent
}

type OverrideInput struct {
	SubmitInput
	OverrideReason string
	OverriddenBy   *uuid.UUID
}

type SubmitResult struct {
	Session  attModel.AttendanceSessionModel `json:"session"`
	Records  []attModel.AttendanceModel      `json:"records"`
	Replaced *uuid.UUID                      `json:"replaced_session_id,omitempty"`
}

type overrideMeta struct {
	reason string
	by     uuid.UUID
}

type writePlan struct {
	caller   helperAuth.Caller
	slot     *schedModel.TimeSlotModel
	date     time.Time
	sheet    *Sheet
	topic    *string
	override *overrideMeta

	// keep an existing session even for admins
	noReplace bool
}

// SubmitAttendance records one slot for one date. Any error aborts the call.
// Admin resubmission replaces the existing session.
func (s *Service) SubmitAttendance(ctx context.Context, caller helperAuth.Caller, in SubmitInput) (*SubmitResult, error) {
	return s.submit(ctx, caller, in, nil)
}

// OverrideAttendance force-replaces the session of (slot, date). Admin only.
func (s *Service) OverrideAttendance(ctx context.Context, caller helperAuth.Caller, in OverrideInput) (*SubmitResult, error) {
	if !caller.IsAdmin() {
		return nil, apperror.Authorization("only admins can override attendance")
	}
	reason := strings.TrimSpace(in.OverrideReason)
	if reason == "" {
		return nil, apperror.Validation("override reason is required")
	}
	by := caller.ID
	if in.OverriddenBy != nil && *in.OverriddenBy != uuid.Nil {
		by = *in.OverriddenBy
	}
	return s.submit(ctx, caller, in.SubmitInput, &overrideMeta{reason: reason, by: by})
}

func (s *Service) submit(ctx context.Context, caller helperAuth.Caller, in SubmitInput, ov *overrideMeta) (*SubmitResult, error) {
	slot, err := s.store.GetTimeSlot(ctx, in.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if err := CanSubmit(caller, slot); err != nil {
		return nil, err
	}
	if slot.IsBreak {
		return nil, apperror.Validation("time slot %d is a break", slot.ID)
	}
	if err := s.verifyPlacement(ctx, slot, in.SectionID, in.ScheduleID); err != nil {
		return nil, err
	}

	date, err := s.sessionDate(in.DateTime)
	if err != nil {
		return nil, err
	}

	roster, err := s.store.ListSectionStudents(ctx, slot.SectionID)
	if err != nil {
		return nil, err
	}
	sheet, err := ReconcileStrict(roster, in.AbsentStudentIDs, in.LateStudents)
	if err != nil {
		return nil, err
	}

	res, err := s.persist(ctx, writePlan{
		caller:   caller,
		slot:     slot,
		date:     date,
		sheet:    sheet,
		topic:    in.TopicTaught,
		override: ov,
	})
	if err != nil {
		return nil, err
	}
	s.notifySession(ctx, caller, res)
	return res, nil
}

// sessionDate normalizes the submission day; zero means today, future days are rejected.
func (s *Service) sessionDate(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return s.Today(), nil
	}
	date := dbtime.DayIn(t.In(s.loc), s.loc)
	if date.After(s.Today()) {
		return time.Time{}, apperror.Validation("cannot submit attendance for a future date")
	}
	return date, nil
}

func lockKey(slotID uint, date time.Time) string {
	return fmt.Sprintf("attendance:%d:%s", slotID, date.Format(dbtime.DateLayout))
}

// persist writes the session and its rows in one transaction and refreshes
// the rolling percentage of every affected student.
func (s *Service) persist(ctx context.Context, p writePlan) (*SubmitResult, error) {
	key := lockKey(p.slot.ID, p.date)
	release, err := s.locker.Obtain(ctx, key, s.lockTTL)
	switch {
	case errors.Is(err, locker.ErrNotObtained):
		return nil, apperror.Duplicate("attendance for this time slot and date is already being submitted")
	case err != nil:
		// storage uniqueness still holds without the lock
		s.logError("persist", "obtain lock", key, err)
	default:
		defer release()
	}

	now := s.Now()
	facultyID := p.caller.ID
	if p.slot.InchargeFacultyID != nil {
		facultyID = *p.slot.InchargeFacultyID
	}

	status, perr := ClassifySubmission(p.slot.EndTime, now)
	if perr != nil {
		s.logError("persist", "parse slot end time", p.slot.ID, perr)
	}

	session := &attModel.AttendanceSessionModel{
		ID:               uuid.New(),
		FacultyID:        facultyID,
		SubmittedBy:      p.caller.ID,
		SectionID:        p.slot.SectionID,
		TimeSlotID:       p.slot.ID,
		Date:             p.date,
		TopicTaught:      trimPtr(p.topic),
		SubmittedAt:      now,
		SubmissionStatus: status,
	}
	rows := p.sheet.Rows(session.ID, p.slot.ID, p.slot.SectionID, p.date, now, p.caller.ID)
	Summarize(rows).apply(session)

	if p.override != nil {
		reason := p.override.reason
		session.IsOverride = true
		session.OverrideReason = &reason
		session.OverriddenBy = uuidPtr(p.override.by)
	}

	var replaced *uuid.UUID
	err = s.store.WithTx(ctx, func(tx Store) error {
		affected := p.sheet.StudentIDs()

		if !p.caller.IsAdmin() {
			done, err := isAlreadySubmitted(ctx, tx, &facultyID, p.slot.ID, p.date)
			if err != nil {
				return err
			}
			if done {
				return apperror.ErrDuplicateSubmission()
			}
		} else {
			existing, err := tx.FindSession(ctx, p.slot.ID, p.date)
			if err != nil {
				return err
			}
			if existing != nil && p.noReplace {
				return apperror.ErrDuplicateSubmission()
			}
			if existing != nil {
				oldRows, err := tx.ListSessionAttendance(ctx, existing.ID)
				if err != nil {
					return err
				}
				for _, r := range oldRows {
					affected = append(affected, r.StudentID)
				}
				archived, err := tx.DeleteSessionArchives(ctx, existing.ID)
				if err != nil {
					return err
				}
				affected = append(affected, archived...)
				if err := tx.DeleteSession(ctx, existing.ID); err != nil {
					return err
				}
				replaced = uuidPtr(existing.ID)
				session.IsOverride = true
				session.OverrideSnapshot = snapshotOf(existing)
				if session.OverriddenBy == nil {
					session.OverriddenBy = uuidPtr(p.caller.ID)
				}
			}
		}

		if err := tx.CreateSession(ctx, session, rows); err != nil {
			if apperror.Is(err, apperror.KindDuplicate) || apperror.IsUniqueViolation(err) {
				return apperror.ErrDuplicateSubmission()
			}
			return err
		}
		return recomputePercentages(ctx, tx, affected)
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			s.logError("persist", "transaction", key, err)
		}
		return nil, err
	}

	return &SubmitResult{Session: *session, Records: rows, Replaced: replaced}, nil
}

// recomputePercentages refreshes the cumulative percentage over all rows of each student.
func recomputePercentages(ctx context.Context, tx Store, studentIDs []uuid.UUID) error {
	ids := uniqueIDs(studentIDs)
	if len(ids) == 0 {
		return nil
	}
	counts, err := tx.StudentAttendanceCounts(ctx, ids)
	if err != nil {
		return err
	}
	pct := make(map[uuid.UUID]float64, len(ids))
	for _, id := range ids {
		pct[id] = RollingPercentage(counts[id])
	}
	return tx.UpdateStudentPercentages(ctx, pct)
}

func snapshotOf(s *attModel.AttendanceSessionModel) datatypes.JSONMap {
	return datatypes.JSONMap{
		"session_id":            s.ID.String(),
		"submitted_by":          s.SubmittedBy.String(),
		"submitted_at":          s.SubmittedAt.Format(time.RFC3339),
		"submission_status":     string(s.SubmissionStatus),
		"total_students":        s.TotalStudents,
		"present_count":         s.PresentCount,
		"absent_count":          s.AbsentCount,
		"late_count":            s.LateCount,
		"attendance_percentage": s.AttendancePercentage,
	}
}

func (s *Service) notifySession(ctx context.Context, caller helperAuth.Caller, res *SubmitResult) {
	sess := res.Session
	ev := Event{
		Type:       EventSubmitted,
		SessionID:  uuidPtr(sess.ID),
		TimeSlotID: sess.TimeSlotID,
		SectionID:  uuidPtr(sess.SectionID),
		FacultyID:  uuidPtr(sess.FacultyID),
		ActorID:    caller.ID,
		Date:       sess.Date.Format(dbtime.DateLayout),
		Message: fmt.Sprintf("Attendance submitted for time slot %d on %s (%d/%d present)",
			sess.TimeSlotID, sess.Date.Format(dbtime.DateLayout), sess.PresentCount, sess.TotalStudents),
	}
	if sess.IsOverride {
		ev.Type = EventOverridden
		ev.Message = fmt.Sprintf("Attendance for time slot %d on %s was overridden by an admin",
			sess.TimeSlotID, sess.Date.Format(dbtime.DateLayout))
		ev.Meta = map[string]any{}
		if sess.OverrideReason != nil {
			ev.Meta["reason"] = *sess.OverrideReason
		}
		if res.Replaced != nil {
			ev.Meta["replaced_session_id"] = res.Replaced.String()
		}
	}
	s.notify(ctx, ev)
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
