package service

import (
	"context"
	"fmt"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

type BulkRecord struct {
	StudentID uuid.UUID
	Status    attModel.Status
	Feedback  string
}

type BulkMarkInput struct {
	TimeSlotID  uint
	Date        time.Time
	TopicTaught *string
	Records     []BulkRecord
}

// BulkResult reports per-record outcomes; the session is nil when nothing was written.
type BulkResult struct {
	Total   int                              `json:"total"`
	Success int                              `json:"success"`
	Failure int                              `json:"failure"`
	Errors  []string                         `json:"errors"`
	Session *attModel.AttendanceSessionModel `json:"session,omitempty"`
}

// BulkMarkAttendance applies explicit statuses for one slot. Invalid records are
// counted as failures and the student keeps the PRESENT default, so the session
// still carries one row per roster student.
func (s *Service) BulkMarkAttendance(ctx context.Context, caller helperAuth.Caller, in BulkMarkInput) (*BulkResult, error) {
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
	date, err := s.sessionDate(in.Date)
	if err != nil {
		return nil, err
	}

	roster, err := s.store.ListSectionStudents(ctx, slot.SectionID)
	if err != nil {
		return nil, err
	}

	sheet := NewSheet(roster)
	res := &BulkResult{Total: len(in.Records), Errors: []string{}}
	for _, rec := range in.Records {
		if err := sheet.Set(rec.StudentID, rec.Status, rec.Feedback); err != nil {
			res.Failure++
			res.Errors = append(res.Errors, apperror.PublicMessage(err))
			continue
		}
		res.Success++
	}

	out, err := s.persist(ctx, writePlan{
		caller: caller,
		slot:   slot,
		date:   date,
		sheet:  sheet,
		topic:  in.TopicTaught,
	})
	if err != nil {
		return nil, err
	}
	res.Session = &out.Session
	s.notifySession(ctx, caller, out)
	return res, nil
}

type BatchRecord struct {
	StudentID uuid.UUID
	Present   bool
	Late      bool
	Feedback  string
}

type BatchInput struct {
	SectionID   uuid.UUID
	Date        time.Time
	TopicTaught *string
	TimeSlotIDs []uint
	Records     []BatchRecord
}

const (
	SlotResultSuccess = "SUCCESS"
	SlotResultFailed  = "FAILED"
)

type SlotResult struct {
	TimeSlotID uint       `json:"time_slot_id"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
}

type BatchResult struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	Results      []SlotResult `json:"results"`
	Total        int          `json:"total"`
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Errors       []string     `json:"errors"`
}

// SubmitBatch writes the same classification to several contiguous slots of one
// section. Each slot commits on its own; record errors never abort the batch.
func (s *Service) SubmitBatch(ctx context.Context, caller helperAuth.Caller, in BatchInput) (*BatchResult, error) {
	slots, err := s.ValidateBatch(ctx, caller, &in.SectionID, in.TimeSlotIDs)
	if err != nil {
		return &BatchResult{Success: false, Message: apperror.PublicMessage(err), Results: []SlotResult{}, Errors: []string{}}, err
	}
	date, err := s.sessionDate(in.Date)
	if err != nil {
		return nil, err
	}

	roster, err := s.store.ListSectionStudents(ctx, in.SectionID)
	if err != nil {
		return nil, err
	}

	sheet := NewSheet(roster)
	res := &BatchResult{Total: len(in.Records), Results: make([]SlotResult, 0, len(slots)), Errors: []string{}}
	for _, rec := range in.Records {
		var err error
		switch {
		case rec.Late:
			err = sheet.MarkLate(rec.StudentID, rec.Feedback)
			if err == nil && !rec.Present {
				err = sheet.MarkAbsent(rec.StudentID)
			}
		case !rec.Present:
			err = sheet.MarkAbsent(rec.StudentID)
		default:
			err = sheet.Set(rec.StudentID, attModel.StatusPresent, rec.Feedback)
		}
		if err != nil {
			res.FailureCount++
			res.Errors = append(res.Errors, apperror.PublicMessage(err))
			continue
		}
		res.SuccessCount++
	}

	written := 0
	for i := range slots {
		slot := &slots[i]
		out, err := s.persist(ctx, writePlan{
			caller:    caller,
			slot:      slot,
			date:      date,
			sheet:     sheet,
			topic:     in.TopicTaught,
			noReplace: true,
		})
		if err != nil {
			res.Results = append(res.Results, SlotResult{TimeSlotID: slot.ID, Status: SlotResultFailed, Error: apperror.PublicMessage(err)})
			res.Errors = append(res.Errors, fmt.Sprintf("time slot %d: %s", slot.ID, apperror.PublicMessage(err)))
			continue
		}
		written++
		res.Results = append(res.Results, SlotResult{TimeSlotID: slot.ID, Status: SlotResultSuccess, SessionID: uuidPtr(out.Session.ID)})
	}

	res.Success = written == len(slots)
	res.Message = fmt.Sprintf("Attendance submitted for %d of %d time slots", written, len(slots))
	if written > 0 {
		s.notify(ctx, Event{
			Type:      EventBatchSubmitted,
			SectionID: uuidPtr(in.SectionID),
			FacultyID: uuidPtr(caller.ID),
			ActorID:   caller.ID,
			Date:      date.Format(dbtime.DateLayout),
			Message:   res.Message,
			Meta:      map[string]any{"time_slot_ids": in.TimeSlotIDs},
		})
	}
	return res, nil
}
