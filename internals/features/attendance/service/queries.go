package service

import (
	"context"
	"sort"
	"strings"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

// DateRange is inclusive on both ends. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (s *Service) resolveRange(r DateRange) (time.Time, time.Time, error) {
	from, to := r.From, r.To
	if from.IsZero() {
		from = time.Date(2000, 1, 1, 0, 0, 0, 0, s.loc)
	} else {
		from = dbtime.DayIn(from.In(s.loc), s.loc)
	}
	if to.IsZero() {
		to = s.Today()
	} else {
		to = dbtime.DayIn(to.In(s.loc), s.loc)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperror.Validation("'from' must not be after 'to'")
	}
	return from, to, nil
}

type StudentAttendanceReport struct {
	Student studentModel.StudentModel  `json:"student"`
	Summary Aggregate                  `json:"summary"`
	Records []attModel.AttendanceModel `json:"records"`
}

func (s *Service) StudentAttendance(ctx context.Context, studentID uuid.UUID, r DateRange) (*StudentAttendanceReport, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListStudentAttendance(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}
	return &StudentAttendanceReport{Student: *st, Summary: Summarize(rows), Records: rows}, nil
}

type SlotAttendance struct {
	TimeSlotID uint                             `json:"time_slot_id"`
	Date       string                           `json:"date"`
	Session    *attModel.AttendanceSessionModel `json:"session"`
	Records    []attModel.AttendanceModel       `json:"records"`
}

func (s *Service) TimeSlotAttendance(ctx context.Context, slotID uint, date *time.Time) (*SlotAttendance, error) {
	if _, err := s.store.GetTimeSlot(ctx, slotID); err != nil {
		return nil, err
	}
	target := s.Today()
	if date != nil && !date.IsZero() {
		target = dbtime.DayIn(date.In(s.loc), s.loc)
	}
	sess, err := s.store.FindSession(ctx, slotID, target)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListSlotAttendance(ctx, slotID, target)
	if err != nil {
		return nil, err
	}
	return &SlotAttendance{TimeSlotID: slotID, Date: target.Format(dbtime.DateLayout), Session: sess, Records: rows}, nil
}

type SectionReportRow struct {
	StudentID    uuid.UUID `json:"student_id"`
	RegNum       string    `json:"reg_num"`
	Name         string    `json:"name"`
	TotalClasses int       `json:"total_classes"`
	Absences     int       `json:"absences"`
	Late         int       `json:"late"`
	Percentage   float64   `json:"percentage"`
}

type SectionReport struct {
	SectionID   uuid.UUID          `json:"section_id"`
	SectionName string             `json:"section_name"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	Rows        []SectionReportRow `json:"rows"`
}

// SectionReport returns one row per roster student, sorted by reg number.
func (s *Service) SectionReport(ctx context.Context, sectionID uuid.UUID, r DateRange) (*SectionReport, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}
	sec, err := s.store.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListSectionStudents(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListSectionAttendance(ctx, sectionID, from, to)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[uuid.UUID]*SectionReportRow, len(roster))
	out := make([]SectionReportRow, 0, len(roster))
	for _, st := range roster {
		out = append(out, SectionReportRow{StudentID: st.ID, RegNum: st.RegNum, Name: st.Name})
	}
	for i := range out {
		byStudent[out[i].StudentID] = &out[i]
	}
	for _, a := range rows {
		row, ok := byStudent[a.StudentID]
		if !ok {
			continue
		}
		row.TotalClasses++
		switch a.Status {
		case attModel.StatusAbsent:
			row.Absences++
		case attModel.StatusLate:
			row.Late++
		}
	}
	for i := range out {
		out[i].Percentage = RollingPercentage(AttendanceCount{Total: out[i].TotalClasses, Absences: out[i].Absences})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RegNum < out[j].RegNum })

	return &SectionReport{
		SectionID:   sec.ID,
		SectionName: sec.Name,
		From:        from.Format(dbtime.DateLayout),
		To:          to.Format(dbtime.DateLayout),
		Rows:        out,
	}, nil
}

func (s *Service) FacultySessions(ctx context.Context, facultyID uuid.UUID, r DateRange) ([]attModel.AttendanceSessionModel, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}
	return s.store.ListFacultySessions(ctx, facultyID, from, to)
}

// UpdateLateReason sets the explanation of a LATE submission. Owner faculty or admin.
func (s *Service) UpdateLateReason(ctx context.Context, caller helperAuth.Caller, sessionID uuid.UUID, reason string) (*attModel.AttendanceSessionModel, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("late submission reason is required")
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && sess.FacultyID != caller.ID && sess.SubmittedBy != caller.ID {
		return nil, apperror.Authorization("you cannot update this session")
	}
	if sess.SubmissionStatus != attModel.SubmissionLate {
		return nil, apperror.InvalidState("late reason can only be set on a late submission")
	}
	if err := s.store.UpdateLateReason(ctx, sessionID, reason); err != nil {
		return nil, err
	}
	sess.LateSubmissionReason = &reason

	s.notify(ctx, Event{
		Type:       EventLateReason,
		SessionID:  uuidPtr(sess.ID),
		TimeSlotID: sess.TimeSlotID,
		SectionID:  uuidPtr(sess.SectionID),
		FacultyID:  uuidPtr(sess.FacultyID),
		ActorID:    caller.ID,
		Date:       sess.Date.Format(dbtime.DateLayout),
		Message:    "Late submission reason updated",
	})
	return sess, nil
}
