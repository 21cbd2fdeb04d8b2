package service

import (
	"strings"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
)

type LateStudent struct {
	StudentID uuid.UUID
	Feedback  string
}

type mark struct {
	status   attModel.Status
	feedback *string
}

// Sheet holds one mark per roster student, PRESENT until told otherwise.
type Sheet struct {
	order []uuid.UUID
	marks map[uuid.UUID]*mark
}

func NewSheet(roster []studentModel.StudentModel) *Sheet {
	sh := &Sheet{
		order: make([]uuid.UUID, 0, len(roster)),
		marks: make(map[uuid.UUID]*mark, len(roster)),
	}
	for _, st := range roster {
		if _, dup := sh.marks[st.ID]; dup {
			continue
		}
		sh.order = append(sh.order, st.ID)
		sh.marks[st.ID] = &mark{status: attModel.StatusPresent}
	}
	return sh
}

func (sh *Sheet) Len() int { return len(sh.order) }

func (sh *Sheet) lookup(id uuid.UUID) (*mark, error) {
	m, ok := sh.marks[id]
	if !ok {
		return nil, apperror.NotFound("student %s not found in section", id)
	}
	return m, nil
}

// MarkAbsent wins over any late mark.
func (sh *Sheet) MarkAbsent(id uuid.UUID) error {
	m, err := sh.lookup(id)
	if err != nil {
		return err
	}
	m.status = attModel.StatusAbsent
	m.feedback = nil
	return nil
}

// MarkLate requires feedback; an absent student stays absent.
func (sh *Sheet) MarkLate(id uuid.UUID, feedback string) error {
	m, err := sh.lookup(id)
	if err != nil {
		return err
	}
	fb := strings.TrimSpace(feedback)
	if fb == "" {
		return apperror.Validation("feedback is required for late student %s", id)
	}
	if m.status == attModel.StatusAbsent {
		return nil
	}
	m.status = attModel.StatusLate
	m.feedback = &fb
	return nil
}

// Set applies an explicit status, last write wins.
func (sh *Sheet) Set(id uuid.UUID, status attModel.Status, feedback string) error {
	m, err := sh.lookup(id)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return apperror.Validation("invalid status %q for student %s", status, id)
	}
	if status == attModel.StatusLate && strings.TrimSpace(feedback) == "" {
		return apperror.Validation("feedback is required for late student %s", id)
	}
	m.status = status
	m.feedback = nil
	if fb := strings.TrimSpace(feedback); fb != "" {
		m.feedback = &fb
	}
	return nil
}

func (sh *Sheet) Status(id uuid.UUID) (attModel.Status, bool) {
	m, ok := sh.marks[id]
	if !ok {
		return "", false
	}
	return m.status, true
}

func (sh *Sheet) StudentIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), sh.order...)
}

// Rows materializes one attendance row per roster student, in roster order.
func (sh *Sheet) Rows(sessionID uuid.UUID, slotID uint, sectionID uuid.UUID, date, postedAt time.Time, markedBy uuid.UUID) []attModel.AttendanceModel {
	rows := make([]attModel.AttendanceModel, 0, len(sh.order))
	for _, id := range sh.order {
		m := sh.marks[id]
		var fb *string
		if m.feedback != nil {
			v := *m.feedback
			fb = &v
		}
		rows = append(rows, attModel.AttendanceModel{
			ID:         uuid.New(),
			SessionID:  sessionID,
			StudentID:  id,
			TimeSlotID: slotID,
			SectionID:  sectionID,
			Date:       date,
			Status:     m.status,
			Feedback:   fb,
			PostedAt:   postedAt,
			MarkedBy:   markedBy,
		})
	}
	return rows
}

// ReconcileStrict applies absent then late lists and aborts on the first error.
func ReconcileStrict(roster []studentModel.StudentModel, absent []uuid.UUID, late []LateStudent) (*Sheet, error) {
	sh := NewSheet(roster)
	for _, id := range absent {
		if err := sh.MarkAbsent(id); err != nil {
			return nil, err
		}
	}
	for _, l := range late {
		if err := sh.MarkLate(l.StudentID, l.Feedback); err != nil {
			return nil, err
		}
	}
	return sh, nil
}
