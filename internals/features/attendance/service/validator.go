package service

import (
	"context"
	"sort"
	"time"

	schedModel "campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

// CanSubmit allows admins always and faculty only on slots they are incharge of.
func CanSubmit(caller helperAuth.Caller, slot *schedModel.TimeSlotModel) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.IsFaculty() && slot.InchargeFacultyID != nil && *slot.InchargeFacultyID == caller.ID {
		return nil
	}
	return apperror.Authorization("you are not the incharge faculty of time slot %d", slot.ID)
}

// IsAlreadySubmitted keys by (faculty, slot, date) when facultyID is set, else by (slot, date).
func (s *Service) IsAlreadySubmitted(ctx context.Context, facultyID *uuid.UUID, slotID uint, date time.Time) (bool, error) {
	return isAlreadySubmitted(ctx, s.store, facultyID, slotID, date)
}

func isAlreadySubmitted(ctx context.Context, st Store, facultyID *uuid.UUID, slotID uint, date time.Time) (bool, error) {
	if facultyID != nil {
		sess, err := st.FindFacultySession(ctx, *facultyID, slotID, date)
		return sess != nil, err
	}
	sess, err := st.FindSession(ctx, slotID, date)
	return sess != nil, err
}

// verifyPlacement checks that the slot belongs to the section and, when given, the schedule.
func (s *Service) verifyPlacement(ctx context.Context, slot *schedModel.TimeSlotModel, sectionID, scheduleID *uuid.UUID) error {
	secID := slot.SectionID
	if sectionID != nil {
		secID = *sectionID
	}
	section, err := s.store.GetSection(ctx, secID)
	if err != nil {
		return err
	}
	if slot.SectionID != section.ID {
		return apperror.InvalidState("time slot %d does not belong to section %s", slot.ID, section.Name)
	}

	schID := slot.ScheduleID
	if scheduleID != nil {
		schID = *scheduleID
	}
	schedule, err := s.store.GetSchedule(ctx, schID)
	if err != nil {
		return err
	}
	ids, err := s.store.ScheduleSlotIDs(ctx, schedule.ID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == slot.ID {
			return nil
		}
	}
	return apperror.InvalidState("time slot %d is not part of schedule %s", slot.ID, schedule.Title)
}

// CheckContiguous sorts slots by start time and requires zero gaps.
// The input slice is sorted in place.
func CheckContiguous(slots []schedModel.TimeSlotModel) error {
	type span struct{ start, end dbtime.Tod }
	spans := make(map[uint]span, len(slots))
	for _, sl := range slots {
		st, err := dbtime.ParseClock(sl.StartTime)
		if err != nil {
			return apperror.Validation("time slot %d has an invalid start time %q", sl.ID, sl.StartTime)
		}
		en, err := dbtime.ParseClock(sl.EndTime)
		if err != nil {
			return apperror.Validation("time slot %d has an invalid end time %q", sl.ID, sl.EndTime)
		}
		spans[sl.ID] = span{st, en}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return spans[slots[i].ID].start.Before(spans[slots[j].ID].start)
	})
	for i := 0; i+1 < len(slots); i++ {
		if !spans[slots[i].ID].end.Equal(spans[slots[i+1].ID].start) {
			return apperror.Validation("Selected time slots are not consecutive")
		}
	}
	return nil
}

// ValidateBatch checks a candidate batch without writing anything.
func (s *Service) ValidateBatch(ctx context.Context, caller helperAuth.Caller, sectionID *uuid.UUID, slotIDs []uint) ([]schedModel.TimeSlotModel, error) {
	if len(slotIDs) == 0 {
		return nil, apperror.Validation("at least one time slot is required")
	}
	seen := make(map[uint]struct{}, len(slotIDs))
	for _, id := range slotIDs {
		if _, dup := seen[id]; dup {
			return nil, apperror.Validation("time slot %d is selected more than once", id)
		}
		seen[id] = struct{}{}
	}

	slots, err := s.store.GetTimeSlots(ctx, slotIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]struct{}, len(slots))
	for _, sl := range slots {
		found[sl.ID] = struct{}{}
	}
	for _, id := range slotIDs {
		if _, ok := found[id]; !ok {
			return nil, apperror.NotFound("time slot %d not found", id)
		}
	}

	section := slots[0].SectionID
	for _, sl := range slots[1:] {
		if sl.SectionID != section {
			return nil, apperror.Validation("Selected time slots are not the same section")
		}
	}
	if sectionID != nil && *sectionID != section {
		return nil, apperror.Validation("Selected time slots are not the same section")
	}

	for i := range slots {
		if slots[i].IsBreak {
			return nil, apperror.Validation("time slot %d is a break", slots[i].ID)
		}
		if err := CanSubmit(caller, &slots[i]); err != nil {
			return nil, err
		}
	}

	if err := CheckContiguous(slots); err != nil {
		return nil, err
	}

	// the batch path always checks today
	today := s.Today()
	for _, sl := range slots {
		done, err := s.IsAlreadySubmitted(ctx, nil, sl.ID, today)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, apperror.Duplicate("attendance already submitted today for time slot %d", sl.ID)
		}
	}
	return slots, nil
}
