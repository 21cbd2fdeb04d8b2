package service

import (
	"sort"

	"campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/helpers/apperror"
	"campusku_backend/internals/helpers/dbtime"
)

type span struct {
	id         uint
	start, end int
	label      string
}

// ValidateSlots checks that every slot has start < end and that no two slots of
// one schedule overlap. Slots touching at a boundary (09:00-10:00, 10:00-11:00) are fine.
func ValidateSlots(slots []model.TimeSlotModel) error {
	spans := make([]span, 0, len(slots))
	for _, s := range slots {
		start, err := dbtime.ParseClock(s.StartTime)
		if err != nil {
			return apperror.Validation("invalid start_time %q", s.StartTime)
		}
		end, err := dbtime.ParseClock(s.EndTime)
		if err != nil {
			return apperror.Validation("invalid end_time %q", s.EndTime)
		}
		if !start.Before(end) {
			return apperror.Validation("start_time %s must be before end_time %s", start.String(), end.String())
		}
		spans = append(spans, span{id: s.ID, start: start.Minutes(), end: end.Minutes(), label: start.String() + "-" + end.String()})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return apperror.Validation("time slot %s overlaps %s", spans[i].label, spans[i-1].label)
		}
	}
	return nil
}

// NormalizeClock rewrites "9" or "09:00:00" as "09:00".
func NormalizeClock(s string) (string, error) {
	t, err := dbtime.ParseClock(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
