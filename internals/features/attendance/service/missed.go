package service

import (
	"context"
	"sort"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

// MissedSession is synthesized on read and never persisted.
type MissedSession struct {
	TimeSlotID       uint                      `json:"time_slot_id"`
	SectionID        uuid.UUID                 `json:"section_id"`
	RoomID           *uuid.UUID                `json:"room_id,omitempty"`
	StartTime        string                    `json:"start_time"`
	EndTime          string                    `json:"end_time"`
	Date             string                    `json:"date"`
	SubmissionStatus attModel.SubmissionStatus `json:"submission_status"`
}

// MissedSessions lists the faculty's non-break slots on date (default today)
// that have ended and have no session. Future dates yield nothing.
func (s *Service) MissedSessions(ctx context.Context, facultyID uuid.UUID, date *time.Time) ([]MissedSession, error) {
	today := s.Today()
	target := today
	if date != nil && !date.IsZero() {
		target = dbtime.DayIn(date.In(s.loc), s.loc)
	}
	out := []MissedSession{}
	if target.After(today) {
		return out, nil
	}

	slots, err := s.store.ListFacultyTimeSlots(ctx, facultyID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	isToday := target.Equal(today)
	for _, sl := range slots {
		if sl.IsBreak {
			continue
		}
		if isToday {
			end, err := dbtime.ParseClock(sl.EndTime)
			if err != nil {
				s.logError("MissedSessions", "parse slot end time", sl.ID, err)
				continue
			}
			if !now.After(end.On(target)) {
				continue
			}
		}
		done, err := s.IsAlreadySubmitted(ctx, &facultyID, sl.ID, target)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}
		out = append(out, MissedSession{
			TimeSlotID:       sl.ID,
			SectionID:        sl.SectionID,
			RoomID:           sl.RoomID,
			StartTime:        sl.StartTime,
			EndTime:          sl.EndTime,
			Date:             target.Format(dbtime.DateLayout),
			SubmissionStatus: attModel.SubmissionMissed,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return clockMinutes(out[i].StartTime) < clockMinutes(out[j].StartTime)
	})
	return out, nil
}

// clockMinutes sorts unparseable times last.
func clockMinutes(s string) int {
	t, err := dbtime.ParseClock(s)
	if err != nil {
		return 24 * 60
	}
	return t.Minutes()
}

func sortSlotsByStart(slots []schedModel.TimeSlotModel) {
	sort.SliceStable(slots, func(i, j int) bool {
		return clockMinutes(slots[i].StartTime) < clockMinutes(slots[j].StartTime)
	})
}
