package service

import (
	"context"
	"sort"
	"time"

	schedModel "campusku_backend/internals/features/campus/schedules/model"
	"campusku_backend/internals/helpers/apperror"
	"campusku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
)

const (
	SlotPosted  = "POSTED"
	SlotPending = "PENDING"
)

type BatchableSlot struct {
	TimeSlotID       uint       `json:"time_slot_id"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	RoomID           *uuid.UUID `json:"room_id,omitempty"`
	AttendanceStatus string     `json:"attendance_status"`
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
}

type BatchGroup struct {
	SectionID   uuid.UUID       `json:"section_id"`
	SectionName string          `json:"section_name"`
	Slots       []BatchableSlot `json:"slots"`
	// contiguous runs of slot ids, in start order
	Blocks [][]uint `json:"blocks"`
}

// BatchableSlots groups the faculty's non-break slots by section for date.
// Contiguity is only advisory here.
func (s *Service) BatchableSlots(ctx context.Context, facultyID uuid.UUID, date *time.Time) ([]BatchGroup, error) {
	target := s.Today()
	if date != nil && !date.IsZero() {
		target = dbtime.DayIn(date.In(s.loc), s.loc)
	}

	slots, err := s.store.ListFacultyTimeSlots(ctx, facultyID)
	if err != nil {
		return nil, err
	}

	bySection := map[uuid.UUID][]schedModel.TimeSlotModel{}
	ids := make([]uint, 0, len(slots))
	for _, sl := range slots {
		if sl.IsBreak {
			continue
		}
		bySection[sl.SectionID] = append(bySection[sl.SectionID], sl)
		ids = append(ids, sl.ID)
	}

	posted := map[uint]uuid.UUID{}
	if len(ids) > 0 {
		sessions, err := s.store.ListSessionsForSlots(ctx, ids, target)
		if err != nil {
			return nil, err
		}
		for _, sess := range sessions {
			posted[sess.TimeSlotID] = sess.ID
		}
	}

	groups := make([]BatchGroup, 0, len(bySection))
	for sectionID, group := range bySection {
		sortSlotsByStart(group)

		g := BatchGroup{SectionID: sectionID, Slots: make([]BatchableSlot, 0, len(group))}
		sec, err := s.store.GetSection(ctx, sectionID)
		switch {
		case err == nil:
			g.SectionName = sec.Name
		case apperror.Is(err, apperror.KindNotFound):
			s.logError("BatchableSlots", "section lookup", sectionID, err)
		default:
			return nil, err
		}
		for _, sl := range group {
			bs := BatchableSlot{
				TimeSlotID:       sl.ID,
				StartTime:        sl.StartTime,
				EndTime:          sl.EndTime,
				RoomID:           sl.RoomID,
				AttendanceStatus: SlotPending,
			}
			if sid, ok := posted[sl.ID]; ok {
				bs.AttendanceStatus = SlotPosted
				bs.SessionID = uuidPtr(sid)
			}
			g.Slots = append(g.Slots, bs)
		}
		g.Blocks = ContiguousBlocks(group)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].SectionName != groups[j].SectionName {
			return groups[i].SectionName < groups[j].SectionName
		}
		return groups[i].SectionID.String() < groups[j].SectionID.String()
	})
	return groups, nil
}

// ContiguousBlocks splits start-sorted slots into runs where each end equals the next start.
func ContiguousBlocks(sorted []schedModel.TimeSlotModel) [][]uint {
	blocks := [][]uint{}
	var cur []uint
	prevEnd := -1
	for _, sl := range sorted {
		start, errS := dbtime.ParseClock(sl.StartTime)
		end, errE := dbtime.ParseClock(sl.EndTime)
		if errS != nil || errE != nil {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
			}
			blocks = append(blocks, []uint{sl.ID})
			cur, prevEnd = nil, -1
			continue
		}
		if len(cur) > 0 && start.Minutes() == prevEnd {
			cur = append(cur, sl.ID)
		} else {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
			}
			cur = []uint{sl.ID}
		}
		prevEnd = end.Minutes()
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}
