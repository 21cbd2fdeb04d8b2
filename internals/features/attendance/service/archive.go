package service

import (
	"context"
	"fmt"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/dbtime"
)

type ArchiveResult struct {
	Year     int `json:"year"`
	Month    int `json:"month"`
	Archived int `json:"archived"`
}

// ArchiveMonth moves every attendance row of (year, month) into the archive
// and deletes the originals. Only months before the current one qualify.
func (s *Service) ArchiveMonth(ctx context.Context, caller helperAuth.Caller, year, month int) (*ArchiveResult, error) {
	if !caller.IsAdmin() {
		return nil, apperror.Authorization("only admins can archive attendance")
	}
	if month < 1 || month > 12 {
		return nil, apperror.Validation("month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, apperror.Validation("invalid year %d", year)
	}

	from, to := dbtime.MonthRange(year, time.Month(month), s.loc)
	today := s.Today()
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.loc)
	if to.After(currentMonth) {
		return nil, apperror.InvalidState("cannot archive the current or a future month")
	}

	res := &ArchiveResult{Year: year, Month: month}
	err := s.store.WithTx(ctx, func(tx Store) error {
		rows, err := tx.ListAttendanceBetween(ctx, from, to)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		at := s.Now()
		archives := make([]attModel.AttendanceArchiveModel, 0, len(rows))
		for _, r := range rows {
			archives = append(archives, r.ToArchive(at))
		}
		if err := tx.ArchiveAttendance(ctx, archives); err != nil {
			return err
		}
		res.Archived = len(archives)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Archived > 0 {
		s.notify(ctx, Event{
			Type:    EventArchived,
			ActorID: caller.ID,
			Message: fmt.Sprintf("Archived %d attendance records for %04d-%02d", res.Archived, year, month),
			Meta:    map[string]any{"year": year, "month": month, "archived": res.Archived},
		})
	}
	return res, nil
}
