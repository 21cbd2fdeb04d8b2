package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/features/attendance/service"
	"campusku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(slotID uint, day time.Time) *attModel.AttendanceSessionModel {
	return &attModel.AttendanceSessionModel{ID: uuid.New(), TimeSlotID: slotID, Date: day, FacultyID: uuid.New()}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx service.Store) error {
		require.NoError(t, tx.CreateSession(ctx, session(1, day), nil))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.CountSessions())

	err = s.WithTx(ctx, func(tx service.Store) error {
		return tx.CreateSession(ctx, session(1, day), nil)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.CountSessions())
}

func TestCreateSessionEnforcesSlotDateUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateSession(ctx, session(1, day), nil))
	// same calendar day at a different instant
	err := s.CreateSession(ctx, session(1, day.Add(5*time.Hour)), nil)
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))

	require.NoError(t, s.CreateSession(ctx, session(1, day.AddDate(0, 0, 1)), nil))
	require.NoError(t, s.CreateSession(ctx, session(2, day), nil))
	assert.Equal(t, 3, s.CountSessions())
}

func TestArchiveMovesRowsAndKeepsCounts(t *testing.T) {
	s := New()
	ctx := context.Background()
	stu := uuid.New()
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	row := s.AddAttendance(attModel.AttendanceModel{StudentID: stu, TimeSlotID: 1, Date: feb, Status: attModel.StatusAbsent})
	s.AddAttendance(attModel.AttendanceModel{StudentID: stu, TimeSlotID: 1, Date: feb.AddDate(0, 1, 0), Status: attModel.StatusPresent})

	rows, err := s.ListAttendanceBetween(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)

	require.NoError(t, s.ArchiveAttendance(ctx, []attModel.AttendanceArchiveModel{rows[0].ToArchive(time.Now())}))
	assert.Equal(t, 1, s.CountAttendance())
	assert.Equal(t, 1, s.CountArchives())

	counts, err := s.StudentAttendanceCounts(ctx, []uuid.UUID{stu})
	require.NoError(t, err)
	assert.Equal(t, service.AttendanceCount{Total: 2, Absences: 1}, counts[stu])
}

func TestDeleteSessionArchivesOnlyTouchesThatSession(t *testing.T) {
	s := New()
	ctx := context.Background()
	stu := uuid.New()
	sess, other := uuid.New(), uuid.New()
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	a := s.AddAttendance(attModel.AttendanceModel{SessionID: sess, StudentID: stu, TimeSlotID: 1, Date: feb, Status: attModel.StatusAbsent})
	b := s.AddAttendance(attModel.AttendanceModel{SessionID: other, StudentID: stu, TimeSlotID: 2, Date: feb, Status: attModel.StatusPresent})
	require.NoError(t, s.ArchiveAttendance(ctx, []attModel.AttendanceArchiveModel{a.ToArchive(time.Now()), b.ToArchive(time.Now())}))

	ids, err := s.DeleteSessionArchives(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stu}, ids)
	assert.Equal(t, 1, s.CountArchives())

	counts, err := s.StudentAttendanceCounts(ctx, []uuid.UUID{stu})
	require.NoError(t, err)
	assert.Equal(t, service.AttendanceCount{Total: 1, Absences: 0}, counts[stu])
}
