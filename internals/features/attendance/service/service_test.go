package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/features/attendance/repository/memstore"
	"campusku_backend/internals/features/attendance/service"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/helpers/apperror"
	helperAuth "campusku_backend/internals/helpers/auth"
	"campusku_backend/internals/helpers/locker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *recorder) Notify(_ context.Context, ev service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	svc      *service.Service
	events   *recorder
	now      time.Time
	faculty  helperAuth.Caller
	other    helperAuth.Caller
	admin    helperAuth.Caller
	section  sectionModel.SectionModel
	section2 sectionModel.SectionModel
	schedule schedModel.SectionScheduleModel
	students []studentModel.StudentModel

	early   schedModel.TimeSlotModel // 08:00-09:00
	first   schedModel.TimeSlotModel // 09:00-10:00
	second  schedModel.TimeSlotModel // 10:00-11:00
	gapped  schedModel.TimeSlotModel // 11:15-12:15
	brk     schedModel.TimeSlotModel // 07:00-07:30 break
	foreign schedModel.TimeSlotModel // other section, 13:00-14:00
}

// newFixture seeds one section of five students; the clock is 2024-03-11 09:05 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memstore.New(),
		events:  &recorder{},
		now:     time.Date(2024, 3, 11, 9, 5, 0, 0, time.UTC),
		faculty: helperAuth.Caller{ID: uuid.New(), Role: "FACULTY"},
		other:   helperAuth.Caller{ID: uuid.New(), Role: "FACULTY"},
		admin:   helperAuth.Caller{ID: uuid.New(), Role: "ADMIN"},
	}
	f.section = f.store.AddSection(sectionModel.SectionModel{Name: "CSE-A"})
	f.section2 = f.store.AddSection(sectionModel.SectionModel{Name: "CSE-B"})
	f.schedule = f.store.AddSchedule(schedModel.SectionScheduleModel{SectionID: f.section.ID, Title: "Week 1"})
	schedule2 := f.store.AddSchedule(schedModel.SectionScheduleModel{SectionID: f.section2.ID, Title: "Week 1 B"})

	for i := 0; i < 5; i++ {
		f.students = append(f.students, f.store.AddStudent(studentModel.StudentModel{
			RegNum:    fmt.Sprintf("REG%03d", i),
			Name:      fmt.Sprintf("Student %d", i),
			SectionID: f.section.ID,
		}))
	}

	mk := func(start, end string, sec uuid.UUID, sch uuid.UUID, isBreak bool) schedModel.TimeSlotModel {
		fid := f.faculty.ID
		return f.store.AddTimeSlot(schedModel.TimeSlotModel{
			StartTime: start, EndTime: end, SectionID: sec, ScheduleID: sch,
			InchargeFacultyID: &fid, IsBreak: isBreak,
		})
	}
	f.early = mk("8", "9", f.section.ID, f.schedule.ID, false)
	f.first = mk("09:00", "10:00", f.section.ID, f.schedule.ID, false)
	f.second = mk("10:00", "11:00", f.section.ID, f.schedule.ID, false)
	f.gapped = mk("11:15", "12:15", f.section.ID, f.schedule.ID, false)
	f.brk = mk("07:00", "07:30", f.section.ID, f.schedule.ID, true)
	f.foreign = mk("13:00", "14:00", f.section2.ID, schedule2.ID, false)

	f.svc = service.New(f.store,
		service.WithClock(func() time.Time { return f.now }),
		service.WithLocation(time.UTC),
		service.WithNotifier(f.events),
	)
	return f
}

func (f *fixture) today() time.Time { return time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC) }

func (f *fixture) submit(t *testing.T, caller helperAuth.Caller, slotID uint, absent ...uuid.UUID) *service.SubmitResult {
	t.Helper()
	res, err := f.svc.SubmitAttendance(context.Background(), caller, service.SubmitInput{
		TimeSlotID:       slotID,
		DateTime:         f.now,
		AbsentStudentIDs: absent,
	})
	require.NoError(t, err)
	return res
}

func TestSubmitEmptyListsMarksEveryonePresent(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, f.faculty, f.first.ID)

	require.Len(t, res.Records, len(f.students))
	for _, r := range res.Records {
		assert.Equal(t, attModel.StatusPresent, r.Status)
	}
	assert.Equal(t, 5, res.Session.TotalStudents)
	assert.Equal(t, 5, res.Session.PresentCount)
	assert.Equal(t, 0, res.Session.AbsentCount)
	assert.Equal(t, 100.0, res.Session.AttendancePercentage)
	assert.Equal(t, attModel.SubmissionOnTime, res.Session.SubmissionStatus)
	assert.Equal(t, f.faculty.ID, res.Session.FacultyID)
	assert.Equal(t, []string{service.EventSubmitted}, f.events.types())
}

func TestSubmitCountsAlwaysAddUp(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SubmitAttendance(context.Background(), f.faculty, service.SubmitInput{
		TimeSlotID:       f.first.ID,
		DateTime:         f.now,
		AbsentStudentIDs: []uuid.UUID{f.students[0].ID, f.students[1].ID},
		LateStudents:     []service.LateStudent{{StudentID: f.students[2].ID, Feedback: "traffic"}},
	})
	require.NoError(t, err)

	s := res.Session
	assert.Equal(t, s.TotalStudents, s.PresentCount+s.AbsentCount)
	assert.Equal(t, 3, s.PresentCount)
	assert.Equal(t, 2, s.AbsentCount)
	assert.Equal(t, 1, s.LateCount)
	assert.Equal(t, 60.0, s.AttendancePercentage)

	byStudent := map[uuid.UUID]attModel.AttendanceModel{}
	for _, r := range res.Records {
		byStudent[r.StudentID] = r
	}
	require.NotNil(t, byStudent[f.students[2].ID].Feedback)
	assert.Equal(t, "traffic", *byStudent[f.students[2].ID].Feedback)
}

func TestFacultyResubmissionIsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.submit(t, f.faculty, f.first.ID)

	_, err := f.svc.SubmitAttendance(context.Background(), f.faculty, service.SubmitInput{TimeSlotID: f.first.ID, DateTime: f.now})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
	assert.Equal(t, apperror.DuplicateSubmissionMessage, apperror.PublicMessage(err))
	assert.Equal(t, 1, f.store.CountSessions())
}

func TestAdminResubmissionReplacesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submit(t, f.faculty, f.first.ID)

	second := f.submit(t, f.admin, f.first.ID, f.students[4].ID)

	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	require.NotNil(t, second.Replaced)
	assert.Equal(t, first.Session.ID, *second.Replaced)
	assert.True(t, second.Session.IsOverride)
	assert.Equal(t, first.Session.ID.String(), second.Session.OverrideSnapshot["session_id"])
	assert.Equal(t, 1, second.Session.AbsentCount)

	old, err := f.store.ListSessionAttendance(ctx, first.Session.ID)
	require.NoError(t, err)
	assert.Empty(t, old)

	rows, err := f.store.ListSessionAttendance(ctx, second.Session.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, 1, f.store.CountSessions())
	assert.Equal(t, 5, f.store.CountAttendance())
	assert.Contains(t, f.events.types(), service.EventOverridden)
}

func TestAdminResubmissionOfArchivedSessionDropsArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.students[0]
	feb := time.Date(2024, 2, 5, 9, 5, 0, 0, time.UTC)

	_, err := f.svc.SubmitAttendance(ctx, f.faculty, service.SubmitInput{
		TimeSlotID: f.first.ID, DateTime: feb, AbsentStudentIDs: []uuid.UUID{st.ID},
	})
	require.NoError(t, err)
	_, err = f.svc.ArchiveMonth(ctx, f.admin, 2024, 2)
	require.NoError(t, err)
	require.Equal(t, 5, f.store.CountArchives())

	res, err := f.svc.SubmitAttendance(ctx, f.admin, service.SubmitInput{TimeSlotID: f.first.ID, DateTime: feb})
	require.NoError(t, err)
	require.NotNil(t, res.Replaced)
	assert.Equal(t, 0, f.store.CountArchives())
	assert.Equal(t, 5, f.store.CountAttendance())

	counts, err := f.store.StudentAttendanceCounts(ctx, []uuid.UUID{st.ID})
	require.NoError(t, err)
	assert.Equal(t, service.AttendanceCount{Total: 1, Absences: 0}, counts[st.ID])
}

func TestOverrideAttendance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, f.faculty, f.first.ID)

	in := service.OverrideInput{
		SubmitInput:    service.SubmitInput{TimeSlotID: f.first.ID, DateTime: f.now, AbsentStudentIDs: []uuid.UUID{f.students[0].ID}},
		OverrideReason: "faculty marked the wrong slot",
	}

	_, err := f.svc.OverrideAttendance(ctx, f.faculty, in)
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	_, err = f.svc.OverrideAttendance(ctx, f.admin, service.OverrideInput{SubmitInput: in.SubmitInput})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	res, err := f.svc.OverrideAttendance(ctx, f.admin, in)
	require.NoError(t, err)
	assert.True(t, res.Session.IsOverride)
	require.NotNil(t, res.Session.OverrideReason)
	assert.Equal(t, "faculty marked the wrong slot", *res.Session.OverrideReason)
	require.NotNil(t, res.Session.OverriddenBy)
	assert.Equal(t, f.admin.ID, *res.Session.OverriddenBy)
	assert.Equal(t, f.faculty.ID, res.Session.FacultyID)
	assert.Equal(t, f.admin.ID, res.Session.SubmittedBy)
}

func TestSubmitRejectsNonInchargeFaculty(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitAttendance(context.Background(), f.other, service.SubmitInput{TimeSlotID: f.first.ID, DateTime: f.now})
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))
	assert.Equal(t, 0, f.store.CountSessions())
}

func TestSubmitPlacementChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherSchedule := f.store.AddSchedule(schedModel.SectionScheduleModel{SectionID: f.section.ID, Title: "Week 2"})
	missing := uuid.New()

	cases := []struct {
		name string
		in   service.SubmitInput
		kind apperror.Kind
	}{
		{"unknown slot", service.SubmitInput{TimeSlotID: 999}, apperror.KindNotFound},
		{"wrong section", service.SubmitInput{TimeSlotID: f.first.ID, SectionID: &f.section2.ID}, apperror.KindInvalidState},
		{"unknown section", service.SubmitInput{TimeSlotID: f.first.ID, SectionID: &missing}, apperror.KindNotFound},
		{"not in schedule", service.SubmitInput{TimeSlotID: f.first.ID, ScheduleID: &otherSchedule.ID}, apperror.KindInvalidState},
		{"unknown schedule", service.SubmitInput{TimeSlotID: f.first.ID, ScheduleID: &missing}, apperror.KindNotFound},
		{"break slot", service.SubmitInput{TimeSlotID: f.brk.ID}, apperror.KindValidation},
		{"future date", service.SubmitInput{TimeSlotID: f.first.ID, DateTime: f.now.AddDate(0, 0, 1)}, apperror.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SubmitAttendance(ctx, f.admin, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperror.KindOf(err), err.Error())
		})
	}
	assert.Equal(t, 0, f.store.CountSessions())
}

func TestSingleSubmitAbortsOnFirstRecordError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAttendance(ctx, f.faculty, service.SubmitInput{
		TimeSlotID:   f.first.ID,
		DateTime:     f.now,
		LateStudents: []service.LateStudent{{StudentID: f.students[0].ID}},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.svc.SubmitAttendance(ctx, f.faculty, service.SubmitInput{
		TimeSlotID:       f.first.ID,
		DateTime:         f.now,
		AbsentStudentIDs: []uuid.UUID{uuid.New()},
	})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, 0, f.store.CountSessions())
	assert.Equal(t, 0, f.store.CountAttendance())
}

func TestSubmitClassifiesLateAfterSlotEnd(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, f.faculty, f.early.ID)
	assert.Equal(t, attModel.SubmissionLate, res.Session.SubmissionStatus)
}

func TestSubmitForPastDateUsesWallClock(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SubmitAttendance(context.Background(), f.faculty, service.SubmitInput{
		TimeSlotID: f.first.ID,
		DateTime:   f.now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	assert.Equal(t, attModel.SubmissionOnTime, res.Session.SubmissionStatus)
	assert.Equal(t, "2024-03-10", res.Session.Date.Format("2006-01-02"))
}

func TestSubmitWhileLockedIsRejected(t *testing.T) {
	f := newFixture(t)
	l := locker.NewLocalLocker()
	svc := service.New(f.store, service.WithClock(func() time.Time { return f.now }), service.WithLocker(l))

	release, err := l.Obtain(context.Background(), fmt.Sprintf("attendance:%d:2024-03-11", f.first.ID), time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = svc.SubmitAttendance(context.Background(), f.faculty, service.SubmitInput{TimeSlotID: f.first.ID, DateTime: f.now})
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
}

func TestRollingPercentageOverHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.students[0]

	for i := 0; i < 9; i++ {
		status := attModel.StatusPresent
		if i < 3 {
			status = attModel.StatusAbsent
		}
		f.store.AddAttendance(attModel.AttendanceModel{
			StudentID:  target.ID,
			TimeSlotID: f.first.ID,
			SectionID:  f.section.ID,
			Date:       f.today().AddDate(0, 0, -(i + 1)),
			Status:     status,
		})
	}

	f.submit(t, f.faculty, f.first.ID)

	st, err := f.store.GetStudent(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, st.AttendancePercentage)

	others, err := f.store.GetStudent(ctx, f.students[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, others.AttendancePercentage)
}

func TestBulkMarkPartialFailure(t *testing.T) {
	f := newFixture(t)
	ghost := uuid.New()
	res, err := f.svc.BulkMarkAttendance(context.Background(), f.faculty, service.BulkMarkInput{
		TimeSlotID: f.first.ID,
		Date:       f.today(),
		Records: []service.BulkRecord{
			{StudentID: f.students[0].ID, Status: attModel.StatusAbsent},
			{StudentID: f.students[1].ID, Status: attModel.StatusLate},
			{StudentID: f.students[2].ID, Status: attModel.StatusLate, Feedback: "doctor"},
			{StudentID: ghost, Status: attModel.StatusAbsent},
			{StudentID: f.students[3].ID, Status: "SICK"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 3, res.Failure)
	assert.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], f.students[1].ID.String())

	require.NotNil(t, res.Session)
	assert.Equal(t, 5, res.Session.TotalStudents)
	assert.Equal(t, 1, res.Session.AbsentCount)
	assert.Equal(t, 1, res.Session.LateCount)
}

func TestValidateBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ValidateBatch(ctx, f.faculty, nil, []uint{f.second.ID, f.first.ID})
	assert.NoError(t, err)

	cases := []struct {
		name  string
		ids   []uint
		kind  apperror.Kind
		about string
	}{
		{"gap", []uint{f.second.ID, f.gapped.ID}, apperror.KindValidation, "not consecutive"},
		{"cross section", []uint{f.second.ID, f.foreign.ID}, apperror.KindValidation, "not the same section"},
		{"missing", []uint{f.first.ID, 999}, apperror.KindNotFound, "999"},
		{"empty", nil, apperror.KindValidation, "at least one"},
		{"repeated", []uint{f.first.ID, f.first.ID}, apperror.KindValidation, "more than once"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.ValidateBatch(ctx, f.faculty, nil, tc.ids)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperror.KindOf(err))
			assert.Contains(t, err.Error(), tc.about)
		})
	}

	_, err = f.svc.ValidateBatch(ctx, f.other, nil, []uint{f.first.ID, f.second.ID})
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	f.submit(t, f.faculty, f.second.ID)
	_, err = f.svc.ValidateBatch(ctx, f.faculty, nil, []uint{f.first.ID, f.second.ID})
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
}

func TestSubmitBatchLateWithoutFeedbackIsAFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	noFeedback := f.students[0].ID

	res, err := f.svc.SubmitBatch(ctx, f.faculty, service.BatchInput{
		SectionID:   f.section.ID,
		Date:        f.today(),
		TimeSlotIDs: []uint{f.first.ID, f.second.ID},
		Records: []service.BatchRecord{
			{StudentID: noFeedback, Present: true, Late: true},
			{StudentID: f.students[1].ID, Present: false},
			{StudentID: f.students[2].ID, Present: true},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.FailureCount)
	assert.Equal(t, 2, res.SuccessCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], noFeedback.String())

	require.Len(t, res.Results, 2)
	for _, r := range res.Results {
		assert.Equal(t, service.SlotResultSuccess, r.Status)
		require.NotNil(t, r.SessionID)
		rows, err := f.store.ListSessionAttendance(ctx, *r.SessionID)
		require.NoError(t, err)
		assert.Len(t, rows, 5)
		for _, row := range rows {
			switch row.StudentID {
			case noFeedback:
				assert.Equal(t, attModel.StatusPresent, row.Status)
			case f.students[1].ID:
				assert.Equal(t, attModel.StatusAbsent, row.Status)
			}
		}
	}
	assert.Contains(t, f.events.types(), service.EventBatchSubmitted)
}

func TestSubmitBatchPerSlotFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailCreate = func(slotID uint) error {
		if slotID == f.second.ID {
			return errors.New("disk full")
		}
		return nil
	}

	res, err := f.svc.SubmitBatch(context.Background(), f.faculty, service.BatchInput{
		SectionID:   f.section.ID,
		TimeSlotIDs: []uint{f.first.ID, f.second.ID},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Attendance submitted for 1 of 2 time slots", res.Message)
	require.Len(t, res.Results, 2)
	assert.Equal(t, service.SlotResultSuccess, res.Results[0].Status)
	assert.Equal(t, service.SlotResultFailed, res.Results[1].Status)
	assert.Equal(t, "Internal server error", res.Results[1].Error)
	assert.Equal(t, 1, f.store.CountSessions())
	assert.Equal(t, 5, f.store.CountAttendance())
}

func TestSubmitBatchRejectsInvalidCandidate(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SubmitBatch(context.Background(), f.faculty, service.BatchInput{
		SectionID:   f.section.ID,
		TimeSlotIDs: []uint{f.first.ID, f.gapped.ID},
	})
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not consecutive")
	assert.Equal(t, 0, f.store.CountSessions())
}

func TestAdminBatchKeepsExistingSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := f.now.AddDate(0, 0, -1)
	prior, err := f.svc.SubmitAttendance(ctx, f.faculty, service.SubmitInput{TimeSlotID: f.first.ID, DateTime: yesterday})
	require.NoError(t, err)

	res, err := f.svc.SubmitBatch(ctx, f.admin, service.BatchInput{
		SectionID:   f.section.ID,
		Date:        yesterday,
		TimeSlotIDs: []uint{f.first.ID, f.second.ID},
		Records:     []service.BatchRecord{{StudentID: f.students[0].ID, Present: false}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Results, 2)
	assert.Equal(t, service.SlotResultFailed, res.Results[0].Status)
	assert.Equal(t, apperror.DuplicateSubmissionMessage, res.Results[0].Error)
	assert.Equal(t, service.SlotResultSuccess, res.Results[1].Status)

	kept, err := f.store.GetSession(ctx, prior.Session.ID)
	require.NoError(t, err)
	assert.False(t, kept.IsOverride)
	assert.Equal(t, 0, kept.AbsentCount)
	assert.Equal(t, 2, f.store.CountSessions())
}

func TestMissedSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missed, err := f.svc.MissedSessions(ctx, f.faculty.ID, nil)
	require.NoError(t, err)
	require.Len(t, missed, 1)
	assert.Equal(t, f.early.ID, missed[0].TimeSlotID)
	assert.Equal(t, attModel.SubmissionMissed, missed[0].SubmissionStatus)
	assert.Equal(t, "2024-03-11", missed[0].Date)

	f.submit(t, f.faculty, f.early.ID)

	missed, err = f.svc.MissedSessions(ctx, f.faculty.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, missed)
}

func TestMissedSessionsOtherDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tomorrow := f.today().AddDate(0, 0, 1)
	missed, err := f.svc.MissedSessions(ctx, f.faculty.ID, &tomorrow)
	require.NoError(t, err)
	assert.Empty(t, missed)

	yesterday := f.today().AddDate(0, 0, -1)
	missed, err = f.svc.MissedSessions(ctx, f.faculty.ID, &yesterday)
	require.NoError(t, err)
	// every non-break slot of a past day counts
	assert.Len(t, missed, 5)
	assert.Equal(t, f.early.ID, missed[0].TimeSlotID)

	other, err := f.svc.MissedSessions(ctx, f.other.ID, &yesterday)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBatchableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, f.faculty, f.first.ID)

	groups, err := f.svc.BatchableSlots(ctx, f.faculty.ID, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	a := groups[0]
	assert.Equal(t, "CSE-A", a.SectionName)
	require.Len(t, a.Slots, 4)
	assert.Equal(t, []uint{f.early.ID, f.first.ID, f.second.ID, f.gapped.ID},
		[]uint{a.Slots[0].TimeSlotID, a.Slots[1].TimeSlotID, a.Slots[2].TimeSlotID, a.Slots[3].TimeSlotID})
	assert.Equal(t, service.SlotPending, a.Slots[0].AttendanceStatus)
	assert.Equal(t, service.SlotPosted, a.Slots[1].AttendanceStatus)
	assert.Equal(t, [][]uint{{f.early.ID, f.first.ID, f.second.ID}, {f.gapped.ID}}, a.Blocks)

	assert.Equal(t, "CSE-B", groups[1].SectionName)
}

func TestBatchableSlotsWithoutSectionRecord(t *testing.T) {
	f := newFixture(t)
	fid := f.faculty.ID
	orphan := f.store.AddTimeSlot(schedModel.TimeSlotModel{
		StartTime: "15:00", EndTime: "16:00", SectionID: uuid.New(), InchargeFacultyID: &fid,
	})

	groups, err := f.svc.BatchableSlots(context.Background(), f.faculty.ID, nil)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "", groups[0].SectionName)
	require.Len(t, groups[0].Slots, 1)
	assert.Equal(t, orphan.ID, groups[0].Slots[0].TimeSlotID)
}

func TestUpdateLateReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	onTime := f.submit(t, f.faculty, f.first.ID)
	late := f.submit(t, f.faculty, f.early.ID)

	_, err := f.svc.UpdateLateReason(ctx, f.faculty, onTime.Session.ID, "network")
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))

	_, err = f.svc.UpdateLateReason(ctx, f.other, late.Session.ID, "network")
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	_, err = f.svc.UpdateLateReason(ctx, f.faculty, late.Session.ID, " ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	sess, err := f.svc.UpdateLateReason(ctx, f.faculty, late.Session.ID, "network outage")
	require.NoError(t, err)
	assert.Equal(t, "network outage", *sess.LateSubmissionReason)

	stored, err := f.store.GetSession(ctx, late.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "network outage", *stored.LateSubmissionReason)
}

func TestArchiveMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.students[0]
	for d := 1; d <= 4; d++ {
		status := attModel.StatusPresent
		if d == 1 {
			status = attModel.StatusAbsent
		}
		f.store.AddAttendance(attModel.AttendanceModel{
			StudentID: st.ID, TimeSlotID: f.first.ID, SectionID: f.section.ID,
			Date: time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC), Status: status,
		})
	}
	f.submit(t, f.faculty, f.first.ID)
	require.Equal(t, 9, f.store.CountAttendance())

	_, err := f.svc.ArchiveMonth(ctx, f.faculty, 2024, 2)
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))
	_, err = f.svc.ArchiveMonth(ctx, f.admin, 2024, 3)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	_, err = f.svc.ArchiveMonth(ctx, f.admin, 2024, 13)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	res, err := f.svc.ArchiveMonth(ctx, f.admin, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Archived)
	assert.Equal(t, 5, f.store.CountAttendance())
	assert.Equal(t, 4, f.store.CountArchives())

	counts, err := f.store.StudentAttendanceCounts(ctx, []uuid.UUID{st.ID})
	require.NoError(t, err)
	assert.Equal(t, service.AttendanceCount{Total: 5, Absences: 1}, counts[st.ID])
}

func TestSectionReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, f.faculty, f.early.ID, f.students[0].ID)
	f.submit(t, f.faculty, f.first.ID)

	rep, err := f.svc.SectionReport(ctx, f.section.ID, service.DateRange{From: f.today(), To: f.today()})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 5)
	assert.Equal(t, "REG000", rep.Rows[0].RegNum)
	assert.Equal(t, 2, rep.Rows[0].TotalClasses)
	assert.Equal(t, 1, rep.Rows[0].Absences)
	assert.Equal(t, 50.0, rep.Rows[0].Percentage)
	assert.Equal(t, 100.0, rep.Rows[1].Percentage)

	_, err = f.svc.SectionReport(ctx, f.section.ID, service.DateRange{From: f.today(), To: f.today().AddDate(0, 0, -1)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestStudentAndSlotQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, f.faculty, f.first.ID, f.students[0].ID)

	rep, err := f.svc.StudentAttendance(ctx, f.students[0].ID, service.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.Absent)

	today := f.today()
	slotView, err := f.svc.TimeSlotAttendance(ctx, f.first.ID, &today)
	require.NoError(t, err)
	require.NotNil(t, slotView.Session)
	assert.Len(t, slotView.Records, 5)

	sessions, err := f.svc.FacultySessions(ctx, f.faculty.ID, service.DateRange{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	_, err = f.svc.StudentAttendance(ctx, uuid.New(), service.DateRange{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
