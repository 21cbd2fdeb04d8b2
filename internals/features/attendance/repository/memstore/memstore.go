// Package memstore is an in-memory service.Store. Transactions run on a copy
// of the state that replaces the original only when fn returns nil.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	attModel "campusku_backend/internals/features/attendance/model"
	"campusku_backend/internals/features/attendance/service"
	schedModel "campusku_backend/internals/features/campus/schedules/model"
	sectionModel "campusku_backend/internals/features/campus/sections/model"
	studentModel "campusku_backend/internals/features/campus/students/model"
	"campusku_backend/internals/helpers/apperror"

	"github.com/google/uuid"
)

type state struct {
	slots      map[uint]schedModel.TimeSlotModel
	schedules  map[uuid.UUID]schedModel.SectionScheduleModel
	sections   map[uuid.UUID]sectionModel.SectionModel
	students   map[uuid.UUID]studentModel.StudentModel
	sessions   map[uuid.UUID]attModel.AttendanceSessionModel
	attendance map[uuid.UUID]attModel.AttendanceModel
	archives   map[uuid.UUID]attModel.AttendanceArchiveModel
	nextSlotID uint
}

func newState() *state {
	return &state{
		slots:      map[uint]schedModel.TimeSlotModel{},
		schedules:  map[uuid.UUID]schedModel.SectionScheduleModel{},
		sections:   map[uuid.UUID]sectionModel.SectionModel{},
		students:   map[uuid.UUID]studentModel.StudentModel{},
		sessions:   map[uuid.UUID]attModel.AttendanceSessionModel{},
		attendance: map[uuid.UUID]attModel.AttendanceModel{},
		archives:   map[uuid.UUID]attModel.AttendanceArchiveModel{},
		nextSlotID: 1,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		slots:      cloneMap(s.slots),
		schedules:  cloneMap(s.schedules),
		sections:   cloneMap(s.sections),
		students:   cloneMap(s.students),
		sessions:   cloneMap(s.sessions),
		attendance: cloneMap(s.attendance),
		archives:   cloneMap(s.archives),
		nextSlotID: s.nextSlotID,
	}
}

type Store struct {
	mu   *sync.RWMutex
	root **state
	data *state
	inTx bool

	// FailCreate, when set, is consulted before a session insert.
	FailCreate func(slotID uint) error
}

var _ service.Store = (*Store)(nil)

func New() *Store {
	st := newState()
	s := &Store{mu: &sync.RWMutex{}, data: st}
	s.root = &s.data
	return s
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func inRange(d, from, to time.Time) bool {
	k := dayKey(d)
	return k >= dayKey(from) && k <= dayKey(to)
}

// view returns the live state under the right lock.
func (s *Store) view(write bool) (*state, func()) {
	if s.inTx {
		return s.data, func() {}
	}
	if write {
		s.mu.Lock()
		return *s.root, s.mu.Unlock
	}
	s.mu.RLock()
	return *s.root, s.mu.RUnlock
}

func (s *Store) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := (*s.root).clone()
	tx := &Store{mu: s.mu, root: s.root, data: work, inTx: true, FailCreate: s.FailCreate}
	if err := fn(tx); err != nil {
		return err
	}
	*s.root = work
	return nil
}

/* ===============================
   Seeding (tests and fixtures)
=================================*/

func (s *Store) AddSection(sec sectionModel.SectionModel) sectionModel.SectionModel {
	st, done := s.view(true)
	defer done()
	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
	}
	st.sections[sec.ID] = sec
	return sec
}

func (s *Store) AddStudent(stu studentModel.StudentModel) studentModel.StudentModel {
	st, done := s.view(true)
	defer done()
	if stu.ID == uuid.Nil {
		stu.ID = uuid.New()
	}
	st.students[stu.ID] = stu
	return stu
}

func (s *Store) AddSchedule(sch schedModel.SectionScheduleModel) schedModel.SectionScheduleModel {
	st, done := s.view(true)
	defer done()
	if sch.ID == uuid.Nil {
		sch.ID = uuid.New()
	}
	sch.TimeSlots = nil
	st.schedules[sch.ID] = sch
	return sch
}

func (s *Store) AddTimeSlot(sl schedModel.TimeSlotModel) schedModel.TimeSlotModel {
	st, done := s.view(true)
	defer done()
	if sl.ID == 0 {
		sl.ID = st.nextSlotID
	}
	if sl.ID >= st.nextSlotID {
		st.nextSlotID = sl.ID + 1
	}
	st.slots[sl.ID] = sl
	return sl
}

// AddAttendance inserts a historical row without a session check.
func (s *Store) AddAttendance(a attModel.AttendanceModel) attModel.AttendanceModel {
	st, done := s.view(true)
	defer done()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	st.attendance[a.ID] = a
	return a
}

func (s *Store) CountAttendance() int {
	st, done := s.view(false)
	defer done()
	return len(st.attendance)
}

func (s *Store) CountArchives() int {
	st, done := s.view(false)
	defer done()
	return len(st.archives)
}

func (s *Store) CountSessions() int {
	st, done := s.view(false)
	defer done()
	return len(st.sessions)
}

/* ===============================
   Roster
=================================*/

func (s *Store) GetTimeSlot(_ context.Context, id uint) (*schedModel.TimeSlotModel, error) {
	st, done := s.view(false)
	defer done()
	sl, ok := st.slots[id]
	if !ok {
		return nil, apperror.NotFound("time slot %d not found", id)
	}
	return &sl, nil
}

func (s *Store) GetTimeSlots(_ context.Context, ids []uint) ([]schedModel.TimeSlotModel, error) {
	st, done := s.view(false)
	defer done()
	out := make([]schedModel.TimeSlotModel, 0, len(ids))
	for _, id := range ids {
		if sl, ok := st.slots[id]; ok {
			out = append(out, sl)
		}
	}
	return out, nil
}

func (s *Store) ListFacultyTimeSlots(_ context.Context, facultyID uuid.UUID) ([]schedModel.TimeSlotModel, error) {
	st, done := s.view(false)
	defer done()
	out := []schedModel.TimeSlotModel{}
	for _, sl := range st.slots {
		if sl.InchargeFacultyID != nil && *sl.InchargeFacultyID == facultyID {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetSchedule(_ context.Context, id uuid.UUID) (*schedModel.SectionScheduleModel, error) {
	st, done := s.view(false)
	defer done()
	sch, ok := st.schedules[id]
	if !ok {
		return nil, apperror.NotFound("schedule %s not found", id)
	}
	return &sch, nil
}

func (s *Store) ScheduleSlotIDs(_ context.Context, scheduleID uuid.UUID) ([]uint, error) {
	st, done := s.view(false)
	defer done()
	out := []uint{}
	for _, sl := range st.slots {
		if sl.ScheduleID == scheduleID {
			out = append(out, sl.ID)
		}
	}
	return out, nil
}

func (s *Store) GetSection(_ context.Context, id uuid.UUID) (*sectionModel.SectionModel, error) {
	st, done := s.view(false)
	defer done()
	sec, ok := st.sections[id]
	if !ok {
		return nil, apperror.NotFound("section %s not found", id)
	}
	return &sec, nil
}

func (s *Store) GetStudent(_ context.Context, id uuid.UUID) (*studentModel.StudentModel, error) {
	st, done := s.view(false)
	defer done()
	stu, ok := st.students[id]
	if !ok {
		return nil, apperror.NotFound("student %s not found", id)
	}
	return &stu, nil
}

func (s *Store) ListSectionStudents(_ context.Context, sectionID uuid.UUID) ([]studentModel.StudentModel, error) {
	st, done := s.view(false)
	defer done()
	out := []studentModel.StudentModel{}
	for _, stu := range st.students {
		if stu.SectionID == sectionID {
			out = append(out, stu)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegNum < out[j].RegNum })
	return out, nil
}

/* ===============================
   Sessions
=================================*/

func (s *Store) FindSession(_ context.Context, slotID uint, date time.Time) (*attModel.AttendanceSessionModel, error) {
	st, done := s.view(false)
	defer done()
	for _, sess := range st.sessions {
		if sess.TimeSlotID == slotID && dayKey(sess.Date) == dayKey(date) {
			return &sess, nil
		}
	}
	return nil, nil
}

func (s *Store) FindFacultySession(_ context.Context, facultyID uuid.UUID, slotID uint, date time.Time) (*attModel.AttendanceSessionModel, error) {
	st, done := s.view(false)
	defer done()
	for _, sess := range st.sessions {
		if sess.FacultyID == facultyID && sess.TimeSlotID == slotID && dayKey(sess.Date) == dayKey(date) {
			return &sess, nil
		}
	}
	return nil, nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (*attModel.AttendanceSessionModel, error) {
	st, done := s.view(false)
	defer done()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, apperror.NotFound("attendance session %s not found", id)
	}
	return &sess, nil
}

func (s *Store) ListSessionsForSlots(_ context.Context, slotIDs []uint, date time.Time) ([]attModel.AttendanceSessionModel, error) {
	st, done := s.view(false)
	defer done()
	want := make(map[uint]struct{}, len(slotIDs))
	for _, id := range slotIDs {
		want[id] = struct{}{}
	}
	out := []attModel.AttendanceSessionModel{}
	for _, sess := range st.sessions {
		if _, ok := want[sess.TimeSlotID]; ok && dayKey(sess.Date) == dayKey(date) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *Store) ListFacultySessions(_ context.Context, facultyID uuid.UUID, from, to time.Time) ([]attModel.AttendanceSessionModel, error) {
	st, done := s.view(false)
	defer done()
	out := []attModel.AttendanceSessionModel{}
	for _, sess := range st.sessions {
		if sess.FacultyID == facultyID && inRange(sess.Date, from, to) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *Store) CreateSession(_ context.Context, sess *attModel.AttendanceSessionModel, rows []attModel.AttendanceModel) error {
	if s.FailCreate != nil {
		if err := s.FailCreate(sess.TimeSlotID); err != nil {
			return err
		}
	}
	st, done := s.view(true)
	defer done()

	for _, cur := range st.sessions {
		if cur.TimeSlotID == sess.TimeSlotID && dayKey(cur.Date) == dayKey(sess.Date) {
			return apperror.Duplicate("attendance session already exists")
		}
	}
	for _, r := range rows {
		for _, cur := range st.attendance {
			if cur.StudentID == r.StudentID && cur.TimeSlotID == r.TimeSlotID && dayKey(cur.Date) == dayKey(r.Date) {
				return apperror.Duplicate("attendance row already exists")
			}
		}
	}
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	st.sessions[sess.ID] = *sess
	for _, r := range rows {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.SessionID = sess.ID
		st.attendance[r.ID] = r
	}
	return nil
}

func (s *Store) DeleteSession(_ context.Context, id uuid.UUID) error {
	st, done := s.view(true)
	defer done()
	if _, ok := st.sessions[id]; !ok {
		return apperror.NotFound("attendance session %s not found", id)
	}
	for rid, r := range st.attendance {
		if r.SessionID == id {
			delete(st.attendance, rid)
		}
	}
	delete(st.sessions, id)
	return nil
}

func (s *Store) UpdateLateReason(_ context.Context, id uuid.UUID, reason string) error {
	st, done := s.view(true)
	defer done()
	sess, ok := st.sessions[id]
	if !ok {
		return apperror.NotFound("attendance session %s not found", id)
	}
	sess.LateSubmissionReason = &reason
	st.sessions[id] = sess
	return nil
}

/* ===============================
   Attendance rows
=================================*/

func (s *Store) filterAttendance(keep func(a attModel.AttendanceModel) bool) []attModel.AttendanceModel {
	st, done := s.view(false)
	defer done()
	out := []attModel.AttendanceModel{}
	for _, a := range st.attendance {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].TimeSlotID != out[j].TimeSlotID {
			return out[i].TimeSlotID < out[j].TimeSlotID
		}
		return out[i].StudentID.String() < out[j].StudentID.String()
	})
	return out
}

func (s *Store) ListSessionAttendance(_ context.Context, sessionID uuid.UUID) ([]attModel.AttendanceModel, error) {
	return s.filterAttendance(func(a attModel.AttendanceModel) bool { return a.SessionID == sessionID }), nil
}

func (s *Store) ListSlotAttendance(_ context.Context, slotID uint, date time.Time) ([]attModel.AttendanceModel, error) {
	return s.filterAttendance(func(a attModel.AttendanceModel) bool {
		return a.TimeSlotID == slotID && dayKey(a.Date) == dayKey(date)
	}), nil
}

func (s *Store) ListStudentAttendance(_ context.Context, studentID uuid.UUID, from, to time.Time) ([]attModel.AttendanceModel, error) {
	return s.filterAttendance(func(a attModel.AttendanceModel) bool {
		return a.StudentID == studentID && inRange(a.Date, from, to)
	}), nil
}

func (s *Store) ListSectionAttendance(_ context.Context, sectionID uuid.UUID, from, to time.Time) ([]attModel.AttendanceModel, error) {
	return s.filterAttendance(func(a attModel.AttendanceModel) bool {
		return a.SectionID == sectionID && inRange(a.Date, from, to)
	}), nil
}

func (s *Store) StudentAttendanceCounts(_ context.Context, studentIDs []uuid.UUID) (map[uuid.UUID]service.AttendanceCount, error) {
	st, done := s.view(false)
	defer done()
	want := make(map[uuid.UUID]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = struct{}{}
	}
	out := make(map[uuid.UUID]service.AttendanceCount, len(studentIDs))
	add := func(id uuid.UUID, status attModel.Status) {
		if _, ok := want[id]; !ok {
			return
		}
		c := out[id]
		c.Total++
		if status == attModel.StatusAbsent {
			c.Absences++
		}
		out[id] = c
	}
	for _, a := range st.attendance {
		add(a.StudentID, a.Status)
	}
	for _, a := range st.archives {
		add(a.StudentID, a.Status)
	}
	return out, nil
}

func (s *Store) UpdateStudentPercentages(_ context.Context, pct map[uuid.UUID]float64) error {
	st, done := s.view(true)
	defer done()
	for id, p := range pct {
		stu, ok := st.students[id]
		if !ok {
			continue
		}
		stu.AttendancePercentage = p
		st.students[id] = stu
	}
	return nil
}

/* ===============================
   Archive
=================================*/

func (s *Store) ListAttendanceBetween(_ context.Context, from, to time.Time) ([]attModel.AttendanceModel, error) {
	return s.filterAttendance(func(a attModel.AttendanceModel) bool {
		k := dayKey(a.Date)
		return k >= dayKey(from) && k < dayKey(to)
	}), nil
}

func (s *Store) DeleteSessionArchives(_ context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	st, done := s.view(true)
	defer done()
	var ids []uuid.UUID
	for id, a := range st.archives {
		if a.SessionID == sessionID {
			ids = append(ids, a.StudentID)
			delete(st.archives, id)
		}
	}
	return ids, nil
}

func (s *Store) ArchiveAttendance(_ context.Context, rows []attModel.AttendanceArchiveModel) error {
	st, done := s.view(true)
	defer done()
	for _, r := range rows {
		st.archives[r.ID] = r
		delete(st.attendance, r.OriginalID)
	}
	return nil
}
