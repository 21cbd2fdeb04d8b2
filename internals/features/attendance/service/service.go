package service

import (
	"context"
	"time"

	"campusku_backend/internals/configs"
	"campusku_backend/internals/helpers/locker"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const moduleName = "attendance"

// Event types published to the Notifier.
const (
	EventSubmitted      = "attendance.submitted"
	EventOverridden     = "attendance.overridden"
	EventBatchSubmitted = "attendance.batch_submitted"
	EventLateReason     = "attendance.late_reason_updated"
	EventArchived       = "attendance.archived"
)

type Event struct {
	Type       string         `json:"type"`
	SessionID  *uuid.UUID     `json:"session_id,omitempty"`
	TimeSlotID uint           `json:"time_slot_id,omitempty"`
	SectionID  *uuid.UUID     `json:"section_id,omitempty"`
	FacultyID  *uuid.UUID     `json:"faculty_id,omitempty"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Date       string         `json:"date,omitempty"`
	Message    string         `json:"message"`
	Meta       map[string]any `json:"meta,omitempty"`
	At         time.Time      `json:"at"`
}

// Notifier receives events after the write has committed. It must not block.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type Service struct {
	store    Store
	locker   locker.Locker
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
	lockTTL  time.Duration
	logger   *logrus.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLocker(l locker.Locker) Option { return func(s *Service) { s.locker = l } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithLockTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

func WithLogger(l *logrus.Logger) Option { return func(s *Service) { s.logger = l } }

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		now:     time.Now,
		loc:     time.UTC,
		lockTTL: 10 * time.Second,
		logger:  configs.GetLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.locker == nil {
		s.locker = locker.NewLocalLocker()
	}
	return s
}

// Now is the service clock in the campus location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

func (s *Service) Today() time.Time {
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) notify(ctx context.Context, ev Event) {
	if s.notifier == nil {
		return
	}
	ev.At = s.Now()
	s.notifier.Notify(ctx, ev)
}

func (s *Service) logError(funcName, where string, data any, err error) {
	configs.LogError(s.logger, moduleName, funcName, where, data, err)
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
