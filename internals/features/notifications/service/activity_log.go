package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity is one entry of the admin activity feed.
type Activity struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	ActorID   uuid.UUID         `json:"actor_id"`
	FacultyID *uuid.UUID        `json:"faculty_id,omitempty"`
	SessionID *uuid.UUID        `json:"session_id,omitempty"`
	Meta      datatypes.JSONMap `json:"meta,omitempty"`
	At        time.Time         `json:"at"`
}

// ActivityLog is a fixed-capacity ring buffer; the oldest entry is evicted first.
type ActivityLog struct {
	mu    sync.RWMutex
	buf   []Activity
	next  int
	count int
}

func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = 200
	}
	return &ActivityLog{buf: make([]Activity, capacity)}
}

func (l *ActivityLog) Add(a Activity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = a
	l.next = (l.next + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (l *ActivityLog) Recent(limit int) []Activity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > l.count {
		limit = l.count
	}
	out := make([]Activity, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.buf)) % len(l.buf)
		out = append(out, l.buf[idx])
	}
	return out
}

func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

func (l *ActivityLog) Cap() int { return len(l.buf) }
