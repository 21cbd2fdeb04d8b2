// Package service turns attendance events into the activity feed, WebSocket
// pushes and the override notice email.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusku_backend/internals/configs"
	attService "campusku_backend/internals/features/attendance/service"
	"campusku_backend/internals/helpers/mailer"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Recipient is the faculty contact used for override notices.
type Recipient struct {
	Email string
	Name  string
}

// Directory resolves a user id to a mail recipient.
type Directory interface {
	Recipient(ctx context.Context, userID uuid.UUID) (*Recipient, error)
}

type Center struct {
	Log    *ActivityLog
	Hub    *Hub
	mailer mailer.Mailer
	dir    Directory
	logger *logrus.Logger
	// wg tracks in-flight emails so tests and shutdown can wait on them
	wg sync.WaitGroup
}

var _ attService.Notifier = (*Center)(nil)

func NewCenter(log *ActivityLog, hub *Hub, m mailer.Mailer, dir Directory) *Center {
	return &Center{Log: log, Hub: hub, mailer: m, dir: dir, logger: configs.GetLogger()}
}

func (c *Center) Notify(ctx context.Context, ev attService.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	a := Activity{
		ID:        uuid.New(),
		Type:      ev.Type,
		Message:   ev.Message,
		ActorID:   ev.ActorID,
		FacultyID: ev.FacultyID,
		SessionID: ev.SessionID,
		At:        ev.At,
	}
	if len(ev.Meta) > 0 {
		a.Meta = datatypes.JSONMap(ev.Meta)
	}
	c.Log.Add(a)

	if payload, err := sonic.Marshal(ev); err != nil {
		configs.LogError(c.logger, "notifications", "Notify", "marshal event", ev.Type, err)
	} else {
		audience := []uuid.UUID{ev.ActorID}
		if ev.FacultyID != nil {
			audience = append(audience, *ev.FacultyID)
		}
		c.Hub.Broadcast(payload, audience...)
	}

	if ev.Type == attService.EventOverridden && ev.FacultyID != nil && *ev.FacultyID != ev.ActorID {
		c.wg.Add(1)
		go func(ev attService.Event) {
			defer c.wg.Done()
			// detached from the request, which ends before the mail is sent
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			c.sendOverrideNotice(ctx, ev)
		}(ev)
	}
}

// Wait blocks until queued emails are sent.
func (c *Center) Wait() { c.wg.Wait() }

func (c *Center) sendOverrideNotice(ctx context.Context, ev attService.Event) {
	if c.mailer == nil || c.dir == nil {
		return
	}
	rcpt, err := c.dir.Recipient(ctx, *ev.FacultyID)
	if err != nil || rcpt == nil || rcpt.Email == "" {
		if err != nil {
			configs.LogError(c.logger, "notifications", "sendOverrideNotice", "lookup faculty", ev.FacultyID, err)
		}
		return
	}

	reason := ""
	if r, ok := ev.Meta["reason"].(string); ok {
		reason = r
	}
	msg := mailer.Message{
		To:      rcpt.Email,
		ToName:  rcpt.Name,
		Subject: "Attendance overridden",
		Text: fmt.Sprintf("Hello %s,\n\nAttendance for time slot %d on %s was overridden by an administrator.\nReason: %s\n",
			rcpt.Name, ev.TimeSlotID, ev.Date, reason),
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		configs.LogError(c.logger, "notifications", "sendOverrideNotice", "send", rcpt.Email, err)
	}
}
