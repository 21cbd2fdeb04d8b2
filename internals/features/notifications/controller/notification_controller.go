package controller

import (
	"strconv"
	"time"

	"campusku_backend/internals/configs"
	"campusku_backend/internals/constants"
	notifService "campusku_backend/internals/features/notifications/service"
	helper "campusku_backend/internals/helpers"
	helperAuth "campusku_backend/internals/helpers/auth"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type NotificationController struct {
	Center *notifService.Center
}

func NewNotificationController(center *notifService.Center) *NotificationController {
	return &NotificationController{Center: center}
}

// GET /api/admin/activities?limit=
func (ctl *NotificationController) Activities(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > ctl.Center.Log.Cap() {
		limit = ctl.Center.Log.Cap()
	}
	items := ctl.Center.Log.Recent(limit)
	return helper.JsonOK(c, "ok", fiber.Map{
		"items": items,
		"total": ctl.Center.Log.Len(),
	})
}

// Upgrade admits WebSocket handshakes only; AuthJWT has already set the caller.
func (ctl *NotificationController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Stream pushes events to one subscriber until the socket closes.
func (ctl *NotificationController) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		idStr, _ := conn.Locals(helperAuth.LocUserID).(string)
		role, _ := conn.Locals(helperAuth.LocRole).(string)
		userID, err := uuid.Parse(idStr)
		if err != nil {
			_ = conn.Close()
			return
		}

		cl := ctl.Center.Hub.Register(userID, role == constants.RoleAdmin)
		defer ctl.Center.Hub.Unregister(cl)

		// reader: detect close and discard client frames
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-cl.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					configs.GetLogger().WithField("user_id", userID).WithError(err).Debug("websocket write failed")
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}
