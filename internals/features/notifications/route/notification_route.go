package route

import (
	"campusku_backend/internals/features/notifications/controller"
	notifService "campusku_backend/internals/features/notifications/service"

	"github.com/gofiber/fiber/v2"
)

// NotificationAdminRoutes mounts the activity feed on /api/admin.
func NotificationAdminRoutes(admin fiber.Router, center *notifService.Center) {
	ctl := controller.NewNotificationController(center)
	admin.Get("/activities", ctl.Activities)
}

// NotificationSocketRoutes mounts GET /ws/notifications. auth must accept ?token=.
func NotificationSocketRoutes(app *fiber.App, center *notifService.Center, auth fiber.Handler) {
	ctl := controller.NewNotificationController(center)
	app.Get("/ws/notifications", auth, ctl.Upgrade, ctl.Stream())
}
