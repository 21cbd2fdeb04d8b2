package route

import (
	"campusku_backend/internals/features/campus/schedules/controller"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ScheduleAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewScheduleController(db, validator.New())

	g := admin.Group("/schedules")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.GetByID)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)
	g.Post("/:id/time-slots", ctl.AddTimeSlot)

	ts := admin.Group("/time-slots")
	ts.Get("/", ctl.ListTimeSlots)
	ts.Patch("/:id", ctl.UpdateTimeSlot)
	ts.Delete("/:id", ctl.DeleteTimeSlot)
}
