package route

import (
	"campusku_backend/internals/features/campus/rooms/controller"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func RoomAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewRoomController(db, validator.New())

	g := admin.Group("/rooms")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.GetByID)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)
}
