package route

import (
	"campusku_backend/internals/features/campus/sections/controller"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SectionAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewSectionController(db, validator.New())

	g := admin.Group("/sections")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.GetByID)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Post("/:id/recount", ctl.Recount)
	g.Delete("/:id", ctl.Delete)
}
