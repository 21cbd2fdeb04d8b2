package route

import (
	"campusku_backend/internals/features/campus/students/controller"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func StudentAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewStudentController(db, validator.New())

	g := admin.Group("/students")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.GetByID)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)

	admin.Get("/sections/:id/students", ctl.ListBySection)
	admin.Post("/sections/:id/students/bulk", ctl.BulkImport)
}
