package route

import (
	"campusku_backend/internals/features/users/user/controller"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func UserAdminRoutes(admin fiber.Router, db *gorm.DB) {
	uc := controller.NewUserController(db, validator.New())

	g := admin.Group("/users")
	g.Get("/", uc.List)
	g.Get("/:id", uc.GetByID)
	g.Post("/", uc.Create)
	g.Patch("/:id", uc.Update)
	g.Delete("/:id", uc.Delete)
}
