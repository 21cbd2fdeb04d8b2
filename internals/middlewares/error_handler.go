package middlewares

import (
	helper "campusku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the fiber.Config ErrorHandler: every returned error leaves as the JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return helper.JsonFromError(c, err)
}
