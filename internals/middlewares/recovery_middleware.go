package middlewares

import (
	"fmt"

	"campusku_backend/internals/configs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware turns panics into 500s and reports them.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			err := fmt.Errorf("panic: %v", e)
			configs.LogError(configs.GetLogger(), "middlewares", "RecoveryMiddleware", c.Path(), c.Locals("request_id"), err)
			configs.ReportError(err, map[string]interface{}{"path": c.Path(), "method": c.Method()})
		},
	})
}
