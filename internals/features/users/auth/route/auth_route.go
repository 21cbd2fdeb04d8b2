package route

import (
	controller "campusku_backend/internals/features/users/auth/controller"
	"campusku_backend/internals/features/users/auth/service"
	rateLimiter "campusku_backend/internals/middlewares"

	"github.com/gofiber/fiber/v2"
)

// AuthRoutes mounts /auth under r. protect is the AuthJWT middleware.
func AuthRoutes(r fiber.Router, svc *service.Service, protect fiber.Handler) {
	ctrl := controller.NewAuthController(svc)

	auth := r.Group("/auth")

	// 🔓 public
	auth.Post("/login", rateLimiter.LoginRateLimiter(), ctrl.Login)
	auth.Post("/verify-otp", rateLimiter.OTPRateLimiter(), ctrl.VerifyOTP)
	auth.Post("/refresh-token", ctrl.RefreshToken)

	// 🔒 protected
	auth.Post("/logout", protect, ctrl.Logout)
	auth.Get("/me", protect, ctrl.Me)
	auth.Post("/change-password", protect, ctrl.ChangePassword)
}
