package middlewares

import (
	"time"

	"campusku_backend/internals/configs"
	helper "campusku_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter applies RATE_LIMIT_PER_MINUTE to every endpoint.
func GlobalRateLimiter() fiber.Handler {
	max := 100
	if configs.Conf != nil && configs.Conf.GetInt("RATE_LIMIT_PER_MINUTE") > 0 {
		max = configs.Conf.GetInt("RATE_LIMIT_PER_MINUTE")
	}
	return newLimiter(max, time.Minute, "Too many requests. Please try again later.")
}

func LoginRateLimiter() fiber.Handler {
	return newLimiter(5, time.Minute, "Too many login attempts. Please wait a moment.")
}

// OTPRateLimiter guards OTP verification against brute force.
func OTPRateLimiter() fiber.Handler {
	return newLimiter(10, 5*time.Minute, "Too many OTP attempts. Please wait a few minutes.")
}
