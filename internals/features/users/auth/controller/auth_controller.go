package controller

import (
	"strings"
	"time"

	"campusku_backend/internals/configs"
	"campusku_backend/internals/features/users/auth/dto"
	"campusku_backend/internals/features/users/auth/service"
	helper "campusku_backend/internals/helpers"
	helperAuth "campusku_backend/internals/helpers/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const refreshCookie = "refresh_token"

type AuthController struct {
	Svc      *service.Service
	Validate *validator.Validate
}

func NewAuthController(svc *service.Service) *AuthController {
	return &AuthController{Svc: svc, Validate: validator.New()}
}

func (ac *AuthController) bind(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ac.Validate.Struct(out); err != nil {
		return false, helper.JsonValidationError(c, helper.ValidationErrorsMap(err))
	}
	return true, nil
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := ac.bind(c, &req); !ok {
		return err
	}
	req.Normalize()

	ch, err := ac.Svc.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "OTP sent to your email", ch)
}

// POST /api/auth/verify-otp
func (ac *AuthController) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if ok, err := ac.bind(c, &req); !ok {
		return err
	}

	pair, err := ac.Svc.VerifyOTP(c.UserContext(), req.ChallengeID, req.Code, clientMeta(c))
	if err != nil {
		return err
	}
	setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return helper.JsonOK(c, "Login successful", pair)
}

// POST /api/auth/refresh-token
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	_ = c.BodyParser(&req)
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		raw = strings.TrimSpace(c.Cookies(refreshCookie))
	}
	if raw == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Refresh token missing")
	}

	pair, err := ac.Svc.Refresh(c.UserContext(), raw, clientMeta(c))
	if err != nil {
		clearRefreshCookie(c)
		return err
	}
	setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return helper.JsonOK(c, "Token refreshed", pair)
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	_ = c.BodyParser(&req)
	refresh := strings.TrimSpace(req.RefreshToken)
	if refresh == "" {
		refresh = strings.TrimSpace(c.Cookies(refreshCookie))
	}

	if err := ac.Svc.Logout(c.UserContext(), helperAuth.RawToken(c), refresh); err != nil {
		return err
	}
	clearRefreshCookie(c)
	return helper.JsonOK(c, "Logged out", nil)
}

// GET /api/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	me, err := ac.Svc.Me(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", me)
}

// POST /api/auth/change-password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if ok, err := ac.bind(c, &req); !ok {
		return err
	}
	if err := ac.Svc.ChangePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Password changed successfully", nil)
}

func clientMeta(c *fiber.Ctx) service.ClientMeta {
	return service.ClientMeta{UserAgent: c.Get(fiber.HeaderUserAgent), IP: c.IP()}
}

func secureCookies() bool {
	return !strings.EqualFold(configs.GetEnv("ENV", "development"), "development")
}

func setRefreshCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/api/auth",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   secureCookies(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/api/auth",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secureCookies(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
