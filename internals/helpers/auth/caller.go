package auth

import (
	"strings"

	"campusku_backend/internals/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys hydrated by the AuthJWT middleware.
const (
	LocUserID   = "user_id"
	LocRole     = "role"
	LocUserName = "user_name"
	LocRawToken = "raw_token"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	ID       uuid.UUID
	Role     string
	UserName string
}

func (c Caller) IsAdmin() bool   { return c.Role == constants.RoleAdmin }
func (c Caller) IsFaculty() bool { return c.Role == constants.RoleFaculty }

// GetUserIDFromToken reads c.Locals("user_id"): 401 when absent, 400 when malformed.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	var s string
	switch t := c.Locals(LocUserID).(type) {
	case uuid.UUID:
		s = t.String()
	case string:
		s = t
	case nil:
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}
	s = strings.TrimSpace(s)
	if s == "" || s == uuid.Nil.String() {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocRole).(string)
	return strings.ToUpper(strings.TrimSpace(role))
}

// GetCaller combines user id and role; unknown roles are rejected.
func GetCaller(c *fiber.Ctx) (Caller, error) {
	id, err := GetUserIDFromToken(c)
	if err != nil {
		return Caller{}, err
	}
	role := GetRole(c)
	if !constants.IsValidRole(role) {
		return Caller{}, fiber.NewError(fiber.StatusForbidden, "unknown role")
	}
	name, _ := c.Locals(LocUserName).(string)
	return Caller{ID: id, Role: role, UserName: name}, nil
}

// RawToken returns the bearer token stored by the middleware.
func RawToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRawToken).(string)
	return s
}
