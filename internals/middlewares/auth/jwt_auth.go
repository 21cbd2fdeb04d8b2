package auth

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "campusku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(rawToken string) (bool, error) // true if revoked
	ActiveChecker       func(userID uuid.UUID) error        // nil when the account may proceed
	AllowCookieFallback bool                                // read access_token cookie when there is no Bearer header
	AllowQueryToken     bool                                // read ?token= (WebSocket upgrade)
}

func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := extractToken(c, o)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - no token provided")
		}

		if o.BlacklistChecker != nil {
			black, err := o.BlacklistChecker(raw)
			if err != nil {
				log.Println("[ERROR] blacklist check:", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
			}
			if black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		claims, err := ParseAccessToken(raw, secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		userID, err := uuid.Parse(strClaim(claims, "id"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid or missing user ID")
		}
		if o.ActiveChecker != nil {
			if err := o.ActiveChecker(userID); err != nil {
				return err
			}
		}

		c.Locals(helperAuth.LocUserID, userID.String())
		c.Locals(helperAuth.LocRole, strings.ToUpper(strClaim(claims, "role")))
		c.Locals(helperAuth.LocUserName, strClaim(claims, "user_name"))
		c.Locals(helperAuth.LocRawToken, raw)
		return c.Next()
	}
}

// ParseAccessToken verifies an HMAC-signed token and its exp claim.
func ParseAccessToken(raw, secret string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	if typ := strClaim(claims, "typ"); typ != "" && typ != "access" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token type")
	}
	return claims, nil
}

func extractToken(c *fiber.Ctx, o AuthJWTOpts) string {
	if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); authz != "" {
		fields := strings.Fields(authz)
		if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
			return strings.Trim(fields[1], "\"'")
		}
	}
	if o.AllowCookieFallback {
		if tok := strings.TrimSpace(c.Cookies("access_token")); tok != "" {
			return tok
		}
	}
	if o.AllowQueryToken {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

func strClaim(m jwt.MapClaims, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
