package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusku_backend/internals/constants"
	helperAuth "campusku_backend/internals/helpers/auth"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newApp(opts AuthJWTOpts, roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/x", AuthJWT(opts), OnlyRoles("admins only", roles...), func(c *fiber.Ctx) error {
		caller, err := helperAuth.GetCaller(c)
		if err != nil {
			return err
		}
		return c.SendString(caller.Role)
	})
	return app
}

func TestAuthJWT(t *testing.T) {
	uid := uuid.New()
	valid := sign(t, jwt.MapClaims{"id": uid.String(), "role": "ADMIN", "typ": "access", "exp": time.Now().Add(time.Minute).Unix()})
	expired := sign(t, jwt.MapClaims{"id": uid.String(), "role": "ADMIN", "exp": time.Now().Add(-time.Minute).Unix()})
	faculty := sign(t, jwt.MapClaims{"id": uid.String(), "role": "FACULTY", "exp": time.Now().Add(time.Minute).Unix()})
	refresh := sign(t, jwt.MapClaims{"id": uid.String(), "role": "ADMIN", "typ": "refresh", "exp": time.Now().Add(time.Minute).Unix()})

	opts := AuthJWTOpts{
		Secret: testSecret,
		BlacklistChecker: func(raw string) (bool, error) {
			return raw == "revoked", nil
		},
	}
	app := newApp(opts, constants.AdminOnly...)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid admin", "Bearer " + valid, fiber.StatusOK},
		{"missing", "", fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong role", "Bearer " + faculty, fiber.StatusForbidden},
		{"refresh token rejected", "Bearer " + refresh, fiber.StatusUnauthorized},
		{"revoked", "Bearer revoked", fiber.StatusUnauthorized},
		{"garbage", "Bearer abc.def", fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestAuthJWTQueryTokenAndInactive(t *testing.T) {
	uid := uuid.New()
	tok := sign(t, jwt.MapClaims{"id": uid.String(), "role": "FACULTY", "exp": time.Now().Add(time.Minute).Unix()})

	app := newApp(AuthJWTOpts{Secret: testSecret, AllowQueryToken: true}, constants.AllRoles...)
	resp, err := app.Test(httptest.NewRequest("GET", "/x?token="+tok, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	inactive := newApp(AuthJWTOpts{
		Secret:          testSecret,
		AllowQueryToken: true,
		ActiveChecker: func(uuid.UUID) error {
			return fiber.NewError(fiber.StatusForbidden, "account disabled")
		},
	}, constants.AllRoles...)
	resp, err = inactive.Test(httptest.NewRequest("GET", "/x?token="+tok, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	failing := newApp(AuthJWTOpts{
		Secret:           testSecret,
		AllowQueryToken:  true,
		BlacklistChecker: func(string) (bool, error) { return false, errors.New("db down") },
	}, constants.AllRoles...)
	resp, err = failing.Test(httptest.NewRequest("GET", "/x?token="+tok, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
