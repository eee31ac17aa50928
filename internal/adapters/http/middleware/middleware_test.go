package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aidmap-api/internal/config"
	"aidmap-api/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = &config.Config{JWT: config.JWTConfig{Secret: "test_secret"}}

func whoAmI(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": UserID(c), "admin": IsAdmin(c)})
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken("u-1", "a@aidmap.test", "alice", role, testConfig.JWT.Secret, 15)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddlewareTokenSources(t *testing.T) {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(testConfig), whoAmI)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "USER"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token(t, "USER")})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/me?access_token="+token(t, "USER"), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminOnly(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", AuthMiddleware(testConfig), AdminOnly(), whoAmI)

	for role, want := range map[string]int{"USER": http.StatusForbidden, "ADMIN": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, role))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, role)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/map", OptionalAuth(testConfig), whoAmI)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/map", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/map", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/public", CacheControl(90*time.Second), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/private", PrivateCacheHeaders(time.Minute), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/live", NoCacheHeaders(), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", CacheControl(time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNotFound) })

	cases := map[string]string{
		"/public":  "public, max-age=90",
		"/private": "private, max-age=60",
		"/live":    "no-store, no-cache, must-revalidate",
		"/missing": "",
	}
	for path, want := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.Header.Get("Cache-Control"), path)
	}
}
