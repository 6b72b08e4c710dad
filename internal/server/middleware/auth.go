package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader carries the master API key.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey admits requests presenting the master API key, either in
// X-API-Key or as a bearer token. Without a configured key every request is
// rejected.
func RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		app := c.(*AppContext).App
		if app.MasterAPIKey == "" {
			return Fail(c, http.StatusForbidden, "API key not configured")
		}

		key := c.Request().Header.Get(APIKeyHeader)
		if key == "" {
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(app.MasterAPIKey)) != 1 {
			return Fail(c, http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}
