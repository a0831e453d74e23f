package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyMiddleware guards the session API with a shared key. The key
// normally arrives in the X-API-Key header; browser-initiated loads that
// cannot set headers (a shell UI embedding the preview document in an
// iframe, or a plain link to it) may send it as an api_key query
// parameter instead. An empty configured key disables the check
// (development mode).
func APIKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}

			provided := requestKey(c)
			if provided == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "missing API key",
				})
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "invalid API key",
				})
			}

			return next(c)
		}
	}
}

// requestKey extracts the caller's key, preferring the header over the
// query-parameter fallback.
func requestKey(c echo.Context) string {
	if key := c.Request().Header.Get("X-API-Key"); key != "" {
		return key
	}
	return c.QueryParam("api_key")
}
