package middleware

import (
	"github.com/labstack/echo/v4"
)

// DemoMode marks the request context when the demo_mode cookie is present
// and the deployment-wide flag is on. Downstream handlers short-circuit
// external integrations for marked requests.
func DemoMode(enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if enabled {
				if cookie, err := c.Cookie("demo_mode"); err == nil && cookie.Value == "1" {
					c.Set("demoMode", true)
				}
			}
			return next(c)
		}
	}
}
