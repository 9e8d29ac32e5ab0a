package echomw

import (
	"time"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

func RouteAccessLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		startedAt := time.Now()
		LogRouteAccess(c, tl.Info, "Accessing route", palette.Blue) // Log the visit

		err := next(c) // Proceed to the next handler

		tl.Log(
			tl.Info1, palette.Green,
			"%s: Method='%s', Path='%s', ClientIP='%s', Elapsed='%s'",
			"Route completed", c.Request().Method, c.Path(), c.RealIP(), time.Since(startedAt).Round(time.Millisecond),
		)
		return err
	}
}

// Log route access
func LogRouteAccess(c echo.Context, logLevel tl.LogLevel, actionName string, colorizer palette.Colorizer) {
	tl.Log(logLevel, colorizer, "%s: Method='%s', Path='%s', ClientIP='%s'", actionName, c.Request().Method, c.Path(), c.RealIP())
}
