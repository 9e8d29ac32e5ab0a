package echomw

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

/*
UploadBodyLimitMiddleware rejects requests whose body exceeds maxBytes.

Receipt photographs run a few megabytes each. Requests declaring a larger
Content-Length are refused up front with 413, and the body reader is capped
so chunked uploads cannot sneak past the declared size.
*/
func UploadBodyLimitMiddleware(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			request := c.Request()

			if request.ContentLength > maxBytes {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
					"error": fmt.Sprintf("request body exceeds the '%d' byte upload limit", maxBytes),
				})
			}

			request.Body = http.MaxBytesReader(c.Response(), request.Body, maxBytes)
			return next(c)
		}
	}
}
