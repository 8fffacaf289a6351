package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

// BodyLimit rejects requests whose declared Content-Length exceeds maxBytes
// before any later middleware runs. Bodies without a declared length are
// capped with http.MaxBytesReader so reading past maxBytes fails.
func BodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > maxBytes {
				return fmt.Errorf("%w: max size is %d bytes", domain.ErrPayloadTooLarge, maxBytes)
			}
			if req.Body != nil {
				req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			}
			return next(c)
		}
	}
}
