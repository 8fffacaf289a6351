package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/postbox/internal/api/middleware"
	"github.com/sirpyerre/postbox/internal/core/domain"
)

// currentUser returns the user injected by the Auth middleware. A missing
// user means the route was registered without Auth.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.UserKey).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// bindRequest binds and validates req. Bind failures caused by the body
// size cap become ErrPayloadTooLarge; every other shape problem is a
// validation failure.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: max size is %d bytes", domain.ErrPayloadTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
