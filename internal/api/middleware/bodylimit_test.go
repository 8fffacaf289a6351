package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(strings.Repeat("x", 11)))
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit(10)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestBodyLimit_AtLimitPasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(strings.Repeat("x", 10)))
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit(10)(func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if len(body) != 10 {
			t.Fatalf("expected 10 bytes, got %d", len(body))
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBodyLimit_UndeclaredLengthIsCapped(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(strings.Repeat("x", 50)))
	req.ContentLength = -1
	c := e.NewContext(req, httptest.NewRecorder())

	err := BodyLimit(10)(func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			t.Fatalf("expected MaxBytesError, got %v", err)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
