package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/postbox/internal/api/middleware"
	"github.com/sirpyerre/postbox/internal/core/domain"
	"github.com/sirpyerre/postbox/internal/core/ports"
)

type stubPostService struct {
	createFn func(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error)
	listFn   func(ctx context.Context, ownerID int64) ([]domain.Post, error)
	deleteFn func(ctx context.Context, postID, requesterID int64) error
}

func (s *stubPostService) Create(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
	return s.createFn(ctx, in)
}

func (s *stubPostService) ListForOwner(ctx context.Context, ownerID int64) ([]domain.Post, error) {
	return s.listFn(ctx, ownerID)
}

func (s *stubPostService) Delete(ctx context.Context, postID, requesterID int64) error {
	return s.deleteFn(ctx, postID, requesterID)
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID int64) echo.Context {
	c := e.NewContext(req, rec)
	c.Set(middleware.UserKey, &domain.User{ID: userID, Email: "a@example.com"})
	return c
}

func TestPostHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{
		createFn: func(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
			if in.OwnerID != 1 || in.Text != "hello" || in.IdempotencyKey != "k-1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Post{ID: 10, Text: in.Text, OwnerID: in.OwnerID}, nil
		},
	}

	req := jsonRequest(http.MethodPost, "/posts", `{"text":"hello","owner_id":99}`)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	rec := httptest.NewRecorder()

	if err := NewPostHandler(stub).Create(authedContext(e, req, rec, 1)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != 10 || resp.OwnerID != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPostHandler_Create_Validation(t *testing.T) {
	cases := map[string]string{
		"empty text":   `{"text":""}`,
		"missing text": `{}`,
		"too long":     `{"text":"` + strings.Repeat("a", 10001) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubPostService{
				createFn: func(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
					t.Fatalf("service should not be called")
					return nil, nil
				},
			}
			c := authedContext(e, jsonRequest(http.MethodPost, "/posts", body), httptest.NewRecorder(), 1)

			if err := NewPostHandler(stub).Create(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestPostHandler_Create_MultibyteTextAtLimit(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{
		createFn: func(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
			return &domain.Post{ID: 1, Text: in.Text, OwnerID: in.OwnerID}, nil
		},
	}
	body := `{"text":"` + strings.Repeat("é", 10000) + `"}`
	c := authedContext(e, jsonRequest(http.MethodPost, "/posts", body), httptest.NewRecorder(), 1)

	if err := NewPostHandler(stub).Create(c); err != nil {
		t.Fatalf("10000 characters should be accepted: %v", err)
	}
}

func TestPostHandler_Create_BodyOverLimitWhileBinding(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{}

	req := jsonRequest(http.MethodPost, "/posts", `{"text":"`+strings.Repeat("a", 100)+`"}`)
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	if err := NewPostHandler(stub).Create(authedContext(e, req, rec, 1)); !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestPostHandler_Create_Unauthenticated(t *testing.T) {
	e := newTestEcho()
	c := e.NewContext(jsonRequest(http.MethodPost, "/posts", `{"text":"x"}`), httptest.NewRecorder())

	if err := NewPostHandler(&stubPostService{}).Create(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPostHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{
		listFn: func(ctx context.Context, ownerID int64) ([]domain.Post, error) {
			return []domain.Post{{ID: 1, Text: "a", OwnerID: ownerID}, {ID: 2, Text: "b", OwnerID: ownerID}}, nil
		},
	}

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/posts", nil), rec, 4)

	if err := NewPostHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != 1 || resp[1].OwnerID != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPostHandler_List_EmptyRendersArray(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{
		listFn: func(ctx context.Context, ownerID int64) ([]domain.Post, error) {
			return []domain.Post{}, nil
		},
	}

	rec := httptest.NewRecorder()
	if err := NewPostHandler(stub).List(authedContext(e, httptest.NewRequest(http.MethodGet, "/posts", nil), rec, 4)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestPostHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{
		deleteFn: func(ctx context.Context, postID, requesterID int64) error {
			if postID != 10 || requesterID != 1 {
				t.Fatalf("unexpected args: %d %d", postID, requesterID)
			}
			return nil
		},
	}

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodDelete, "/posts/10", nil), rec, 1)
	c.SetParamNames("post_id")
	c.SetParamValues("10")

	if err := NewPostHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestPostHandler_Delete_Errors(t *testing.T) {
	cases := []struct {
		name    string
		param   string
		svcErr  error
		wantErr error
	}{
		{"non-numeric id", "abc", nil, domain.ErrValidation},
		{"not found", "5", domain.ErrPostNotFound, domain.ErrPostNotFound},
		{"not owner", "5", domain.ErrForbidden, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubPostService{
				deleteFn: func(ctx context.Context, postID, requesterID int64) error { return tc.svcErr },
			}
			c := authedContext(e, httptest.NewRequest(http.MethodDelete, "/posts/"+tc.param, nil), httptest.NewRecorder(), 1)
			c.SetParamNames("post_id")
			c.SetParamValues(tc.param)

			if err := NewPostHandler(stub).Delete(c); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
