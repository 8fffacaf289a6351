package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/postbox/internal/core/domain"
	"github.com/sirpyerre/postbox/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /posts without duplicating a post.
const HeaderIdempotencyKey = "Idempotency-Key"

// PostHandler handles HTTP requests for the caller's posts.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// Create handles POST /posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replays the original post when reused"
// @Param        body             body      createPostRequest  true   "Post text (1-10000 characters)"
// @Success      201              {object}  postResponse
// @Failure      401              {object}  ErrorResponse
// @Failure      413              {object}  ErrorResponse
// @Failure      422              {object}  ErrorResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}

	post, err := h.service.Create(c.Request().Context(), ports.CreatePostInput{
		OwnerID:        user.ID,
		Text:           req.Text,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPostResponse(*post))
}

// List handles GET /posts.
//
// @Summary      List the caller's posts
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   postResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	posts, err := h.service.ListForOwner(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts))
}

// Delete handles DELETE /posts/:post_id.
//
// @Summary      Delete a post
// @Tags         posts
// @Security     BearerAuth
// @Param        post_id  path  int  true  "Post ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{post_id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: post_id must be an integer", domain.ErrValidation)
	}

	if err := h.service.Delete(c.Request().Context(), postID, user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
