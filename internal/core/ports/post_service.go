package ports

import (
	"context"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

// CreatePostInput is the DTO passed from the transport layer to PostService.
type CreatePostInput struct {
	OwnerID int64
	Text    string
	// IdempotencyKey is optional; an empty key always creates a new post.
	IdempotencyKey string
}

// PostService defines use-case operations for posts.
type PostService interface {
	Create(ctx context.Context, input CreatePostInput) (*domain.Post, error)
	ListForOwner(ctx context.Context, ownerID int64) ([]domain.Post, error)
	Delete(ctx context.Context, postID, requesterID int64) error
}
