package ports

import (
	"context"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id int64) (*domain.Post, error)
	// ListByOwner returns the owner's posts ordered by ID ascending.
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Post, error)
	// Delete removes a post. Returns domain.ErrPostNotFound when no row matched.
	Delete(ctx context.Context, id int64) error
}
