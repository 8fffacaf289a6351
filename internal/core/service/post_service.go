package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/postbox/internal/core/domain"
	"github.com/sirpyerre/postbox/internal/core/ports"
	"github.com/sirpyerre/postbox/internal/infrastructure/metrics"
)

// PostService implements ownership-scoped post operations with a listing cache
// in front of the repository.
type PostService struct {
	repo        ports.PostRepository
	cache       ports.PostListCache
	idempotency ports.IdempotencyStore
	log         zerolog.Logger
}

// NewPostService wires a PostService. idempotency may be nil, in which case
// Idempotency-Key headers are ignored.
func NewPostService(
	repo ports.PostRepository,
	cache ports.PostListCache,
	idempotency ports.IdempotencyStore,
	log zerolog.Logger,
) *PostService {
	return &PostService{repo: repo, cache: cache, idempotency: idempotency, log: log}
}

// ownerCacheKey is the cache key holding ownerID's full post listing.
func ownerCacheKey(ownerID int64) string {
	return "user_posts_" + strconv.FormatInt(ownerID, 10)
}

// Create stores a post for input.OwnerID. When an idempotency key is supplied
// and was already used by the same owner for a post that still exists, that
// post is returned instead.
func (s *PostService) Create(ctx context.Context, input ports.CreatePostInput) (*domain.Post, error) {
	if input.Text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}

	if existing := s.replay(ctx, input); existing != nil {
		metrics.PostsCreatedTotal.WithLabelValues("true").Inc()
		return existing, nil
	}

	created, err := s.repo.Create(ctx, &domain.Post{Text: input.Text, OwnerID: input.OwnerID})
	if err != nil {
		s.log.Error().Err(err).Int64("owner_id", input.OwnerID).Msg("failed to create post")
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.invalidate(input.OwnerID)

	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.Remember(ctx, input.OwnerID, input.IdempotencyKey, created.ID); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	metrics.PostsCreatedTotal.WithLabelValues("false").Inc()
	s.log.Info().Int64("post_id", created.ID).Int64("owner_id", created.OwnerID).Msg("post created")
	return created, nil
}

// replay returns the post previously created for input's idempotency key, or
// nil when there is none. Store failures are logged and treated as a miss.
func (s *PostService) replay(ctx context.Context, input ports.CreatePostInput) *domain.Post {
	if s.idempotency == nil || input.IdempotencyKey == "" {
		return nil
	}

	postID, found, err := s.idempotency.Lookup(ctx, input.OwnerID, input.IdempotencyKey)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}

	post, err := s.repo.FindByID(ctx, postID)
	if err != nil || !post.OwnedBy(input.OwnerID) {
		return nil
	}

	s.log.Info().Str("idempotency_key", input.IdempotencyKey).Int64("post_id", post.ID).Msg("idempotent replay")
	return post
}

// ListForOwner returns ownerID's posts ordered by ID ascending, from the cache
// when a fresh listing is present.
func (s *PostService) ListForOwner(ctx context.Context, ownerID int64) ([]domain.Post, error) {
	key := ownerCacheKey(ownerID)
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return clonePosts(cached), nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	gen := s.cache.Generation(key)
	posts, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}

	// A create or delete that finished during the read has already
	// invalidated key; this listing may predate it and must not be cached.
	if !s.cache.SetIfGeneration(key, clonePosts(posts), gen) {
		s.log.Debug().Int64("owner_id", ownerID).Msg("listing changed while loading, not cached")
	}
	return posts, nil
}

// Delete removes postID if requesterID owns it.
func (s *PostService) Delete(ctx context.Context, postID, requesterID int64) error {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !post.OwnedBy(requesterID) {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		if !errors.Is(err, domain.ErrPostNotFound) {
			s.log.Error().Err(err).Int64("post_id", postID).Msg("failed to delete post")
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.invalidate(post.OwnerID)

	metrics.PostsDeletedTotal.Inc()
	s.log.Info().Int64("post_id", postID).Int64("owner_id", post.OwnerID).Msg("post deleted")
	return nil
}

func (s *PostService) invalidate(ownerID int64) {
	s.cache.Invalidate(ownerCacheKey(ownerID))
	metrics.CacheInvalidationsTotal.Inc()
}

func clonePosts(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, len(posts))
	copy(out, posts)
	return out
}
