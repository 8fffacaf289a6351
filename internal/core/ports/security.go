package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

// PasswordHasher hashes and verifies passwords with a salted one-way function.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer signs and verifies time-limited bearer tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Verify(token string) (string, error)
}

// PostListCache holds per-owner post listings in front of the repository.
// Invalidate advances the key's generation; SetIfGeneration refuses to store
// a listing loaded before the latest invalidation.
type PostListCache interface {
	Get(key string) ([]domain.Post, bool)
	Generation(key string) uint64
	SetIfGeneration(key string, posts []domain.Post, gen uint64) bool
	Invalidate(key string)
}

// IdempotencyStore remembers which post an owner created for a given
// Idempotency-Key.
type IdempotencyStore interface {
	Lookup(ctx context.Context, ownerID int64, key string) (postID int64, found bool, err error)
	Remember(ctx context.Context, ownerID int64, key string, postID int64) error
}
