package ports

import (
	"context"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	IssueSession(user *domain.User) (string, error)
}

// IdentityResolver turns a bearer token into the user it was issued for.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, bearer string) (*domain.User, error)
}
