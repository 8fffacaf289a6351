package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/postbox/internal/core/domain"
	"github.com/sirpyerre/postbox/internal/core/ports"
	"github.com/sirpyerre/postbox/internal/infrastructure/metrics"
)

// AuthService implements registration, login and token resolution.
type AuthService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	tokenTTL time.Duration
	log      zerolog.Logger

	// dummyHash is verified against when the email is unknown so a failed
	// login costs the same hashing work whether or not the account exists.
	dummyHash string
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	dummy, err := hasher.Hash("postbox-unknown-account")
	if err != nil {
		log.Warn().Err(err).Msg("could not prepare dummy password hash")
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		log:       log,
		dummyHash: dummy,
	}
}

// Register creates an account for email. The email is matched exactly as given.
func (s *AuthService) Register(ctx context.Context, email, plaintext string) (*domain.User, error) {
	if email == "" || plaintext == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.log.Info().Int64("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Authenticate returns the user for email if plaintext matches its stored
// hash. Unknown email and wrong password yield the same error.
func (s *AuthService) Authenticate(ctx context.Context, email, plaintext string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(plaintext, s.dummyHash)
			metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
			return nil, domain.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, domain.ErrAuthenticationFailed
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return user, nil
}

// IssueSession returns a bearer token whose subject is the user's ID.
func (s *AuthService) IssueSession(user *domain.User) (string, error) {
	tkn, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10), s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return tkn, nil
}

// ResolveUser verifies bearer and loads the user it names. Every failure,
// including a subject that no longer exists, is reported as
// domain.ErrUnauthenticated; store outages keep their own error.
func (s *AuthService) ResolveUser(ctx context.Context, bearer string) (*domain.User, error) {
	subject, err := s.tokens.Verify(bearer)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account and, by cascade, every post it owns. It is
// reachable only from the admin CLI.
func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}
