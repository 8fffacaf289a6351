// Package app wires configuration, storage, services and the HTTP router
// into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/postbox/internal/api"
	"github.com/sirpyerre/postbox/internal/core/domain"
	"github.com/sirpyerre/postbox/internal/core/service"
	"github.com/sirpyerre/postbox/internal/pkg/cache"
	"github.com/sirpyerre/postbox/internal/pkg/config"
	"github.com/sirpyerre/postbox/internal/pkg/password"
	"github.com/sirpyerre/postbox/internal/pkg/token"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	storage *storage
	cache   *cache.Cache[[]domain.Post]

	Auth  *service.AuthService
	Posts *service.PostService
}

// New connects to the configured backends and builds the services.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm)
	if err != nil {
		_ = store.close(ctx)
		return nil, fmt.Errorf("token service: %w", err)
	}

	postCache := cache.New[[]domain.Post](cfg.CacheTTL())

	return &App{
		cfg:     cfg,
		log:     log,
		storage: store,
		cache:   postCache,
		Auth: service.NewAuthService(
			store.users,
			password.NewHasher(cfg.Auth.BcryptCost),
			tokens,
			cfg.TokenTTL(),
			log.With().Str("component", "auth").Logger(),
		),
		Posts: service.NewPostService(
			store.posts,
			postCache,
			store.idempotency,
			log.With().Str("component", "posts").Logger(),
		),
	}, nil
}

// Router builds the HTTP handler for this App.
func (a *App) Router() *echo.Echo {
	return api.NewRouter(api.Dependencies{
		Log:              a.log,
		Auth:             a.Auth,
		Identity:         a.Auth,
		Posts:            a.Posts,
		Checks:           a.storage.checks,
		MaxPostSizeBytes: a.cfg.HTTP.MaxPostSizeBytes,
		CORSAllowOrigins: a.cfg.HTTP.CORSAllowOrigins,
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	e := a.Router()
	addr := ":" + a.cfg.Port

	go a.purgeExpired(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("backend", a.cfg.Backend).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// purgeExpired drops expired listings once per cache TTL so owners that
// stop reading do not keep their entries in memory.
func (a *App) purgeExpired(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.CacheTTL())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.cache.Purge(); n > 0 {
				a.log.Debug().Int("purged", n).Msg("expired post listings dropped")
			}
		}
	}
}

// Close releases storage connections.
func (a *App) Close(ctx context.Context) error {
	return a.storage.close(ctx)
}
