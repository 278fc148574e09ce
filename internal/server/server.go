// Package server exposes the host's admin HTTP surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/blefrag/internal/auth"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Admin serves health, metrics and stream inspection for one host.
type Admin struct {
	host      *gatt.Host
	logger    zerolog.Logger
	router    *gin.Engine
	validator auth.Validator
	startedAt time.Time
}

type AdminOption func(*Admin)

// WithValidator requires a bearer token on mutating routes.
func WithValidator(v auth.Validator) AdminOption {
	return func(a *Admin) {
		a.validator = v
	}
}

func NewAdmin(host *gatt.Host, logger zerolog.Logger, opts ...AdminOption) *Admin {
	gin.SetMode(gin.ReleaseMode)
	a := &Admin{
		host:      host,
		logger:    logger,
		router:    gin.New(),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.validator == nil {
		logger.Warn().Msg("admin API has no token; mutating routes are unguarded")
	}
	a.router.Use(gin.Recovery())
	a.router.Use(observability.AdminRequestLogger(logger, host.Config().Name))
	a.router.Use(observability.AdminRequestMetrics(host.Config().Name))
	a.registerRoutes()
	return a
}

func (a *Admin) Handler() http.Handler {
	return a.router
}

func (a *Admin) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.validator == nil {
			c.Next()
			return
		}
		token, _ := auth.BearerToken(c.GetHeader("Authorization"))
		if err := a.validator.Validate(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (a *Admin) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("admin listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
