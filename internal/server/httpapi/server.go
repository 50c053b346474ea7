// Package httpapi is the HTTP transport: a thin gin router over the user
// and session services. All authorization decisions live in the services;
// handlers only translate between JSON and service calls.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hermesapp/auth-service/internal/logging"
	"github.com/hermesapp/auth-service/internal/server/models"
	"github.com/hermesapp/auth-service/internal/server/services"
)

// Identity is the slice of the user service the transport needs.
type Identity interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

// Sessions is the slice of the session service the transport needs.
type Sessions interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, raw string) (*services.TokenPair, error)
	Logout(ctx context.Context, raw string) error
	LogoutEverywhere(ctx context.Context, raw string) (int, error)
	VerifyAccess(ctx context.Context, raw string) (*models.User, error)
}

type Server struct {
	address  string
	identity Identity
	sessions Sessions
	logger   logging.Logger
}

func NewServer(address string, logger logging.Logger, identity Identity, sessions Sessions) (*Server, error) {
	return &Server{
		address:  address,
		identity: identity,
		sessions: sessions,
		logger:   logger.With("module", "http_server"),
	}, nil
}

// Router builds the gin engine with all routes attached. Exposed separately
// from Run so tests can drive it with httptest.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)

	api := r.Group("/api/v1")
	ag := api.Group("/auth")
	ag.POST("/register", s.register)
	ag.POST("/login", s.login)
	ag.POST("/refresh", s.refresh)
	ag.POST("/logout", s.logout)
	ag.POST("/logout-all", s.logoutAll)

	api.GET("/users/me", s.requireAccessToken(), s.me)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
