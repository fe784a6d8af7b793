// Package httpapi is the HTTP boundary of the authd server: route
// registration, request/response mapping, the refresh cookie, and the
// authentication gate in front of protected routes.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"authd/internal/config"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/services"
	"authd/internal/token"
)

// AuthService is the surface of the business layer consumed by the handlers.
type AuthService interface {
	Login(ctx context.Context, email, password, userAgent string) (*services.TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken, userAgent string) (*services.TokenPair, error)
	Logout(ctx context.Context, accessToken, userAgent string) error
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// TokenVerifier verifies bearer tokens for the authentication gate.
type TokenVerifier interface {
	ParseAccessToken(raw string) (*token.Claims, error)
}

// Server wires the fiber app, the business service, and the gate together.
type Server struct {
	app      *fiber.App
	service  AuthService
	verifier TokenVerifier
	cfg      *config.Config
	logger   logging.Logger
}

func NewServer(svc AuthService, verifier TokenVerifier, cfg *config.Config, logger logging.Logger) *Server {
	s := &Server{
		service:  svc,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Use(s.logRequests)

	s.app.Get("/health", s.health)

	s.app.Use(s.authenticationGate)

	api := s.app.Group("/api/v1")
	users := api.Group("/users")
	users.Post("/login", s.login)
	users.Post("/refresh-token", s.refreshToken)
	users.Post("/logout", s.logout)
	users.Get("/me", s.me)
	users.Post("/", s.register)
	users.Get("/", s.listUsers)
}

// App exposes the underlying fiber app, mainly for tests via app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.EndpointAddr)
}

// Shutdown gracefully drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
