package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"authd/internal/common"
	"authd/internal/token"
)

// principalKey is the fiber.Locals key holding the verified access claims.
const principalKey = "principal"

// Error kinds returned by the gate and the auth handlers. The set is closed:
// every failure maps to exactly one of these.
const (
	kindNotAuthenticated     = "not_authenticated"
	kindTokenExpired         = "token_expired"
	kindInvalidSignature     = "invalid_signature"
	kindMalformedToken       = "malformed_token"
	kindInvalidToken         = "invalid_token"
	kindAuthenticationFailed = "authentication_failed"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// logRequests emits one structured entry per completed request.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
	}

	s.logger.Info(c.Context(), "request handled",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration_ms", time.Since(start).Milliseconds())
	return err
}

// authenticationGate protects every route except the configured exclusions.
// The request path is normalized by stripping the first matching route prefix
// before the exact-match exclusion check, so the list stays stable when the
// API is mounted under a different prefix.
func (s *Server) authenticationGate(c *fiber.Ctx) error {
	path := c.Path()
	for _, prefix := range s.cfg.RoutePrefixes {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	for _, excluded := range s.cfg.AuthExcludePaths {
		if path == excluded {
			return c.Next()
		}
	}

	raw, ok := bearerToken(c)
	if !ok {
		return unauthorized(c, kindNotAuthenticated, "No authentication token provided")
	}

	claims, err := s.verifier.ParseAccessToken(raw)
	if err != nil {
		kind, msg := classifyTokenError(err)
		return unauthorized(c, kind, msg)
	}

	if claims.TokenType != token.TypeAccess {
		return unauthorized(c, kindInvalidToken, "Invalid token")
	}
	if claims.UserID == 0 || claims.Email == "" {
		return unauthorized(c, kindInvalidToken, "Required claims missing")
	}

	c.Locals(principalKey, claims)
	return c.Next()
}

// principal returns the access claims attached by the gate. The boolean is
// false on excluded routes, where the gate never ran.
func principal(c *fiber.Ctx) (*token.Claims, bool) {
	claims, ok := c.Locals(principalKey).(*token.Claims)
	return claims, ok
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, credential, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || credential == "" {
		return "", false
	}
	return credential, true
}

func classifyTokenError(err error) (kind, message string) {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return kindTokenExpired, "Token expired"
	case errors.Is(err, common.ErrTokenSignatureInvalid):
		return kindInvalidSignature, "Invalid token signature"
	case errors.Is(err, common.ErrTokenMalformed):
		return kindMalformedToken, "Malformed token"
	case errors.Is(err, common.ErrInvalidToken):
		return kindInvalidToken, "Invalid token"
	default:
		return kindAuthenticationFailed, "Authentication failed"
	}
}

func unauthorized(c *fiber.Ctx, kind, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: kind, Message: message})
}
