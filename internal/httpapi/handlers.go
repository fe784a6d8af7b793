package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"authd/internal/common"
	"authd/internal/config"
	"authd/internal/models"
	"authd/internal/services"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type registerRequest struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int64  `json:"expires_in"`
	IssuedAt              int64  `json:"issued_at"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	RefreshTokenIssuedAt  int64  `json:"refresh_token_issued_at"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type userListResponse struct {
	Users []userResponse `json:"users"`
	Total int64          `json:"total"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newTokenResponse(pair *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             pair.TokenType,
		ExpiresIn:             pair.AccessTokenExpiresIn,
		IssuedAt:              pair.AccessTokenIssuedAt.Unix(),
		RefreshTokenExpiresIn: pair.RefreshTokenExpiresIn,
		RefreshTokenIssuedAt:  pair.RefreshTokenIssuedAt.Unix(),
	}
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// login accepts JSON or form bodies. The form variant uses the "username"
// field, so both spellings are honored.
func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: kindAuthenticationFailed, Message: "Invalid request body",
		})
	}

	email := req.Email
	if email == "" {
		email = req.Username
	}

	pair, _, err := s.service.Login(c.Context(), email, req.Password, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound),
			errors.Is(err, common.ErrInvalidPassword),
			errors.Is(err, common.ErrInactiveUser):
			// never reveal which check failed, or that the account exists
			return unauthorized(c, kindAuthenticationFailed, "Invalid login credentials")
		default:
			return s.internalError(c, "login failed", err)
		}
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(newTokenResponse(pair))
}

func (s *Server) refreshToken(c *fiber.Ctx) error {
	raw := c.Cookies(s.cfg.RefreshTokenCookieName)
	if raw == "" {
		return unauthorized(c, kindNotAuthenticated, "No refresh token provided")
	}

	pair, err := s.service.Refresh(c.Context(), raw, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			s.clearRefreshCookie(c)
			return unauthorized(c, kindInvalidToken, "Invalid token")
		case errors.Is(err, common.ErrInactiveUser):
			s.clearRefreshCookie(c)
			return unauthorized(c, kindAuthenticationFailed, "Inactive user")
		default:
			return s.internalError(c, "token refresh failed", err)
		}
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(newTokenResponse(pair))
}

// logout requires a bearer token even though the route is excluded from the
// gate: the service needs the verified claims to know whose sessions to drop.
func (s *Server) logout(c *fiber.Ctx) error {
	raw, ok := bearerToken(c)
	if !ok {
		return unauthorized(c, kindNotAuthenticated, "No or invalid token provided")
	}

	if err := s.service.Logout(c.Context(), raw, c.Get(fiber.HeaderUserAgent)); err != nil {
		kind, msg := classifyTokenError(err)
		if kind == kindAuthenticationFailed {
			return s.internalError(c, "logout failed", err)
		}
		return unauthorized(c, kind, msg)
	}

	s.clearRefreshCookie(c)
	return c.JSON(messageResponse{Message: "Successfully logged out"})
}

func (s *Server) me(c *fiber.Ctx) error {
	claims, ok := principal(c)
	if !ok {
		return unauthorized(c, kindNotAuthenticated, "No authentication token provided")
	}

	user, err := s.service.GetUserByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{
				Error: "not_found", Message: "User not found",
			})
		}
		return s.internalError(c, "profile lookup failed", err)
	}

	return c.JSON(newUserResponse(user))
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "bad_request", Message: "Invalid request body",
		})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "bad_request", Message: "Email and password are required",
		})
	}

	user, err := s.service.Register(c.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(errorResponse{
				Error: "conflict", Message: "User already exists",
			})
		}
		return s.internalError(c, "registration failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	list, err := s.service.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return s.internalError(c, "user listing failed", err)
	}
	total, err := s.service.CountUsers(c.Context())
	if err != nil {
		return s.internalError(c, "user count failed", err)
	}

	resp := userListResponse{Users: make([]userResponse, 0, len(list)), Total: total}
	for _, u := range list {
		resp.Users = append(resp.Users, newUserResponse(u))
	}
	return c.JSON(resp)
}

// setRefreshCookie scopes the refresh token to the single endpoint that
// consumes it. Secure is on only in prod so local HTTP development works.
func (s *Server) setRefreshCookie(c *fiber.Ctx, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.RefreshTokenCookieName,
		Value:    refreshToken,
		Path:     s.cfg.RefreshTokenPath,
		MaxAge:   int(s.cfg.RefreshTokenValidityDuration.Seconds()),
		HTTPOnly: true,
		Secure:   s.cfg.Environment == config.EnvironmentProd,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.RefreshTokenCookieName,
		Value:    "",
		Path:     s.cfg.RefreshTokenPath,
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   s.cfg.Environment == config.EnvironmentProd,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (s *Server) internalError(c *fiber.Ctx, msg string, err error) error {
	s.logger.Error(c.Context(), msg, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
		Error: "internal_error", Message: "Internal server error",
	})
}
