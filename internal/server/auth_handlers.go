package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/service"
	sessionpkg "github.com/mdouchement/savepoint/internal/server/session"
)

type (
	auth struct {
		service  service.UserService
		sessions sessionpkg.Manager
	}

	refreshParams struct {
		RefreshToken string `json:"refresh_token"`
	}
)

// Register creates a new user.
func (h *auth) Register(c echo.Context) error {
	var params service.RegisterParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}

	render, err := h.service.Register(params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, render)
}

// Login authenticates a user and opens a new session.
func (h *auth) Login(c echo.Context) error {
	var params service.LoginParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if params.Login == "" || params.Password == "" {
		return serror.Validation("Please provide all required parameters.")
	}
	params.IPAddress = c.RealIP()
	params.Location = c.Request().Header.Get("User-Agent")

	render, err := h.service.Login(params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Refresh exchanges a genuine claim and its refresh token against a fresh
// pair. The claim may be expired; its signature still has to verify.
func (h *auth) Refresh(c echo.Context) error {
	var params refreshParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if params.RefreshToken == "" {
		return serror.Validation("Please provide all required parameters.")
	}

	claim := bearer(c)
	if claim == "" {
		return serror.Unauthorized("invalid-auth", "Invalid login credentials.")
	}

	session, signed, expiration, err := h.sessions.Refresh(claim, params.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"session": echo.Map{
			"claim":            signed,
			"refresh_token":    session.RefreshToken,
			"claim_expiration": expiration.UTC(),
			"expire_at":        session.ExpireAt.UTC(),
		},
	})
}

func bearer(c echo.Context) string {
	authorization := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(authorization) > len(prefix) && authorization[:len(prefix)] == prefix {
		return authorization[len(prefix):]
	}
	return ""
}
