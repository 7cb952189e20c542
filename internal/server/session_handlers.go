package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/serializer"
	sessionpkg "github.com/mdouchement/savepoint/internal/server/session"
	"github.com/pkg/errors"
)

type sess struct {
	db       database.Client
	sessions sessionpkg.Manager
}

// List lists all active sessions of the current user, current one flagged.
func (h *sess) List(c echo.Context) error {
	claims := currentClaims(c)

	repository := database.NewRepository[model.Session](h.db)
	sessions, err := repository.Fetch(
		database.Eq("UserID", claims.UserID),
		database.Gt("ExpireAt", time.Now()),
	)
	if err != nil {
		return errors.Wrap(err, "could not get active sessions")
	}

	for _, s := range sessions {
		if s.ID == claims.SessionID {
			s.Current = true
			break
		}
	}

	return c.JSON(http.StatusOK, serializer.Sessions(sessions))
}

// Logout terminates the current session.
func (h *sess) Logout(c echo.Context) error {
	if err := h.sessions.Revoke(currentClaims(c).SessionID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete terminates the specified session. The current one is protected,
// logout is the way to close it.
func (h *sess) Delete(c echo.Context) error {
	claims := currentClaims(c)

	id := c.Param("id")
	if id == "" {
		return serror.Validation("Please provide the session identifier.")
	}
	if id == claims.SessionID {
		return serror.Validation("You can not delete your current session.")
	}

	repository := database.NewRepository[model.Session](h.db)
	session, err := repository.Get(id)
	if err != nil {
		return errors.Wrap(err, "could not get user session")
	}
	if session == nil || session.UserID != claims.UserID {
		return serror.NotFound("No session exists with the provided identifier.")
	}

	if err = h.sessions.Revoke(session.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll terminates all sessions of the current user, except the
// current one.
func (h *sess) DeleteAll(c echo.Context) error {
	claims := currentClaims(c)

	repository := database.NewRepository[model.Session](h.db)
	err := repository.DeleteAll(
		database.Eq("UserID", claims.UserID),
		database.Not(database.Eq("ID", claims.SessionID)),
	)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
