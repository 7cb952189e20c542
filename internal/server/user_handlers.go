package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/serializer"
	"github.com/mdouchement/savepoint/internal/server/service"
	"github.com/pkg/errors"
)

type (
	usr struct {
		db      database.Client
		service service.UserService
	}

	updateUserParams struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Admin    *bool  `json:"admin"`
	}
)

// Show renders the public projection of a user, self or admin only.
func (h *usr) Show(c echo.Context) error {
	user, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializer.User(user))
}

// Update updates a user, self or admin only. The admin flag can only be
// changed by a live admin, not by a stale claim snapshot.
func (h *usr) Update(c echo.Context) error {
	user, err := h.resolve(c)
	if err != nil {
		return err
	}

	var params updateUserParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}

	err = h.db.WithTransaction(func(tx database.Client) error {
		users := database.NewRepository[model.User](tx)

		if params.Username != "" && params.Username != user.Username {
			n, err := users.Count(database.Eq("Username", params.Username))
			if err != nil {
				return err
			}
			if n > 0 {
				return serror.Conflict("This username is already registered.")
			}
			user.Username = params.Username
		}

		if params.Email != "" && params.Email != user.Email {
			n, err := users.Count(database.Eq("Email", params.Email))
			if err != nil {
				return err
			}
			if n > 0 {
				return serror.Conflict("This email is already registered.")
			}
			user.Email = params.Email
		}

		if params.Admin != nil && *params.Admin != user.Admin {
			caller, err := currentUser(c, tx)
			if err != nil {
				return err
			}
			if !caller.Admin {
				return serror.Forbidden("Administrator privileges required.")
			}
			user.Admin = *params.Admin
		}

		return users.Update(user)
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, serializer.User(user))
}

// Password updates the current user's password.
func (h *usr) Password(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	var params service.UpdatePasswordParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}

	if err = h.service.Password(user, params); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a user and everything it owns, self or admin only.
// The account password is required to confirm the operation.
func (h *usr) Delete(c echo.Context) error {
	target, err := h.resolve(c)
	if err != nil {
		return err
	}
	caller, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	var params service.DeleteUserParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}

	if err = h.service.Delete(caller, target, params); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// resolve loads the targeted user, enforcing the self-or-admin rule.
// Without a path identifier the target is the caller itself.
func (h *usr) resolve(c echo.Context) (*model.User, error) {
	claims := currentClaims(c)

	id := c.Param("id")
	if id == "" || id == claims.UserID {
		return currentUser(c, h.db)
	}

	if !claims.Admin {
		return nil, serror.Forbidden("Administrator privileges required.")
	}

	users := database.NewRepository[model.User](h.db)
	user, err := users.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "could not get user")
	}
	if user == nil {
		return nil, serror.NotFound("User not found.")
	}
	return user, nil
}
