package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/pkg/errors"
)

const maxProfileNameLength = 32

type (
	profile struct {
		db database.Client
	}

	profileParams struct {
		Name string `json:"name"`
	}
)

// List lists the profiles of a user, self or admin only.
func (h *profile) List(c echo.Context) error {
	claims := currentClaims(c)

	id := c.Param("id")
	if id != claims.UserID && !claims.Admin {
		return serror.Forbidden("Administrator privileges required.")
	}

	profiles, err := database.NewRepository[model.Profile](h.db).
		Fetch(database.Eq("UserID", id))
	if err != nil {
		return errors.Wrap(err, "could not get profiles")
	}

	return c.JSON(http.StatusOK, profiles)
}

// Create creates a profile owned by the current user.
func (h *profile) Create(c echo.Context) error {
	var params profileParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if err := validateProfileName(params.Name); err != nil {
		return err
	}

	record := &model.Profile{
		UserID: currentClaims(c).UserID,
		Name:   params.Name,
	}
	if err := database.NewRepository[model.Profile](h.db).InsertWithRetry(record); err != nil {
		return errors.Wrap(err, "could not persist profile")
	}

	return c.JSON(http.StatusCreated, record)
}

// Show renders a profile, owner or admin only.
func (h *profile) Show(c echo.Context) error {
	record, err := h.resolve(c, h.db)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Update renames a profile, owner or admin only.
func (h *profile) Update(c echo.Context) error {
	record, err := h.resolve(c, h.db)
	if err != nil {
		return err
	}

	var params profileParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if err := validateProfileName(params.Name); err != nil {
		return err
	}

	record.Name = params.Name
	if err := database.NewRepository[model.Profile](h.db).Update(record); err != nil {
		return errors.Wrap(err, "could not persist profile")
	}

	return c.JSON(http.StatusOK, record)
}

// Delete removes a profile, owner or admin only.
// A profile still referenced by saves can not be removed.
func (h *profile) Delete(c echo.Context) error {
	err := h.db.WithTransaction(func(tx database.Client) error {
		record, err := h.resolve(c, tx)
		if err != nil {
			return err
		}

		n, err := database.NewRepository[model.Save](tx).
			Count(database.Eq("ProfileID", record.ID))
		if err != nil {
			return err
		}
		if n > 0 {
			return serror.Forbidden("This profile still has saves.")
		}

		return database.NewRepository[model.Profile](tx).Delete(record.ID)
	})
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *profile) resolve(c echo.Context, db database.Client) (*model.Profile, error) {
	claims := currentClaims(c)

	record, err := database.NewRepository[model.Profile](db).Get(c.Param("id"))
	if err != nil {
		return nil, errors.Wrap(err, "could not get profile")
	}
	if record == nil {
		return nil, serror.NotFound("Profile not found.")
	}
	if record.UserID != claims.UserID && !claims.Admin {
		return nil, serror.Forbidden("Administrator privileges required.")
	}
	return record, nil
}

func validateProfileName(name string) error {
	if name == "" {
		return serror.Validation("Name is mandatory.")
	}
	if len(name) > maxProfileNameLength {
		return serror.Validation("Name is too long.")
	}
	return nil
}
