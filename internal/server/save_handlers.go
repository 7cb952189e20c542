package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/pkg/errors"
)

type save struct {
	db database.Client
}

// List renders a page of the caller's saves. Admins can list another
// user's saves through user_id_search.
func (h *save) List(c echo.Context) error {
	claims := currentClaims(c)
	params := c.QueryParams()

	page, err := database.SaveQuery.PageInfo(params)
	if err != nil {
		return serror.Validation(err.Error())
	}
	matchers, err := database.SaveQuery.Matchers(params)
	if err != nil {
		return serror.Validation(err.Error())
	}

	if id := params.Get("user_id_search"); id != "" {
		if id != claims.UserID && !claims.Admin {
			return serror.Forbidden("Administrator privileges required.")
		}
	} else {
		matchers = append(matchers, database.Eq("UserID", claims.UserID))
	}

	saves, err := database.NewRepository[model.Save](h.db).
		FetchPaged(page, matchers...)
	if err != nil {
		return errors.Wrap(err, "could not get saves")
	}

	return c.JSON(http.StatusOK, saves)
}

// Create records the metadata of an uploaded save.
func (h *save) Create(c echo.Context) error {
	claims := currentClaims(c)

	var record model.Save
	if err := c.Bind(&record); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if record.GameID == "" || record.ProfileID == "" || record.URL == "" {
		return serror.Validation("game_uuid, profile_uuid and url are mandatory.")
	}
	record.UserID = claims.UserID

	profile, err := database.NewRepository[model.Profile](h.db).Get(record.ProfileID)
	if err != nil {
		return errors.Wrap(err, "could not get profile")
	}
	if profile == nil || profile.UserID != claims.UserID {
		return serror.NotFound("Profile not found.")
	}

	game, err := database.NewRepository[model.GameMeta](h.db).Get(record.GameID)
	if err != nil {
		return errors.Wrap(err, "could not get game")
	}
	if game == nil {
		return serror.NotFound("Game not found.")
	}

	if err = database.NewRepository[model.Save](h.db).InsertWithRetry(&record); err != nil {
		return errors.Wrap(err, "could not persist save")
	}
	return c.JSON(http.StatusCreated, record)
}

// Show renders a save, owner or admin only.
func (h *save) Show(c echo.Context) error {
	record, err := h.resolve(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Delete removes a save, owner or admin only.
func (h *save) Delete(c echo.Context) error {
	record, err := h.resolve(c)
	if err != nil {
		return err
	}

	if err = database.NewRepository[model.Save](h.db).Delete(record.ID); err != nil {
		return errors.Wrap(err, "could not delete save")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll removes the caller's saves matching the given search filters.
func (h *save) DeleteAll(c echo.Context) error {
	claims := currentClaims(c)

	params := c.QueryParams()
	matchers, err := database.SaveQuery.Matchers(params)
	if err != nil {
		return serror.Validation(err.Error())
	}
	if id := params.Get("user_id_search"); id != "" {
		if id != claims.UserID && !claims.Admin {
			return serror.Forbidden("Administrator privileges required.")
		}
	} else {
		matchers = append(matchers, database.Eq("UserID", claims.UserID))
	}

	if err = database.NewRepository[model.Save](h.db).DeleteAll(matchers...); err != nil {
		return errors.Wrap(err, "could not delete saves")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *save) resolve(c echo.Context) (*model.Save, error) {
	claims := currentClaims(c)

	record, err := database.NewRepository[model.Save](h.db).Get(c.Param("id"))
	if err != nil {
		return nil, errors.Wrap(err, "could not get save")
	}
	if record == nil {
		return nil, serror.NotFound("Save not found.")
	}
	if record.UserID != claims.UserID && !claims.Admin {
		return nil, serror.Forbidden("Administrator privileges required.")
	}
	return record, nil
}
