package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/service"
	"github.com/pkg/errors"
)

type game struct {
	db      database.Client
	service service.GameService
}

// List renders a page of games. Field searches are ANDed and base_games=1
// restricts the listing to games without a parent.
func (h *game) List(c echo.Context) error {
	params := c.QueryParams()

	page, err := database.GameQuery.PageInfo(params)
	if err != nil {
		return serror.Validation(err.Error())
	}
	matchers, err := database.GameQuery.Matchers(params)
	if err != nil {
		return serror.Validation(err.Error())
	}
	if params.Get("base_games") == "1" {
		matchers = append(matchers, database.Eq("BaseGameID", ""))
	}

	games, err := database.NewRepository[model.GameMeta](h.db).
		FetchPaged(page, matchers...)
	if err != nil {
		return errors.Wrap(err, "could not get games")
	}

	return c.JSON(http.StatusOK, games)
}

// Show renders a game.
func (h *game) Show(c echo.Context) error {
	record, err := database.NewRepository[model.GameMeta](h.db).Get(c.Param("id"))
	if err != nil {
		return errors.Wrap(err, "could not get game")
	}
	if record == nil {
		return serror.NotFound("Game not found.")
	}
	return c.JSON(http.StatusOK, record)
}

// Create creates a game.
func (h *game) Create(c echo.Context) error {
	var record model.GameMeta
	if err := c.Bind(&record); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if record.Name == "" {
		return serror.Validation("Name is mandatory.")
	}

	if err := database.NewRepository[model.GameMeta](h.db).InsertWithRetry(&record); err != nil {
		return errors.Wrap(err, "could not persist game")
	}
	return c.JSON(http.StatusCreated, record)
}

// Update updates a game.
func (h *game) Update(c echo.Context) error {
	games := database.NewRepository[model.GameMeta](h.db)

	record, err := games.Get(c.Param("id"))
	if err != nil {
		return errors.Wrap(err, "could not get game")
	}
	if record == nil {
		return serror.NotFound("Game not found.")
	}

	if err = c.Bind(record); err != nil {
		return serror.Validation("Invalid request body.")
	}
	record.ID = c.Param("id") // the identifier is not updatable

	if err = games.Update(record); err != nil {
		return errors.Wrap(err, "could not persist game")
	}
	return c.JSON(http.StatusOK, record)
}

// Delete removes a game, honoring the cascade policy options.
func (h *game) Delete(c echo.Context) error {
	var params service.DeleteGameParams
	if err := c.Bind(&params); err != nil {
		return serror.Validation("Invalid request parameters.")
	}

	if err := h.service.Delete(c.Param("id"), params); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListHashes renders a page of known executable hashes.
func (h *game) ListHashes(c echo.Context) error {
	params := c.QueryParams()

	page, err := database.GameHashQuery.PageInfo(params)
	if err != nil {
		return serror.Validation(err.Error())
	}
	matchers, err := database.GameHashQuery.Matchers(params)
	if err != nil {
		return serror.Validation(err.Error())
	}

	hashes, err := database.NewRepository[model.GameHash](h.db).
		FetchPaged(page, matchers...)
	if err != nil {
		return errors.Wrap(err, "could not get game hashes")
	}

	return c.JSON(http.StatusOK, hashes)
}

// CreateHash maps an executable hash to a game.
func (h *game) CreateHash(c echo.Context) error {
	var record model.GameHash
	if err := c.Bind(&record); err != nil {
		return serror.Validation("Invalid request body.")
	}
	if record.XXHash64 == "" {
		return serror.Validation("xxhash64 is mandatory.")
	}

	if record.GameMetaID != "" {
		game, err := database.NewRepository[model.GameMeta](h.db).Get(record.GameMetaID)
		if err != nil {
			return errors.Wrap(err, "could not get game")
		}
		if game == nil {
			return serror.NotFound("Game not found.")
		}
	}

	if err := database.NewRepository[model.GameHash](h.db).InsertWithRetry(&record); err != nil {
		return errors.Wrap(err, "could not persist game hash")
	}
	return c.JSON(http.StatusCreated, record)
}

// DeleteHash removes an executable hash mapping.
func (h *game) DeleteHash(c echo.Context) error {
	if err := database.NewRepository[model.GameHash](h.db).Delete(c.Param("id")); err != nil {
		return errors.Wrap(err, "could not delete game hash")
	}
	return c.NoContent(http.StatusNoContent)
}
