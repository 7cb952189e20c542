package service

import (
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
)

type (
	// A GameService handles the game metadata lifecycle, notably the
	// cascade rules around deletion.
	GameService interface {
		Delete(id string, params DeleteGameParams) error
	}

	// DeleteGameParams select the cascade policy applied to the dependents
	// of the deleted game. When neither option is set, the delete succeeds
	// only when the game has no dependents.
	DeleteGameParams struct {
		ReplaceWithParent bool `query:"replace_with_parent"`
		AllowBreak        bool `query:"allow_break"`
	}

	gameService struct {
		db database.Client
	}
)

// NewGame returns a new GameService.
func NewGame(db database.Client) GameService {
	return &gameService{db: db}
}

func (s *gameService) Delete(id string, params DeleteGameParams) error {
	return s.db.WithTransaction(func(tx database.Client) error {
		games := database.NewRepository[model.GameMeta](tx)
		hashes := database.NewRepository[model.GameHash](tx)

		game, err := games.Get(id)
		if err != nil {
			return err
		}
		if game == nil {
			return serror.NotFound("Game not found.")
		}

		children := database.Eq("BaseGameID", id)
		dependents := database.Eq("GameMetaID", id)

		switch {
		case params.ReplaceWithParent:
			// Dependents are handed over to the deleted node's own parent,
			// which can be empty when the node was a root.
			if _, err = games.UpdateFieldAll("BaseGameID", game.BaseGameID, children); err != nil {
				return err
			}
			if _, err = hashes.UpdateFieldAll("GameMetaID", game.BaseGameID, dependents); err != nil {
				return err
			}
		case params.AllowBreak:
			if _, err = games.UpdateFieldAll("BaseGameID", "", children); err != nil {
				return err
			}
			if _, err = hashes.UpdateFieldAll("GameMetaID", "", dependents); err != nil {
				return err
			}
		default:
			n, err := games.Count(children)
			if err != nil {
				return err
			}
			if n == 0 {
				if n, err = hashes.Count(dependents); err != nil {
					return err
				}
			}
			if n > 0 {
				return serror.Forbidden("This game still has dependents. Use replace_with_parent or allow_break.")
			}
		}

		return games.Delete(id)
	})
}
