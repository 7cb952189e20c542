package service

import (
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/serializer"
	"github.com/mdouchement/savepoint/internal/server/session"
	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"
)

type (
	// A UserService handles the user lifecycle.
	UserService interface {
		Register(params RegisterParams) (Render, error)
		Login(params LoginParams) (Render, error)
		Password(user *model.User, params UpdatePasswordParams) error
		Delete(caller, target *model.User, params DeleteUserParams) error
	}

	// RegisterParams are used to register a user.
	RegisterParams struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// LoginParams are used to login a user.
	LoginParams struct {
		Login      string `json:"login"`
		Password   string `json:"password"`
		DeviceName string `json:"device_name"`
		Location   string `json:"-"`
		IPAddress  string `json:"-"`
	}

	// UpdatePasswordParams are used to update user's password.
	UpdatePasswordParams struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	// DeleteUserParams are used to delete a user and everything it owns.
	DeleteUserParams struct {
		Password string `json:"password"`
	}

	userService struct {
		db       database.Client
		sessions session.Manager
	}
)

// NewUser returns a new UserService.
func NewUser(db database.Client, sessions session.Manager) UserService {
	return &userService{
		db:       db,
		sessions: sessions,
	}
}

func (s *userService) Register(params RegisterParams) (Render, error) {
	if params.Username == "" || params.Email == "" || params.Password == "" {
		return nil, serror.Validation("Username, email and password are mandatory.")
	}

	user := model.NewUser()
	user.Username = params.Username
	user.Email = params.Email

	var err error
	user.Password, err = argon2.GenerateFromPasswordString(params.Password, argon2.Default)
	if err != nil {
		return nil, errors.Wrap(err, "could not store user password safe")
	}

	// Uniqueness and the first-user-admin rule both depend on counts, so
	// they run in the same transaction as the insert.
	err = s.db.WithTransaction(func(tx database.Client) error {
		users := database.NewRepository[model.User](tx)

		n, err := users.Count(database.Eq("Username", params.Username))
		if err != nil {
			return err
		}
		if n > 0 {
			return serror.Conflict("This username is already registered.")
		}

		n, err = users.Count(database.Eq("Email", params.Email))
		if err != nil {
			return err
		}
		if n > 0 {
			return serror.Conflict("This email is already registered.")
		}

		n, err = users.Count()
		if err != nil {
			return err
		}
		user.Admin = n == 0

		return users.Insert(user)
	})
	if err != nil {
		return nil, err
	}

	return serializer.User(user), nil
}

func (s *userService) Login(params LoginParams) (Render, error) {
	user, err := s.lookup(params.Login)
	if err != nil {
		return nil, err
	}

	// An empty stored hash means no password was ever set. It never verifies.
	if user == nil || user.Password == "" {
		return nil, serror.Unauthorized("invalid-auth", "Invalid login credentials.")
	}

	if err = argon2.CompareHashAndPasswordString(user.Password, params.Password); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return nil, serror.Unauthorized("invalid-auth", "Invalid login credentials.")
		}
		return nil, errors.Wrap(err, "could not validate password")
	}

	sess := s.sessions.Generate(user, params.DeviceName, params.Location, params.IPAddress)
	sessions := database.NewRepository[model.Session](s.db)
	if err = sessions.InsertWithRetry(sess); err != nil {
		return nil, errors.Wrap(err, "could not persist session")
	}

	claim, expiration, err := s.sessions.SignClaim(user, sess)
	if err != nil {
		return nil, err
	}

	return serializer.Tokens(user, sess, claim, expiration), nil
}

func (s *userService) Password(user *model.User, params UpdatePasswordParams) error {
	if params.NewPassword == "" {
		return serror.Validation("New password is mandatory.")
	}

	if err := argon2.CompareHashAndPasswordString(user.Password, params.CurrentPassword); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return serror.Unauthorized("invalid-auth", "The current password you entered is incorrect.")
		}
		return errors.Wrap(err, "could not validate password")
	}

	hash, err := argon2.GenerateFromPasswordString(params.NewPassword, argon2.Default)
	if err != nil {
		return errors.Wrap(err, "could not store user password safe")
	}

	users := database.NewRepository[model.User](s.db)
	return users.UpdateField(user.GetID(), "Password", hash)
}

// Delete removes the target user and everything it owns. Sessions, profiles
// and saves go away with it, atomically. The caller confirms the operation
// with its own password.
func (s *userService) Delete(caller, target *model.User, params DeleteUserParams) error {
	if err := argon2.CompareHashAndPasswordString(caller.Password, params.Password); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return serror.Unauthorized("invalid-auth", "Invalid login credentials.")
		}
		return errors.Wrap(err, "could not validate password")
	}

	return s.db.WithTransaction(func(tx database.Client) error {
		owned := database.Eq("UserID", target.GetID())

		if err := database.NewRepository[model.Save](tx).DeleteAll(owned); err != nil {
			return err
		}
		if err := database.NewRepository[model.Profile](tx).DeleteAll(owned); err != nil {
			return err
		}
		if err := database.NewRepository[model.Session](tx).DeleteAll(owned); err != nil {
			return err
		}
		return database.NewRepository[model.User](tx).Delete(target.GetID())
	})
}

// lookup implements the login resolution order, email first then username.
// It returns a nil user when neither matches.
func (s *userService) lookup(login string) (*model.User, error) {
	users := database.NewRepository[model.User](s.db)

	user, err := users.First(database.Eq("Email", login))
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	return users.First(database.Eq("Username", login))
}
