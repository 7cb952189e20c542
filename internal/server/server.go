package server

import (
	"crypto/ed25519"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/middlewares"
	"github.com/mdouchement/savepoint/internal/server/service"
	"github.com/mdouchement/savepoint/internal/server/session"
	"github.com/pkg/errors"
)

// An IOC is an Inversion Of Control pattern used to init the server package.
type IOC struct {
	Version        string
	Database       database.Client
	NoRegistration bool
	// Claim params
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	// Session params
	ClaimExpirationTime        time.Duration
	RefreshTokenExpirationTime time.Duration
}

// EchoEngine instantiates the web server.
func EchoEngine(ctrl IOC) *echo.Echo {
	engine := echo.New()
	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${uri} (${bytes_in}) ${latency_human}\n",
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler

	engine.Pre(middleware.Rewrite(map[string]string{
		"/": "/version",
	}))

	////////////
	// Router //
	////////////

	sessions := session.NewManager(
		ctrl.Database,
		ctrl.PrivateKey,
		ctrl.PublicKey,
		ctrl.ClaimExpirationTime,
		ctrl.RefreshTokenExpirationTime,
	)

	router := engine.Group("/api/v1")
	restricted := router.Group("")
	restricted.Use(middlewares.Claims(sessions))
	admin := restricted.Group("")
	admin.Use(middlewares.AdminOnly())

	// generic handlers
	//
	engine.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})

	//
	// auth handlers
	//
	auth := &auth{
		service:  service.NewUser(ctrl.Database, sessions),
		sessions: sessions,
	}
	if !ctrl.NoRegistration {
		router.POST("/register", auth.Register)
	}
	router.POST("/login", auth.Login)
	// Refresh works with an expired claim so it bypasses the claims middleware.
	router.POST("/refresh", auth.Refresh)

	//
	// session handlers
	//
	sess := &sess{
		db:       ctrl.Database,
		sessions: sessions,
	}
	restricted.GET("/sessions", sess.List)
	restricted.DELETE("/session", sess.Logout)
	restricted.DELETE("/session/all", sess.DeleteAll)
	restricted.DELETE("/session/:id", sess.Delete)

	//
	// user handlers
	//
	user := &usr{
		db:      ctrl.Database,
		service: service.NewUser(ctrl.Database, sessions),
	}
	restricted.GET("/user", user.Show)
	restricted.GET("/user/:id", user.Show)
	restricted.PUT("/user", user.Update)
	restricted.PUT("/user/:id", user.Update)
	restricted.PUT("/user/password", user.Password)
	restricted.DELETE("/user", user.Delete)
	restricted.DELETE("/user/:id", user.Delete)

	//
	// profile handlers
	//
	profile := &profile{
		db: ctrl.Database,
	}
	restricted.GET("/user/:id/profiles", profile.List)
	restricted.POST("/profiles", profile.Create)
	restricted.GET("/profiles/:id", profile.Show)
	restricted.PUT("/profiles/:id", profile.Update)
	restricted.DELETE("/profiles/:id", profile.Delete)

	//
	// game handlers
	//
	game := &game{
		db:      ctrl.Database,
		service: service.NewGame(ctrl.Database),
	}
	restricted.GET("/games", game.List)
	restricted.GET("/games/:id", game.Show)
	admin.POST("/games", game.Create)
	admin.PUT("/games/:id", game.Update)
	admin.DELETE("/games/:id", game.Delete)
	restricted.GET("/gamehashes", game.ListHashes)
	admin.POST("/gamehashes", game.CreateHash)
	admin.DELETE("/gamehashes/:id", game.DeleteHash)

	//
	// save handlers
	//
	save := &save{
		db: ctrl.Database,
	}
	restricted.GET("/saves", save.List)
	restricted.POST("/saves", save.Create)
	restricted.GET("/saves/:id", save.Show)
	restricted.DELETE("/saves/:id", save.Delete)
	restricted.DELETE("/saves", save.DeleteAll)

	return engine
}

// PrintRoutes prints the Echo engine exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

func currentClaims(c echo.Context) *session.Claims {
	claims, ok := c.Get(middlewares.CurrentClaimsContextKey).(*session.Claims)
	if ok {
		return claims
	}
	return nil
}

// currentUser resolves the live user behind the request's claims.
// The admin flag inside a claim is a snapshot, so privilege-sensitive
// handlers go through here instead.
func currentUser(c echo.Context, db database.Client) (*model.User, error) {
	claims := currentClaims(c)
	if claims == nil {
		return nil, serror.Unauthorized("invalid-auth", "Invalid login credentials.")
	}

	users := database.NewRepository[model.User](db)
	user, err := users.Get(claims.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "could not get current user")
	}
	if user == nil {
		return nil, serror.Unauthorized("invalid-auth", "Invalid login credentials.")
	}
	return user, nil
}
