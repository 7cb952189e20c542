package session_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(claimTTL time.Duration) (session.Manager, database.Client, func()) {
	tmpfile, err := os.CreateTemp("", "savepoint.*.db")
	if err != nil {
		panic(err)
	}
	filename := tmpfile.Name()
	tmpfile.Close()

	db, err := database.StormOpen(filename)
	if err != nil {
		panic(err)
	}

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}

	m := session.NewManager(db, private, public, claimTTL, 30*24*time.Hour)
	return m, db, func() {
		db.Close()
		os.RemoveAll(filename)
	}
}

func seed(m session.Manager, db database.Client) (*model.User, *model.Session) {
	user := model.NewUser()
	user.Username = "george"
	user.Email = "george@nowhere.lan"
	if err := database.NewRepository[model.User](db).Insert(user); err != nil {
		panic(err)
	}

	s := m.Generate(user, "gotest", "test-suite", "127.0.0.1")
	if err := database.NewRepository[model.Session](db).Insert(s); err != nil {
		panic(err)
	}
	return user, s
}

func TestManagerSignAndParseClaim(t *testing.T) {
	m, db, cleanup := setup(90 * time.Minute)
	defer cleanup()
	user, s := seed(m, db)

	token, expiration, err := m.SignClaim(user, s)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(90*time.Minute), expiration, 5*time.Second)

	claims, err := m.ParseClaim(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, s.ID, claims.SessionID)
	assert.False(t, claims.Admin)

	// Tampered and garbage tokens are rejected.
	_, err = m.ParseClaim(token + "a")
	assert.Error(t, err)
	_, err = m.ParseClaim("not.a.token")
	assert.Error(t, err)

	// A claim signed by another key never verifies.
	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	foreign := session.NewManager(db, private, public, time.Minute, time.Hour)
	stranger, _, err := foreign.SignClaim(user, s)
	require.NoError(t, err)
	_, err = m.ParseClaim(stranger)
	assert.Error(t, err)
}

func TestManagerParseExpiredClaim(t *testing.T) {
	m, db, cleanup := setup(-time.Minute)
	defer cleanup()
	user, s := seed(m, db)

	token, _, err := m.SignClaim(user, s)
	require.NoError(t, err)

	_, err = m.ParseClaim(token)
	require.Error(t, err)
	assert.Equal(t, "expired-claim", serror.Tag(err))
}

func TestManagerRefreshRotation(t *testing.T) {
	m, db, cleanup := setup(-time.Minute)
	defer cleanup()
	user, s := seed(m, db)
	original := s.RefreshToken

	token, _, err := m.SignClaim(user, s)
	require.NoError(t, err)

	rotated, signed, expiration, err := m.Refresh(token, original)
	require.NoError(t, err)
	assert.NotEqual(t, original, rotated.RefreshToken)
	assert.NotEmpty(t, signed)
	assert.True(t, expiration.After(time.Now()))

	// The rotation is persisted.
	record, err := database.NewRepository[model.Session](db).Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, rotated.RefreshToken, record.RefreshToken)

	// Replaying the consumed token is treated as compromise, the session
	// goes away with it.
	_, _, _, err = m.Refresh(token, original)
	require.Error(t, err)
	assert.Equal(t, "invalid-auth", serror.Tag(err))

	record, err = database.NewRepository[model.Session](db).Get(s.ID)
	require.NoError(t, err)
	assert.Nil(t, record)

	// The freshly rotated token died with the session.
	_, _, _, err = m.Refresh(token, rotated.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "invalid-auth", serror.Tag(err))
}

func TestManagerRefreshConcurrent(t *testing.T) {
	m, db, cleanup := setup(-time.Minute)
	defer cleanup()
	user, s := seed(m, db)
	original := s.RefreshToken

	token, _, err := m.SignClaim(user, s)
	require.NoError(t, err)

	// Two clients racing with the same refresh token. bbolt serializes
	// writers so exactly one rotation can win, the other call observes the
	// rotated row and terminates the session.
	var (
		start = make(chan struct{})
		errs  = make(chan error, 2)
		wg    sync.WaitGroup
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, _, err := m.Refresh(token, original)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		losses++
		assert.Equal(t, "invalid-auth", serror.Tag(err))
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	// The losing replay killed the session.
	record, err := database.NewRepository[model.Session](db).Get(s.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestManagerRefreshKeepsExpiry(t *testing.T) {
	m, db, cleanup := setup(-time.Minute)
	defer cleanup()
	user, s := seed(m, db)

	token, _, err := m.SignClaim(user, s)
	require.NoError(t, err)

	rotated, _, _, err := m.Refresh(token, s.RefreshToken)
	require.NoError(t, err)

	// Rotation is not a lifetime extension, the session keeps the absolute
	// expiry set at login.
	assert.WithinDuration(t, s.ExpireAt, rotated.ExpireAt, time.Second)

	record, err := database.NewRepository[model.Session](db).Get(s.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, s.ExpireAt, record.ExpireAt, time.Second)
}

func TestManagerRefreshExpiredSession(t *testing.T) {
	m, db, cleanup := setup(time.Minute)
	defer cleanup()
	user, s := seed(m, db)

	sessions := database.NewRepository[model.Session](db)
	require.NoError(t, sessions.UpdateField(s.ID, "ExpireAt", time.Now().Add(-time.Hour)))

	token, _, err := m.SignClaim(user, s)
	require.NoError(t, err)

	_, _, _, err = m.Refresh(token, s.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "expired-refresh-token", serror.Tag(err))

	record, err := sessions.Get(s.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestManagerRefreshWithoutStoredToken(t *testing.T) {
	m, db, cleanup := setup(time.Minute)
	defer cleanup()
	user, s := seed(m, db)

	sessions := database.NewRepository[model.Session](db)
	require.NoError(t, sessions.UpdateField(s.ID, "RefreshToken", ""))

	token, _, err := m.SignClaim(user, s)
	require.NoError(t, err)

	_, _, _, err = m.Refresh(token, s.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "invalid-auth", serror.Tag(err))

	record, err := sessions.Get(s.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestManagerRevoke(t *testing.T) {
	m, db, cleanup := setup(time.Minute)
	defer cleanup()
	_, s := seed(m, db)

	require.NoError(t, m.Revoke(s.ID))

	record, err := database.NewRepository[model.Session](db).Get(s.ID)
	require.NoError(t, err)
	assert.Nil(t, record)

	// Revoking an absent session is a no-op.
	assert.NoError(t, m.Revoke(s.ID))
}
