package session

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/pkg/errors"
)

type (
	// A Manager manages sessions and the claims vouching for them.
	Manager interface {
		// PublicKey returns the claim verification key.
		PublicKey() ed25519.PublicKey
		// Generate creates a new unsaved session for the given user.
		Generate(user *model.User, device, location, ip string) *model.Session
		// SignClaim generates a signed claim for the given session.
		SignClaim(user *model.User, session *model.Session) (string, time.Time, error)
		// ParseClaim verifies a claim and returns its content.
		ParseClaim(token string) (*Claims, error)
		// Refresh exchanges an expired claim and its refresh token against a
		// fresh claim, rotating the refresh token. Any anomaly terminates the
		// session.
		Refresh(claim, refreshToken string) (*model.Session, string, time.Time, error)
		// Revoke deletes the given session.
		Revoke(sessionID string) error
	}

	// Claims is the content of a signed claim.
	Claims struct {
		UserID    string `json:"user_uuid"`
		SessionID string `json:"session_uuid"`
		Admin     bool   `json:"admin"`
		jwt.RegisteredClaims
	}

	manager struct {
		db       database.Client
		sessions *database.Repository[model.Session, *model.Session]
		private  ed25519.PrivateKey
		public   ed25519.PublicKey
		// Session params
		claimExpirationTime   time.Duration
		refreshExpirationTime time.Duration
	}
)

// NewManager returns a new manager.
func NewManager(db database.Client, private ed25519.PrivateKey, public ed25519.PublicKey, claimExpirationTime, refreshExpirationTime time.Duration) Manager {
	return &manager{
		db:                    db,
		sessions:              database.NewRepository[model.Session](db),
		private:               private,
		public:                public,
		claimExpirationTime:   claimExpirationTime,
		refreshExpirationTime: refreshExpirationTime,
	}
}

func (m *manager) PublicKey() ed25519.PublicKey {
	return m.public
}

func (m *manager) Generate(user *model.User, device, location, ip string) *model.Session {
	return &model.Session{
		UserID:       user.GetID(),
		Admin:        user.Admin,
		DeviceName:   device,
		Location:     location,
		IPAddress:    ip,
		RefreshToken: SecureToken(24),
		ExpireAt:     time.Now().Add(m.refreshExpirationTime).UTC(),
	}
}

func (m *manager) SignClaim(user *model.User, session *model.Session) (string, time.Time, error) {
	now := time.Now()
	expireAt := now.Add(m.claimExpirationTime)

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		UserID:    user.GetID(),
		SessionID: session.GetID(),
		Admin:     user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireAt),
		},
	})

	signed, err := token.SignedString(m.private)
	return signed, expireAt, errors.Wrap(err, "could not sign claim")
}

func (m *manager) ParseClaim(token string) (*Claims, error) {
	return m.parse(token)
}

func (m *manager) Refresh(claim, refreshToken string) (*model.Session, string, time.Time, error) {
	// The claim is typically expired at refresh time but its signature and
	// content must still be genuine.
	claims, err := m.parse(claim, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, "", time.Time{}, err
	}

	var (
		session *model.Session
		user    *model.User
		denied  error
	)

	// The session lookup, the token comparison and the rotation share one
	// write transaction, so two calls presenting the same refresh token can
	// never both observe the pre-rotation row. A denied verdict still
	// commits: a terminated session must stay terminated.
	err = m.db.WithTransaction(func(tx database.Client) error {
		sessions := database.NewRepository[model.Session](tx)
		users := database.NewRepository[model.User](tx)

		var err error
		session, err = sessions.Get(claims.SessionID)
		if err != nil {
			return err
		}
		if session == nil || session.UserID != claims.UserID {
			denied = invalidAuth()
			return nil
		}

		if session.RefreshToken == "" || !SecureCompare(session.RefreshToken, refreshToken) {
			// A wrong refresh token on a genuine claim means the token leaked
			// or was already consumed. Terminate the session.
			denied = invalidAuth()
			return sessions.Delete(session.GetID())
		}

		if session.Expired() {
			denied = serror.Unauthorized("expired-refresh-token", "The refresh token has expired.")
			return sessions.Delete(session.GetID())
		}

		user, err = users.Get(session.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			denied = invalidAuth()
			return sessions.Delete(session.GetID())
		}

		// ExpireAt is left untouched, rotation never extends a session's
		// lifetime.
		session.RefreshToken = SecureToken(24)
		session.Admin = user.Admin

		if err = sessions.UpdateField(session.GetID(), "RefreshToken", session.RefreshToken); err != nil {
			return err
		}
		return sessions.UpdateField(session.GetID(), "Admin", session.Admin)
	})
	if err != nil {
		return nil, "", time.Time{}, errors.Wrap(err, "could not rotate session")
	}
	if denied != nil {
		return nil, "", time.Time{}, denied
	}

	signed, expireAt, err := m.SignClaim(user, session)
	return session, signed, expireAt, err
}

func (m *manager) Revoke(sessionID string) error {
	return errors.Wrap(m.sessions.Delete(sessionID), "could not revoke session")
}

func (m *manager) parse(token string, options ...jwt.ParserOption) (*Claims, error) {
	options = append(options, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.public, nil
	}, options...)

	switch {
	case err == nil && parsed.Valid:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, serror.Unauthorized("expired-claim", "The provided claim has expired.")
	default:
		return nil, invalidAuth()
	}
}

func invalidAuth() error {
	return serror.Unauthorized("invalid-auth", "Invalid login credentials.")
}
