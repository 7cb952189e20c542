package serializer

import (
	"time"

	"github.com/mdouchement/savepoint/internal/model"
)

// Tokens serializes the render of a login or refresh response.
func Tokens(user *model.User, session *model.Session, claim string, claimExpiration time.Time) map[string]interface{} {
	return map[string]interface{}{
		"user": User(user),
		"session": map[string]interface{}{
			"claim":            claim,
			"refresh_token":    session.RefreshToken,
			"claim_expiration": claimExpiration.UTC(),
			"expire_at":        session.ExpireAt.UTC(),
		},
	}
}
