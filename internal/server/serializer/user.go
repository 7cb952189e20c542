package serializer

import "github.com/mdouchement/savepoint/internal/model"

// User serializes the render of a user.
// The password hash never leaves the server.
func User(m *model.User) map[string]interface{} {
	return map[string]interface{}{
		"uuid":       m.ID,
		"created_at": m.CreatedAt.UTC(),
		"updated_at": m.UpdatedAt.UTC(),
		"username":   m.Username,
		"email":      m.Email,
		"admin":      m.Admin,
	}
}
