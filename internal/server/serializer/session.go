package serializer

import "github.com/mdouchement/savepoint/internal/model"

// Session serializes the render of a session.
// The refresh token never leaves the server outside of the login and
// refresh responses.
func Session(m *model.Session) map[string]interface{} {
	return map[string]interface{}{
		"uuid":        m.ID,
		"created_at":  m.CreatedAt,
		"updated_at":  m.UpdatedAt,
		"device_name": m.DeviceName,
		"location":    m.Location,
		"ip_address":  m.IPAddress,
		"expire_at":   m.ExpireAt,
		"current":     m.Current,
	}
}

// Sessions serializes the render of sessions.
func Sessions(m []*model.Session) []map[string]interface{} {
	sessions := make([]map[string]interface{}, len(m))
	for i, s := range m {
		sessions[i] = Session(s)
	}
	return sessions
}
