package model

import (
	"time"
)

// A Session represents a database record.
// It anchors one login; RefreshToken holds the single currently valid
// refresh token value. Empty means refresh is not (or no longer) supported
// for this session.
type Session struct {
	Base `codec:",inline" storm:"inline"`

	UserID       string    `json:"user_uuid"   codec:"user_id" storm:"index"`
	RefreshToken string    `json:"-"           codec:"refresh_token"`
	DeviceName   string    `json:"device_name" codec:"device_name"`
	Location     string    `json:"location"    codec:"location"`
	IPAddress    string    `json:"ip_address"  codec:"ip_address"`
	Admin        bool      `json:"admin"       codec:"admin"`
	ExpireAt     time.Time `json:"expire_at"   codec:"expire_at"`

	// Current is only rendered in session listings.
	Current bool `json:"current" codec:"-"`
}

// Expired returns true when the session is past its absolute expiry.
func (s *Session) Expired() bool {
	return !time.Now().Before(s.ExpireAt)
}
