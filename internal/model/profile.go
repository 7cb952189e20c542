package model

// A Profile represents a database record.
// A user can hold several profiles; saves are grouped under one of them.
type Profile struct {
	Base `codec:",inline" storm:"inline"`

	UserID string `json:"user_uuid" codec:"user_id" storm:"index"`
	Name   string `json:"name"      codec:"name"`
}
