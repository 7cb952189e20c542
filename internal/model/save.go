package model

import (
	"time"
)

// A Save represents a database record.
// The save-game binary itself lives at URL; only its metadata is stored.
type Save struct {
	Base `codec:",inline" storm:"inline"`

	GameID       string     `json:"game_uuid"               codec:"game_id"       storm:"index"`
	SequentialID string     `json:"sequential_uuid"         codec:"sequential_id"`
	ProfileID    string     `json:"profile_uuid"            codec:"profile_id"    storm:"index"`
	UserID       string     `json:"user_uuid"               codec:"user_id"       storm:"index"`
	URL          string     `json:"url"                     codec:"url"`
	FileSize     int64      `json:"file_size"               codec:"file_size"`
	SourceDevice string     `json:"source_device,omitempty" codec:"source_device"`
	Screenshot   []byte     `json:"screenshot,omitempty"    codec:"screenshot"`
	Name         string     `json:"name,omitempty"          codec:"name"`
	Date         *time.Time `json:"date,omitempty"          codec:"date"`
}
