package model

// A GameMeta represents a database record.
// BaseGameID references the game this one is a mod/patch of.
type GameMeta struct {
	Base `codec:",inline" storm:"inline"`

	FamilyID       string `json:"family_id,omitempty"        codec:"family_id"        storm:"index"`
	BaseGameID     string `json:"base_game_id,omitempty"     codec:"base_game_id"     storm:"index"`
	HashedFileName string `json:"hashed_file_name,omitempty" codec:"hashed_file_name"`
	XXHash64       string `json:"xxhash64,omitempty"         codec:"xxhash64"`
	Name           string `json:"name"                       codec:"name"             storm:"index"`
	Version        string `json:"version,omitempty"          codec:"version"`

	BreaksSaveFormatFromPreviousVersion bool `json:"breaks_save_format_from_previous_version" codec:"breaks_save_format_from_previous_version"`
	BreaksSaveFormatFromBaseGame        bool `json:"breaks_save_format_from_base_game"        codec:"breaks_save_format_from_base_game"`
}
