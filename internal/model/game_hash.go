package model

// A GameHash represents a database record.
// It maps a known executable hash to its game metadata. GameMetaID can be
// empty when the relationship has been severed by a cascade delete.
type GameHash struct {
	Base `codec:",inline" storm:"inline"`

	GameMetaID     string `json:"game_meta_id,omitempty" codec:"game_meta_id" storm:"index"`
	HashedFileName string `json:"hashed_file_name"       codec:"hashed_file_name"`
	XXHash64       string `json:"xxhash64"               codec:"xxhash64"     storm:"index"`
}
