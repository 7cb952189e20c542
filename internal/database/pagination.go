package database

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/asdine/storm/v3/q"
	"github.com/pkg/errors"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
	searchSuffix   = "_search"
)

type (
	// A PageInfo designates one page of an ordered listing.
	PageInfo struct {
		Page      int
		PerPage   int
		SortBy    string
		Ascending bool
	}

	// A QuerySpec whitelists the sortable and searchable fields of an entity
	// and maps their public names to the struct fields backing them.
	QuerySpec struct {
		DefaultSort string
		Sortable    map[string]string
		Searchable  map[string]string
	}
)

var (
	// UserQuery is the listing contract of users.
	UserQuery = QuerySpec{
		DefaultSort: "Username",
		Sortable: map[string]string{
			"username":   "Username",
			"email":      "Email",
			"created_at": "CreatedAt",
			"updated_at": "UpdatedAt",
			"id":         "ID",
		},
		Searchable: map[string]string{
			"username": "Username",
			"email":    "Email",
			"id":       "ID",
		},
	}

	// GameQuery is the listing contract of game metadata.
	GameQuery = QuerySpec{
		DefaultSort: "Name",
		Sortable: map[string]string{
			"name":       "Name",
			"version":    "Version",
			"created_at": "CreatedAt",
			"updated_at": "UpdatedAt",
			"id":         "ID",
		},
		Searchable: map[string]string{
			"name":             "Name",
			"version":          "Version",
			"family_id":        "FamilyID",
			"base_game_id":     "BaseGameID",
			"hashed_file_name": "HashedFileName",
			"xxhash64":         "XXHash64",
			"id":               "ID",
		},
	}

	// GameHashQuery is the listing contract of game hashes.
	GameHashQuery = QuerySpec{
		DefaultSort: "XXHash64",
		Sortable: map[string]string{
			"xxhash64":   "XXHash64",
			"created_at": "CreatedAt",
			"updated_at": "UpdatedAt",
			"id":         "ID",
		},
		Searchable: map[string]string{
			"xxhash64":         "XXHash64",
			"hashed_file_name": "HashedFileName",
			"game_meta_id":     "GameMetaID",
			"id":               "ID",
		},
	}

	// SaveQuery is the listing contract of saves.
	// The public "date" sort is backed by UpdatedAt since Date is optional
	// and an absent value would make the ordering unstable.
	SaveQuery = QuerySpec{
		DefaultSort: "UpdatedAt",
		Sortable: map[string]string{
			"date":       "UpdatedAt",
			"name":       "Name",
			"created_at": "CreatedAt",
			"updated_at": "UpdatedAt",
			"id":         "ID",
		},
		Searchable: map[string]string{
			"name":          "Name",
			"game_id":       "GameID",
			"profile_id":    "ProfileID",
			"user_id":       "UserID",
			"source_device": "SourceDevice",
			"id":            "ID",
		},
	}
)

// OrderBy returns the storm sort fields of the page, identifier included as
// tiebreak so the ordering is total.
func (p PageInfo) OrderBy() []string {
	if p.SortBy == "" || p.SortBy == "ID" {
		return []string{"ID"}
	}
	return []string{p.SortBy, "ID"}
}

// PageInfo parses the pagination parameters of the given query string
// against the sortable whitelist. Missing parameters fall back to the
// first page of ten records, sorted descending on the default field.
func (s QuerySpec) PageInfo(params url.Values) (PageInfo, error) {
	page := PageInfo{
		PerPage: defaultPerPage,
		SortBy:  s.DefaultSort,
	}

	var err error
	if v := params.Get("page"); v != "" {
		if page.Page, err = strconv.Atoi(v); err != nil || page.Page < 0 {
			return page, errors.Errorf("invalid page: %s", v)
		}
	}
	if v := params.Get("per_page"); v != "" {
		if page.PerPage, err = strconv.Atoi(v); err != nil || page.PerPage < 1 || page.PerPage > maxPerPage {
			return page, errors.Errorf("invalid per_page: %s", v)
		}
	}
	if v := params.Get("sort_by"); v != "" {
		field, ok := s.Sortable[v]
		if !ok {
			return page, errors.Errorf("unsupported sort field: %s", v)
		}
		page.SortBy = field
	}
	if v := params.Get("asc"); v != "" {
		if page.Ascending, err = strconv.ParseBool(v); err != nil {
			return page, errors.Errorf("invalid asc: %s", v)
		}
	}

	return page, nil
}

// Matchers parses the `<field>_search` parameters of the given query string
// against the searchable whitelist. An unknown search field is an error
// rather than a silent no-op.
func (s QuerySpec) Matchers(params url.Values) ([]q.Matcher, error) {
	var matchers []q.Matcher

	for name := range params {
		if !strings.HasSuffix(name, searchSuffix) {
			continue
		}

		field, ok := s.Searchable[strings.TrimSuffix(name, searchSuffix)]
		if !ok {
			return nil, errors.Errorf("unsupported search field: %s", name)
		}
		matchers = append(matchers, q.Eq(field, params.Get(name)))
	}

	return matchers, nil
}
