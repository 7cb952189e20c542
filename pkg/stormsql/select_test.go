package stormsql_test

import (
	"testing"

	"github.com/mdouchement/savepoint/pkg/stormsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelect(t *testing.T) {
	sc, err := stormsql.ParseSelect("SELECT Name, Version FROM games WHERE FamilyID = 'family42' AND UpdatedAt > '2024-02-16 20:52:55' ORDER BY Name DESC LIMIT 2,5")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Version"}, sc.SelectedFields)
	assert.False(t, sc.Count)
	assert.Equal(t, "games", sc.Tablename)
	assert.NotNil(t, sc.Matcher)
	assert.Equal(t, 2, sc.Skip)
	assert.Equal(t, 5, sc.Limit)
	assert.Equal(t, []string{"Name"}, sc.OrderBy)
	assert.True(t, sc.OrderByReversed)
}

func TestParseSelectCount(t *testing.T) {
	sc, err := stormsql.ParseSelect("SELECT count(*) FROM saves WHERE UserID != 'user42'")
	require.NoError(t, err)

	assert.True(t, sc.Count)
	assert.Empty(t, sc.SelectedFields)
	assert.Equal(t, "saves", sc.Tablename)
}

func TestParseSelectStar(t *testing.T) {
	sc, err := stormsql.ParseSelect("SELECT * FROM users")
	require.NoError(t, err)

	assert.Empty(t, sc.SelectedFields)
	assert.Equal(t, "users", sc.Tablename)
	assert.NotNil(t, sc.Matcher)
}

func TestParseSelectErrors(t *testing.T) {
	_, err := stormsql.ParseSelect("UPDATE users SET Admin = true")
	assert.Error(t, err)

	_, err = stormsql.ParseSelect("not even sql")
	assert.Error(t, err)
}
