package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/savepoint/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndLoadKeys(t *testing.T) {
	dir, err := os.MkdirTemp("", "savepoint-keys")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	private := filepath.Join(dir, "claim.key")
	public := filepath.Join(dir, "claim.pub")
	require.NoError(t, session.GenerateKeys(private, public))

	priv, pub, err := session.LoadKeys(private, public)
	require.NoError(t, err)
	assert.Equal(t, pub, priv.Public())

	// Garbage files do not load.
	require.NoError(t, os.WriteFile(private, []byte("garbage"), 0600))
	_, _, err = session.LoadKeys(private, public)
	assert.Error(t, err)
}
