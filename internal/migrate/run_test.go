package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_Embedded(t *testing.T) {
	got, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "000001_storage_items", got[0])
}

func TestVersions_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000002_b.sql":   {Data: []byte("SELECT 2")},
		"migrations/000001_a.sql":   {Data: []byte("SELECT 1")},
		"migrations/README.md":      {Data: []byte("notes")},
		"migrations/old/000000.sql": {Data: []byte("SELECT 0")},
	}
	got, err := versions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a", "000002_b"}, got)
}

func TestVersions_MissingDir(t *testing.T) {
	_, err := versions(fstest.MapFS{})
	require.Error(t, err)
}
