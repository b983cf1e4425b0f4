package migrate

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/amp-server/db"
)

func TestDiscover(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_journal_up.sql":   {Data: []byte("SELECT 2")},
		"0001_init_up.sql":      {Data: []byte("SELECT 1")},
		"0001_init_down.sql":    {Data: []byte("SELECT 0")},
		"readme.md":             {Data: []byte("x")},
		"draft_up.sql":          {Data: []byte("x")},
		"sub/0010_later_up.sql": {Data: []byte("SELECT 10")},
	}
	files, err := discover(fsys)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, int64(1), files[0].Version)
	assert.Equal(t, int64(2), files[1].Version)
	assert.Equal(t, int64(10), files[2].Version)
	assert.Equal(t, "sub/0010_later_up.sql", files[2].Path)
}

func TestDiscover_Embedded(t *testing.T) {
	sub, err := fs.Sub(db.Migrations, "migrations")
	require.NoError(t, err)
	files, err := discover(sub)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, int64(1), files[0].Version)
}

func TestUp_EmptyDir(t *testing.T) {
	_, err := Runner{}.Up(context.Background(), nil)
	assert.Error(t, err)
}
