package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/mitilog/pkg/event"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	a, ok := c.ActionByKey("KERACHOLE")
	require.True(t, ok)
	assert.Equal(t, event.ActionID(24298), a.ID)
	assert.Equal(t, "KERACHOLE", a.Key)

	byID, ok := c.Action(24298)
	require.True(t, ok)
	assert.Equal(t, a, byID)

	s, ok := c.StatusByKey("KERACHOLE")
	require.True(t, ok)
	assert.Equal(t, event.StatusID(2618), s.ID)

	_, ok = c.Action(1)
	assert.False(t, ok)
}

func TestLoadCatalog_LayersOverDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.yaml")
	content := `
actions:
  KERACHOLE:
    id: 99999
    name: Kerachole (moved)
  TANKBUSTER:
    id: 40001
    name: Tankbuster
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	_, ok := c.Action(24298)
	assert.False(t, ok, "overridden id should be gone")

	a, ok := c.Action(99999)
	require.True(t, ok)
	assert.Equal(t, "Kerachole (moved)", a.Name)

	_, ok = c.Action(40001)
	assert.True(t, ok)

	_, ok = c.ActionByKey("ZOE")
	assert.True(t, ok, "default entries survive layering")
}

func TestLoadCatalog_Errors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actions:\n  BAD:\n    id: 0\n"), 0o600))
	_, err = LoadCatalog(path)
	assert.Error(t, err)
}

func TestResolveRefs(t *testing.T) {
	c := DefaultCatalog()

	id, err := c.ResolveActionRef("ZOE")
	require.NoError(t, err)
	assert.Equal(t, event.ActionID(24300), id)

	id, err = c.ResolveActionRef("31337")
	require.NoError(t, err)
	assert.Equal(t, event.ActionID(31337), id)

	_, err = c.ResolveActionRef("NOT_AN_ACTION")
	assert.True(t, errors.Is(err, ErrUnknownAction))

	sid, err := c.ResolveStatusRef("KERACHOLE")
	require.NoError(t, err)
	assert.Equal(t, event.StatusID(2618), sid)

	_, err = c.ResolveStatusRef("-4")
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}
