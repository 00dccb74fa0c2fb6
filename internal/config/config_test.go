package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "material", c.GroupColumn)
	assert.Equal(t, "qty_final", c.TargetColumn)
	assert.Equal(t, ".", c.DecimalSeparator)
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, "dev", c.LogMode)
}

func TestSaveThenLoadWithEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(&Global{GroupColumn: "sku", TargetColumn: "qty", Workers: 4}, path))
	_, err := os.Stat(path)
	require.NoError(t, err)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sku", c.GroupColumn)
	assert.Equal(t, "qty", c.TargetColumn)
	assert.Equal(t, 4, c.Workers)

	t.Setenv("GROUPFILL_TARGET_COLUMN", "quantity")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "quantity", c.TargetColumn)
	assert.Equal(t, "sku", c.GroupColumn)
}

func TestLoadClampsWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: -3\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Workers)
}
