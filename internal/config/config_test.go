package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripThroughYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := DefaultConfig()
	original.Movement.WaitTicks = 45
	original.DebugBridge.Enabled = true

	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, original, loaded)
}

func TestLoadMissingFieldsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("movement:\n  waitTicks: 99\n"), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 99, loaded.Movement.WaitTicks)
	require.Equal(t, DefaultConfig().Movement.MaxForce, loaded.Movement.MaxForce)
}

func TestSchemaReflectsConfigFields(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)
	require.NotNil(t, schema.Properties)
	_, ok := schema.Properties.Get("movement")
	require.True(t, ok, "expected the schema to include the movement field")
}
