// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yml")

	cfg, used, err := load(path)
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.ConfigNotFound))
	assert.Equal(t, path, used)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "com.nekrosis", cfg.Install.LabelPrefix)
	assert.Equal(t, "plist", cfg.Export.Format)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nekrosis.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  logLevel: debug
electron:
  searchRoot: /opt/apps
  exclusions:
    - /opt/apps/Skip.app
install:
  labelPrefix: org.example
export:
  format: json
`), 0o644))

	cfg, _, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.LogLevel)
	assert.Equal(t, "/opt/apps", cfg.Electron.SearchRoot)
	assert.Equal(t, []string{"/opt/apps/Skip.app"}, cfg.Electron.Exclusions)
	assert.Equal(t, "org.example", cfg.Install.LabelPrefix)
	assert.Equal(t, "json", cfg.Export.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  format: xml\n"), 0o644))

	t.Setenv("NEKROSIS_CONFIG", path)
	t.Setenv("NEKROSIS_EXPORT_FORMAT", "toml")

	cfg, used, err := load("")
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "toml", cfg.Export.Format)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("logger: [unterminated"), 0o644))

	cfg, _, err := load(path)
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.ConfigLoadFailed))
	assert.NotNil(t, cfg)
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Install.PayloadDir = "~/payloads"
	path := filepath.Join(t.TempDir(), "nested", "nekrosis.yml")

	require.NoError(t, save(cfg, path))

	loaded, _, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
