package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	t.Setenv("SOCIALDB_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yml"))

	cfg, err := loadConfiguration(flagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "social_media_app.db", cfg.DB.Filename)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigurationPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("debug: true\ndb:\n  filename: from-yaml.db\n"), 0600))

	t.Setenv("SOCIALDB_CONFIG_PATH", filepath.Join(dir, "absent.yml"))
	t.Setenv("SOCIALDB_DB_FILENAME", "from-env.db")

	cfg, err := loadConfiguration(flagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.DB.Filename)

	// the YAML file beats the environment
	cfg, err = loadConfiguration(flagOverrides{configPath: &configPath})
	require.NoError(t, err)
	assert.Equal(t, "from-yaml.db", cfg.DB.Filename)
	assert.True(t, cfg.Debug)

	// and flags beat the YAML file
	filename, debug := "from-flag.db", false
	cfg, err = loadConfiguration(flagOverrides{configPath: &configPath, filename: &filename, debug: &debug})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.DB.Filename)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigurationValidation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SOCIALDB_CONFIG_PATH", filepath.Join(dir, "absent.yml"))

	tests := []struct {
		name     string
		filename string
	}{
		{"empty filename", ""},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := tt.filename
			_, err := loadConfiguration(flagOverrides{filename: &filename})
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigurationMalformedYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("db: [unterminated"), 0600))

	_, err := loadConfiguration(flagOverrides{configPath: &configPath})
	assert.Error(t, err)
}

func TestNotDirectory(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantErr bool
	}{
		{"file path", filepath.Join(t.TempDir(), "social.db"), false},
		{"directory", t.TempDir(), true},
		{"not a string", 42, true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := notDirectory(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
