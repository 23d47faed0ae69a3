package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("ROJIG_BUCKET", "fcos-rojig")

	path := writeConfig(t, `
stream: https://builds.example.com/prod/streams/testing-devel/builds
target: s3://${ROJIG_BUCKET}/repo
history: 3
arch: aarch64
http_timeout: 45s
dry_run: true
aws:
  region: eu-west-1
  profile: fcos
  endpoint: http://localhost:4566
  force_path_style: true
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://builds.example.com/prod/streams/testing-devel/builds", cfg.Stream)
	assert.Equal(t, "s3://fcos-rojig/repo", cfg.Target)
	assert.Equal(t, 3, cfg.History)
	assert.Equal(t, "aarch64", cfg.Arch)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, AWSConfig{Region: "eu-west-1", Profile: "fcos", Endpoint: "http://localhost:4566", ForcePathStyle: true}, cfg.AWS)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	require.NoError(t, cfg.Validate())
}

func TestLoad_KeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "stream: http://example.com/\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHistory, cfg.History)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ExplicitZeroHistory(t *testing.T) {
	cfg, err := Load(writeConfig(t, "history: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.History)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, repoerrors.IsKind(err, repoerrors.KindConfig))

	_, err = Load(writeConfig(t, "history: [not, a, number]\n"))
	require.Error(t, err)
	assert.True(t, repoerrors.IsKind(err, repoerrors.KindConfig))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Stream = "https://builds.example.com/"
		c.Target = "s3://bucket/repo"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing stream", mutate: func(c *Config) { c.Stream = "" }, wantErr: "stream URL is required"},
		{name: "missing target", mutate: func(c *Config) { c.Target = "" }, wantErr: "target URL is required"},
		{name: "negative history", mutate: func(c *Config) { c.History = -1 }, wantErr: "history must not be negative"},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTPTimeout = -time.Second }, wantErr: "http_timeout"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, repoerrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := LogConfig{Level: in}.SlogLevel()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
