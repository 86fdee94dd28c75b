package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"LOBBY_DATABASE_DRIVER=sqlite\nLOBBY_DATABASE_DSN=file.db\nLOBBY_ADDR=:9000\n"), 0o600))

	t.Setenv("LOBBY_BLOB_DRIVER", "memory")
	t.Setenv("LOBBY_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	flags := Flags()
	require.NoError(t, flags.Parse([]string{"--env-file", envFile, "--addr", ":8080"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file.db", cfg.Database.DSN)
	assert.Equal(t, "memory", cfg.Blob.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.RateLimit)
}

func TestLoadMissingEnvFile(t *testing.T) {
	t.Setenv("LOBBY_DATABASE_DRIVER", "sqlite")
	t.Setenv("LOBBY_DATABASE_DSN", ":memory:")
	t.Setenv("LOBBY_BLOB_DRIVER", "memory")

	flags := Flags()
	require.NoError(t, flags.Parse([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}))
	_, err := Load(flags)
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	ok := Config{
		Database: DatabaseConfig{Driver: "postgres", DSN: "host=localhost"},
		Blob:     BlobConfig{Driver: "memory"},
	}
	assert.NoError(t, ok.Validate())

	cases := map[string]func(c *Config){
		"driver":      func(c *Config) { c.Database.Driver = "mysql" },
		"dsn":         func(c *Config) { c.Database.DSN = "" },
		"blob driver": func(c *Config) { c.Blob.Driver = "disk" },
		"r2 creds":    func(c *Config) { c.Blob.Driver = "r2"; c.Blob.Bucket = "photos" },
		"prod secret": func(c *Config) { c.IsProd = true; c.Auth.SessionSecret = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := ok
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
