// Package config reads settings from an optional .env file, LOBBY_*
// environment variables and command line flags, in rising priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LOBBY"

type Config struct {
	Addr           string   `mapstructure:"addr"`
	LogLevel       string   `mapstructure:"log_level"`
	IsProd         bool     `mapstructure:"is_prod"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// RateLimit is mutating requests per minute per IP and endpoint.
	RateLimit      int      `mapstructure:"rate_limit"`

	Database DatabaseConfig `mapstructure:"database"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type BlobConfig struct {
	// Driver is "r2" or "memory".
	Driver          string `mapstructure:"driver"`
	Bucket          string `mapstructure:"bucket"`
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
}

type AuthConfig struct {
	SessionSecret string `mapstructure:"session_secret"`
	GoogleKey     string `mapstructure:"google_key"`
	GoogleSecret  string `mapstructure:"google_secret"`
	CallbackURL   string `mapstructure:"callback_url"`
	// AfterLoginURL is where the browser lands once the OAuth flow completes.
	AfterLoginURL string `mapstructure:"after_login_url"`
}

// Flags returns the flag set Load binds; flag names use dashes for the
// dotted keys, e.g. --database-dsn.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("lobby", pflag.ContinueOnError)
	fs.String("addr", ":3000", "address to listen on")
	fs.String("log-level", "info", "trace, debug, info, warn or error")
	fs.String("database-driver", "postgres", "postgres or sqlite")
	fs.String("database-dsn", "", "database connection string")
	fs.String("blob-driver", "r2", "r2 or memory")
	fs.String("env-file", ".env", "dotenv file to load if present")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("is_prod", false)
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("rate_limit", 20)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("blob.driver", "r2")
	v.SetDefault("blob.bucket", "")
	v.SetDefault("blob.account_id", "")
	v.SetDefault("blob.access_key_id", "")
	v.SetDefault("blob.access_key_secret", "")
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.google_key", "")
	v.SetDefault("auth.google_secret", "")
	v.SetDefault("auth.callback_url", "http://localhost:3000/auth/google/callback")
	v.SetDefault("auth.after_login_url", "/")
}

// Load builds the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	envFile := ".env"
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{
			"addr":            "addr",
			"log_level":       "log-level",
			"database.driver": "database-driver",
			"database.dsn":    "database-dsn",
			"blob.driver":     "blob-driver",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.Blob.Driver {
	case "memory":
	case "r2":
		if c.Blob.Bucket == "" || c.Blob.AccountID == "" || c.Blob.AccessKeyID == "" || c.Blob.AccessKeySecret == "" {
			return errors.New("blob.bucket, blob.account_id, blob.access_key_id and blob.access_key_secret are required for r2")
		}
	default:
		return fmt.Errorf("blob.driver must be r2 or memory, got %q", c.Blob.Driver)
	}
	if c.IsProd && len(c.Auth.SessionSecret) < 32 {
		return errors.New("auth.session_secret must be at least 32 bytes in production")
	}
	return nil
}
