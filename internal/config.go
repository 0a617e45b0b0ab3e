package internal

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notenest/internal/coordinator"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverJSON   = "json"
	StoreDriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	Cache CacheConfig       `yaml:"cache"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the durable entry store.
//
// Driver "json" keeps the whole collection in one JSON document at Path.
// Driver "sqlite" keeps it in a SQLite database at SQLitePath.
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StoreDriverJSON, StoreDriverSQLite)),
		validation.Field(&c.Path, validation.When(c.Driver == StoreDriverJSON, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == StoreDriverSQLite, validation.Required)),
	)
}

// CacheConfig tunes the in-memory cache in front of the store.
type CacheConfig struct {
	// HonorSortOrder makes cold-cache reads return the same ordering as
	// warm ones. Off by default.
	HonorSortOrder bool   `yaml:"honor_sort_order"`
	BackupPolicy   string `yaml:"backup_policy"`
	// Watch reloads the cache when the JSON document changes on disk.
	Watch bool `yaml:"watch"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BackupPolicy, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			_, err := coordinator.ParseBackupPolicy(s)
			if err != nil {
				return errors.New("must be best_effort or propagate")
			}
			return nil
		})),
	)
}

// Policy returns the parsed backup policy. Call after Validate.
func (c *CacheConfig) Policy() coordinator.BackupPolicy {
	p, _ := coordinator.ParseBackupPolicy(c.BackupPolicy)
	return p
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver:     StoreDriverJSON,
			Path:       "./notenest.json",
			SQLitePath: "./notenest.db",
		},
		Cache: CacheConfig{
			BackupPolicy: coordinator.BackupPolicyBestEffort,
			Watch:        true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
