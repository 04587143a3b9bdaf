package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goodsign/monday"

	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/mdoutline"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Auth    AuthConfig        `yaml:"auth"`
	Dates   DatesConfig       `yaml:"dates"`
	Watch   WatchConfig       `yaml:"watch"`
	Outline OutlineConfig     `yaml:"outline"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Dates.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Outline.Validate()
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

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DatesConfig controls the date token decorator.
type DatesConfig struct {
	// Grammar is "basic" or "strict".
	Grammar string `yaml:"grammar"`
	// LivePreview is the rendering mode new sessions start in.
	LivePreview bool `yaml:"live_preview"`
	// Locale names the monday locale widgets are rendered in, e.g. "en_US".
	Locale string `yaml:"locale"`
	// Timezone applies to basic-grammar dates without an offset.
	Timezone string `yaml:"timezone"`
}

// Validate validates the dates configuration.
func (c *DatesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Grammar, validation.In(datetoken.Basic.String(), datetoken.Strict.String())),
		validation.Field(&c.Locale, validation.By(func(any) error {
			if c.Locale != "" && !slices.Contains(monday.ListLocales(), monday.Locale(c.Locale)) {
				return errors.New("unsupported locale")
			}
			return nil
		})),
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := time.LoadLocation(c.Timezone)
			return err
		})),
	)
}

// GrammarValue returns the configured grammar.
func (c *DatesConfig) GrammarValue() datetoken.Grammar {
	g, _ := datetoken.ParseGrammar(c.Grammar)
	return g
}

// LocaleValue returns the configured locale, en_US when unset.
func (c *DatesConfig) LocaleValue() monday.Locale {
	if c.Locale == "" {
		return monday.LocaleEnUS
	}
	return monday.Locale(c.Locale)
}

// Location returns the configured time zone, the local one when unset.
func (c *DatesConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Decorator builds the date decorator described by the configuration.
func (c *DatesConfig) Decorator() *datetoken.Decorator {
	return datetoken.NewDecorator(c.GrammarValue(), datetoken.WithLocation(c.Location()))
}

// WatchConfig controls the vault file watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// OutlineConfig controls the outline cache.
type OutlineConfig struct {
	// CacheSize is the number of documents whose outline is kept.
	CacheSize int `yaml:"cache_size"`
}

// Validate validates the outline configuration.
func (c *OutlineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CacheSize, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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
		Vault: VaultConfig{
			Path: "./vault",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Dates: DatesConfig{
			Grammar:     datetoken.Basic.String(),
			LivePreview: true,
			Locale:      string(monday.LocaleEnUS),
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 100 * time.Millisecond,
		},
		Outline: OutlineConfig{
			CacheSize: mdoutline.DefaultCacheSize,
		},
	}
}
