package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
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
	Gateway GatewayConfig     `yaml:"gateway"`
	Resolve ResolveConfig     `yaml:"resolve"`
	Auto    AutoConfig        `yaml:"auto"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if err := c.Resolve.Validate(); err != nil {
		return err
	}
	if c.Auto.PersistLedger && c.SQLite.Path == "" {
		return fmt.Errorf("sqlite: path is required when auto.persist_ledger is set")
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

// VaultConfig holds the Markdown vault location and its attachments directory.
type VaultConfig struct {
	Path           string `yaml:"path"`
	AttachmentsDir string `yaml:"attachments_dir"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.AttachmentsDir, validation.Required),
	)
}

// GatewayConfig holds the math recognition service connection settings.
// AppID and AppKey are the service credentials sent with every request.
// TimeoutMS of zero means no request timeout.
type GatewayConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AppID     string `yaml:"app_id"`
	AppKey    string `yaml:"app_key"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Validate validates the gateway configuration.
func (c *GatewayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.AppID, validation.Required),
		validation.Field(&c.AppKey, validation.Required),
		validation.Field(&c.TimeoutMS, validation.Min(0)),
	)
}

// Timeout returns the request timeout as a duration.
func (c *GatewayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ResolveConfig controls image reference resolution retries. A freshly
// pasted reference may precede the image file landing on disk, so lookups
// retry Attempts times with RetryDelayMS between them.
type ResolveConfig struct {
	Attempts     int `yaml:"attempts"`
	RetryDelayMS int `yaml:"retry_delay_ms"`
}

// Validate validates the resolve configuration.
func (c *ResolveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Attempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelayMS, validation.Min(0)),
	)
}

// RetryDelay returns the delay between resolution attempts.
func (c *ResolveConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// AutoConfig controls the automatic OCR mode. DebounceMS of zero reacts to
// every change event immediately. PersistLedger stores submission history
// in SQLite so restarts do not resubmit already-handled references.
type AutoConfig struct {
	StartEnabled  bool `yaml:"start_enabled"`
	DebounceMS    int  `yaml:"debounce_ms"`
	PersistLedger bool `yaml:"persist_ledger"`
}

// Debounce returns the change-coalescing window.
func (c *AutoConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
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
			Path:           "./vault",
			AttachmentsDir: "attachments",
		},
		Gateway: GatewayConfig{
			Endpoint:  "https://api.mathpix.com/v3/text",
			TimeoutMS: 30000,
		},
		Resolve: ResolveConfig{
			Attempts:     5,
			RetryDelayMS: 200,
		},
		Auto: AutoConfig{
			StartEnabled: false,
			DebounceMS:   300,
		},
		SQLite: SQLiteConfig{
			Path: "./texsnap.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
