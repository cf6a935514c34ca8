package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteflow/internal/storage"
	"github.com/starford/noteflow/internal/transfer"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	StorageDriverSQLite = "sqlite"
	StorageDriverFS     = "fs"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Editor  EditorConfig      `yaml:"editor"`
	Inbox   InboxConfig       `yaml:"inbox"`
	Auth    AuthConfig        `yaml:"auth"`
	Export  ExportConfig      `yaml:"export"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
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
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In(slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError)),
	); err != nil {
		return err
	}
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

// StorageConfig selects where the note collection lives. For the sqlite
// driver Path is the database file; for fs it is the directory holding the
// collection file.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StorageDriverSQLite, StorageDriverFS)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Namespace, validation.Required),
	)
}

// EditorConfig tunes editor sessions.
type EditorConfig struct {
	HistoryLimit int           `yaml:"history_limit"`
	FocusDelay   time.Duration `yaml:"focus_delay"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HistoryLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.FocusDelay, validation.Min(time.Duration(0))),
	)
}

// InboxConfig holds the drop folder. An empty path disables it.
type InboxConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the drop folder is watched.
func (c *InboxConfig) Enabled() bool {
	return c.Path != ""
}

// ExportConfig holds export settings.
type ExportConfig struct {
	PDF PDFConfig `yaml:"pdf"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return c.PDF.Validate()
}

// PDFConfig sets the PDF page layout. Sizes are points, lengths millimetres.
type PDFConfig struct {
	TitleSize float64 `yaml:"title_size"`
	BodySize  float64 `yaml:"body_size"`
	Margin    float64 `yaml:"margin"`
	Width     float64 `yaml:"width"`
	// FontFile is an optional TrueType font for text outside cp1252.
	FontFile string `yaml:"font_file"`
}

// Validate validates the PDF configuration.
func (c *PDFConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TitleSize, validation.Required, validation.Min(1.0)),
		validation.Field(&c.BodySize, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Margin, validation.Min(0.0)),
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
	)
}

// Options converts the configuration to exporter settings.
func (c *PDFConfig) Options() transfer.PDFOptions {
	return transfer.PDFOptions{
		TitleSize: c.TitleSize,
		BodySize:  c.BodySize,
		Margin:    c.Margin,
		Width:     c.Width,
		FontFile:  c.FontFile,
	}
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
	pdf := transfer.DefaultPDFOptions
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver:    StorageDriverSQLite,
			Path:      "./noteflow.db",
			Namespace: storage.DefaultNamespace,
		},
		Editor: EditorConfig{
			HistoryLimit: 100,
			FocusDelay:   10 * time.Millisecond,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Export: ExportConfig{
			PDF: PDFConfig{
				TitleSize: pdf.TitleSize,
				BodySize:  pdf.BodySize,
				Margin:    pdf.Margin,
				Width:     pdf.Width,
			},
		},
	}
}
