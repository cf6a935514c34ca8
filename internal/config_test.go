package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/noteflow/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Storage.Namespace != "noteflow-notes" {
		t.Errorf("namespace = %q", cfg.Storage.Namespace)
	}
	if cfg.Inbox.Enabled() {
		t.Error("inbox should be disabled by default")
	}
}

func TestStorageConfig_InvalidDriver(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail validation")
	}
}

func TestStorageConfig_NamespaceRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Namespace = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty namespace should fail validation")
	}
}

func TestEditorConfig_HistoryLimit(t *testing.T) {
	cfg := EditorConfig{HistoryLimit: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero history limit should fail")
	}
	cfg = EditorConfig{HistoryLimit: 5, FocusDelay: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative focus delay should fail")
	}
}

func TestPDFConfig_Options(t *testing.T) {
	cfg := NewDefaultConfig()
	opts := cfg.Export.PDF.Options()
	if opts.TitleSize != 16 || opts.BodySize != 12 || opts.Margin != 20 || opts.Width != 170 {
		t.Errorf("options = %+v", opts)
	}
	cfg.Export.PDF.FontFile = "/fonts/DejaVuSans.ttf"
	if got := cfg.Export.PDF.Options().FontFile; got != "/fonts/DejaVuSans.ttf" {
		t.Errorf("font file = %q", got)
	}
	cfg.Export.PDF.BodySize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero body size should fail")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("NOTEFLOW_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `app:
  log_level: debug
  http:
    port: 9000
storage:
  driver: fs
  path: ./data
editor:
  focus_delay: 25ms
inbox:
  path: ${NOTEFLOW_INBOX:-./inbox}
auth:
  mode: token
  token: ${NOTEFLOW_TOKEN}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9000 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Storage.Driver != StorageDriverFS || cfg.Storage.Namespace != "noteflow-notes" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Editor.FocusDelay != 25*time.Millisecond || cfg.Editor.HistoryLimit != 100 {
		t.Errorf("editor = %+v", cfg.Editor)
	}
	if cfg.Inbox.Path != "./inbox" || !cfg.Auth.AuthEnabled() || cfg.Auth.Token != "s3cret" {
		t.Errorf("inbox = %+v auth = %+v", cfg.Inbox, cfg.Auth)
	}
}
