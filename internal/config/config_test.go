package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/theme"
	"go.uber.org/zap"
)

func load(t *testing.T) *AppConfig {
	t.Helper()
	cfg, err := NewAppConfig(zap.NewNop(), theme.NewCatalog())
	if err != nil {
		t.Fatalf("NewAppConfig: %v", err)
	}
	return cfg
}

func TestNewAppConfig_Defaults(t *testing.T) {
	t.Setenv("PLAYBADGE_CONFIG", "")

	cfg := load(t)

	if cfg.GetListen() != ":8080" {
		t.Errorf("listen = %q", cfg.GetListen())
	}
	if cfg.GetTheme() != "normal" {
		t.Errorf("theme = %q", cfg.GetTheme())
	}
	if cfg.GetWidth() != 400 {
		t.Errorf("width = %d", cfg.GetWidth())
	}
	if cfg.GetPaletteSize() != 4 {
		t.Errorf("palette size = %d", cfg.GetPaletteSize())
	}
	if cfg.GetThumbnailTimeout() != 5*time.Second {
		t.Errorf("thumbnail timeout = %v", cfg.GetThumbnailTimeout())
	}
	if cfg.GetCacheBackend() != "memory" || cfg.GetCacheTTL() != 5*time.Second {
		t.Errorf("cache = %q/%v", cfg.GetCacheBackend(), cfg.GetCacheTTL())
	}
	if cfg.GetSource() != "mpris" || cfg.GetDebounce() != 500*time.Millisecond || cfg.GetHistorySize() != 10 {
		t.Errorf("session = %q/%v/%d", cfg.GetSource(), cfg.GetDebounce(), cfg.GetHistorySize())
	}
	if cfg.GetEmbedFonts() || cfg.GetMarquee() {
		t.Error("vector extras should be off by default")
	}
	if cfg.GetPath() != "" {
		t.Errorf("no file should be read, got %q", cfg.GetPath())
	}
}

func TestNewAppConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playbadge.toml")
	content := `
listen = "127.0.0.1:9000"

[render]
theme = "dark"
width = 5000
embed_fonts = true
thumbnail_timeout = "2s"

[cache]
backend = "redis"
ttl = "30s"
redis_addr = "cache:6379"

[session]
source = "none"
history_size = 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAYBADGE_CONFIG", path)
	t.Setenv("PLAYBADGE_THEME", "minimal")
	t.Setenv("PLAYBADGE_MARQUEE", "true")
	t.Setenv("PLAYBADGE_CACHE_TTL", "1m")

	cfg := load(t)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"listen from file", cfg.GetListen(), "127.0.0.1:9000"},
		{"theme from env", cfg.GetTheme(), "minimal"},
		{"width clamped", cfg.GetWidth(), domain.MaxWidth},
		{"embed fonts from file", cfg.GetEmbedFonts(), true},
		{"marquee from env", cfg.GetMarquee(), true},
		{"timeout from file", cfg.GetThumbnailTimeout(), 2 * time.Second},
		{"backend from file", cfg.GetCacheBackend(), "redis"},
		{"ttl from env", cfg.GetCacheTTL(), time.Minute},
		{"redis addr", cfg.GetRedisAddr(), "cache:6379"},
		{"source", cfg.GetSource(), "none"},
		{"history size", cfg.GetHistorySize(), 3},
		{"untouched default", cfg.GetPaletteSize(), 4},
		{"path", cfg.GetPath(), path},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestNewAppConfig_UnknownThemeFallsBack(t *testing.T) {
	t.Setenv("PLAYBADGE_CONFIG", "")
	t.Setenv("PLAYBADGE_THEME", "neon")

	if got := load(t).GetTheme(); got != theme.Default {
		t.Errorf("theme = %q, want %q", got, theme.Default)
	}
}

func TestNewAppConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		input bool // error must match ErrInvalidInput
	}{
		{name: "bad width", env: map[string]string{"PLAYBADGE_WIDTH": "wide"}, input: true},
		{name: "bad bool", env: map[string]string{"PLAYBADGE_MARQUEE": "sometimes"}, input: true},
		{name: "bad duration", env: map[string]string{"PLAYBADGE_CACHE_TTL": "forever"}, input: true},
		{name: "missing file", env: map[string]string{"PLAYBADGE_CONFIG": "/nonexistent/playbadge.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PLAYBADGE_CONFIG", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewAppConfig(zap.NewNop(), theme.NewCatalog())
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.input && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewAppConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("listen = [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAYBADGE_CONFIG", path)

	if _, err := NewAppConfig(zap.NewNop(), theme.NewCatalog()); err == nil {
		t.Fatal("expected a parse error")
	}
}
