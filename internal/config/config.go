package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/theme"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	defaultListen           = ":8080"
	defaultPaletteSize      = 4
	defaultThumbnailTimeout = 5 * time.Second
	defaultCacheBackend     = "memory"
	defaultCacheTTL         = 5 * time.Second
	defaultRedisAddr        = "localhost:6379"
	defaultSource           = "mpris"
	defaultDebounce         = 500 * time.Millisecond
	defaultHistorySize      = 10

	envPrefix = "PLAYBADGE_"
)

// fileConfig mirrors the TOML file. Durations are strings such as "5s".
type fileConfig struct {
	Listen  string         `toml:"listen"`
	Render  renderSection  `toml:"render"`
	Cache   cacheSection   `toml:"cache"`
	Session sessionSection `toml:"session"`
}

type renderSection struct {
	Theme            string `toml:"theme"`
	Width            int    `toml:"width"`
	PaletteSize      int    `toml:"palette_size"`
	EmbedFonts       bool   `toml:"embed_fonts"`
	Marquee          bool   `toml:"marquee"`
	ThumbnailTimeout string `toml:"thumbnail_timeout"`
}

type cacheSection struct {
	Backend       string `toml:"backend"`
	TTL           string `toml:"ttl"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisPrefix   string `toml:"redis_prefix"`
}

type sessionSection struct {
	Source      string `toml:"source"`
	Debounce    string `toml:"debounce"`
	HistorySize int    `toml:"history_size"`
}

// AppConfig holds application configuration
type AppConfig struct {
	logger *zap.Logger
	path   string

	listen           string
	theme            string
	width            int
	paletteSize      int
	embedFonts       bool
	marquee          bool
	thumbnailTimeout time.Duration

	cacheBackend  string
	cacheTTL      time.Duration
	redisAddr     string
	redisPassword string
	redisPrefix   string

	source      string
	debounce    time.Duration
	historySize int
}

// NewAppConfig builds the configuration from defaults, then the TOML file
// named by PLAYBADGE_CONFIG, then PLAYBADGE_* environment variables.
// An unknown default theme falls back to the built-in default.
func NewAppConfig(logger *zap.Logger, catalog *theme.Catalog) (*AppConfig, error) {
	fc := fileConfig{
		Listen: defaultListen,
		Render: renderSection{
			Theme:            theme.Default,
			Width:            domain.DefaultWidth,
			PaletteSize:      defaultPaletteSize,
			ThumbnailTimeout: defaultThumbnailTimeout.String(),
		},
		Cache: cacheSection{
			Backend:   defaultCacheBackend,
			TTL:       defaultCacheTTL.String(),
			RedisAddr: defaultRedisAddr,
		},
		Session: sessionSection{
			Source:      defaultSource,
			Debounce:    defaultDebounce.String(),
			HistorySize: defaultHistorySize,
		},
	}

	path := expandPath(os.Getenv(envPrefix + "CONFIG"))
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&fc); err != nil {
		return nil, err
	}

	c := &AppConfig{
		logger:        logger,
		path:          path,
		listen:        fc.Listen,
		theme:         fc.Render.Theme,
		paletteSize:   fc.Render.PaletteSize,
		embedFonts:    fc.Render.EmbedFonts,
		marquee:       fc.Render.Marquee,
		cacheBackend:  strings.ToLower(fc.Cache.Backend),
		redisAddr:     fc.Cache.RedisAddr,
		redisPassword: fc.Cache.RedisPassword,
		redisPrefix:   fc.Cache.RedisPrefix,
		source:        strings.ToLower(fc.Session.Source),
		historySize:   fc.Session.HistorySize,
	}
	c.width = domain.RenderConfig{Width: fc.Render.Width}.Normalize().Width

	var err error
	if c.thumbnailTimeout, err = parseDuration("thumbnail_timeout", fc.Render.ThumbnailTimeout); err != nil {
		return nil, err
	}
	if c.cacheTTL, err = parseDuration("cache ttl", fc.Cache.TTL); err != nil {
		return nil, err
	}
	if c.debounce, err = parseDuration("debounce", fc.Session.Debounce); err != nil {
		return nil, err
	}
	if c.paletteSize <= 0 {
		c.paletteSize = defaultPaletteSize
	}

	if _, err := catalog.Resolve(c.theme); err != nil {
		logger.Warn("Configured theme is not available, using default",
			zap.String("theme", c.theme),
			zap.String("default", theme.Default),
			zap.Strings("available", catalog.Names()))
		c.theme = theme.Default
	}

	logger.Info("Configuration loaded",
		zap.String("file", path),
		zap.String("listen", c.listen),
		zap.String("theme", c.theme),
		zap.Int("width", c.width),
		zap.String("cache", c.cacheBackend),
		zap.String("source", c.source))

	return c, nil
}

// applyEnv overrides file values with any PLAYBADGE_* variables present.
func applyEnv(fc *fileConfig) error {
	strs := map[string]*string{
		"LISTEN":            &fc.Listen,
		"THEME":             &fc.Render.Theme,
		"THUMBNAIL_TIMEOUT": &fc.Render.ThumbnailTimeout,
		"CACHE":             &fc.Cache.Backend,
		"CACHE_TTL":         &fc.Cache.TTL,
		"REDIS_ADDR":        &fc.Cache.RedisAddr,
		"REDIS_PASSWORD":    &fc.Cache.RedisPassword,
		"REDIS_PREFIX":      &fc.Cache.RedisPrefix,
		"SOURCE":            &fc.Session.Source,
		"DEBOUNCE":          &fc.Session.Debounce,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WIDTH":        &fc.Render.Width,
		"PALETTE_SIZE": &fc.Render.PaletteSize,
		"HISTORY_SIZE": &fc.Session.HistorySize,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return domain.WrapError(domain.CodeInvalidInput, err, "%s%s must be an integer", envPrefix, name)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"EMBED_FONTS": &fc.Render.EmbedFonts,
		"MARQUEE":     &fc.Render.Marquee,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return domain.WrapError(domain.CodeInvalidInput, err, "%s%s must be a boolean", envPrefix, name)
		}
		*dst = b
	}
	return nil
}

func parseDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, domain.WrapError(domain.CodeInvalidInput, err, "invalid %s %q", name, s)
	}
	return d, nil
}

// expandPath resolves environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) > 0 && p[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

// GetListen returns the HTTP listen address
func (c *AppConfig) GetListen() string { return c.listen }

// GetTheme returns the theme used when a request names none
func (c *AppConfig) GetTheme() string { return c.theme }

// GetWidth returns the badge width used when a request names none
func (c *AppConfig) GetWidth() int { return c.width }

func (c *AppConfig) GetPaletteSize() int { return c.paletteSize }

func (c *AppConfig) GetEmbedFonts() bool { return c.embedFonts }

func (c *AppConfig) GetMarquee() bool { return c.marquee }

func (c *AppConfig) GetThumbnailTimeout() time.Duration { return c.thumbnailTimeout }

// GetCacheBackend returns "memory", "redis" or "none"
func (c *AppConfig) GetCacheBackend() string { return c.cacheBackend }

func (c *AppConfig) GetCacheTTL() time.Duration { return c.cacheTTL }

func (c *AppConfig) GetRedisAddr() string { return c.redisAddr }

func (c *AppConfig) GetRedisPassword() string { return c.redisPassword }

func (c *AppConfig) GetRedisPrefix() string { return c.redisPrefix }

// GetSource returns the session source: "mpris" or "none"
func (c *AppConfig) GetSource() string { return c.source }

func (c *AppConfig) GetDebounce() time.Duration { return c.debounce }

func (c *AppConfig) GetHistorySize() int { return c.historySize }

// GetPath returns the config file that was read, or "" when none was
func (c *AppConfig) GetPath() string { return c.path }
