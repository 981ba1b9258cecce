package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/genricoloni/playbadge/internal/cache"
	"github.com/genricoloni/playbadge/internal/config"
	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/fetcher"
	"github.com/genricoloni/playbadge/internal/monitor"
	"github.com/genricoloni/playbadge/internal/palette"
	"github.com/genricoloni/playbadge/internal/render"
	"github.com/genricoloni/playbadge/internal/server"
	"github.com/genricoloni/playbadge/internal/theme"
	"github.com/genricoloni/playbadge/internal/thumbnail"
	"github.com/genricoloni/playbadge/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const cacheConnectTimeout = 5 * time.Second

// RenderOptions provides everything needed to draw a badge.
var RenderOptions = fx.Options(
	fx.Provide(
		newLogger,
		theme.NewCatalog,
		config.NewAppConfig,
		fx.Annotate(newFetcher, fx.As(new(domain.Fetcher))),
		newThumbnailProcessor,
		palette.NewExtractor,
		newAssetLoader,
		newVectorRenderer,
		render.NewBitmapRenderer,
		render.NewService,
	),
)

// AppOptions is the complete daemon: session tracking plus the HTTP server.
var AppOptions = fx.Options(
	RenderOptions,
	fx.Provide(
		newSessionSource,
		fx.Annotate(newTracker, fx.As(fx.Self()), fx.As(new(domain.SessionProvider))),
		newCache,
		newServer,
	),
	fx.Invoke(registerHooks),
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Follow the media session and serve badges over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(
				AppOptions,
				fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: log}
				}),
			)

			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}

// newFetcher allows file:// art, which MPRIS players report for local covers.
func newFetcher(logger *zap.Logger, cfg *config.AppConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(logger, cfg.GetThumbnailTimeout()).AllowLocalFiles()
}

func newThumbnailProcessor(logger *zap.Logger, f domain.Fetcher, cfg *config.AppConfig) *thumbnail.Processor {
	return thumbnail.NewProcessor(logger, f, cfg.GetThumbnailTimeout())
}

func newAssetLoader(logger *zap.Logger, thumbs *thumbnail.Processor, extractor *palette.Extractor, cfg *config.AppConfig) *render.AssetLoader {
	return render.NewAssetLoader(logger, thumbs, extractor, cfg.GetPaletteSize())
}

func newVectorRenderer(logger *zap.Logger, assets *render.AssetLoader, cfg *config.AppConfig) *render.VectorRenderer {
	return render.NewVectorRenderer(logger, assets, render.Options{
		EmbedFonts: cfg.GetEmbedFonts(),
		Marquee:    cfg.GetMarquee(),
	})
}

func newSessionSource(logger *zap.Logger, cfg *config.AppConfig) (domain.SessionSource, error) {
	switch cfg.GetSource() {
	case "mpris":
		return monitor.NewMprisMonitor(logger), nil
	case "none":
		return monitor.NewNopSource(), nil
	default:
		return nil, domain.NewError(domain.CodeInvalidInput, "unknown session source %q", cfg.GetSource())
	}
}

func newTracker(logger *zap.Logger, src domain.SessionSource, cfg *config.AppConfig) *tracker.Tracker {
	return tracker.New(logger, src, tracker.Options{
		Debounce:    cfg.GetDebounce(),
		HistorySize: cfg.GetHistorySize(),
	})
}

func newCache(cfg *config.AppConfig) (domain.Cache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheConnectTimeout)
	defer cancel()
	return cache.Open(ctx, cfg.GetCacheBackend(), cache.RedisConfig{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		Prefix:   cfg.GetRedisPrefix(),
	})
}

func newServer(
	logger *zap.Logger,
	svc *render.Service,
	sessions domain.SessionProvider,
	c domain.Cache,
	catalog *theme.Catalog,
	cfg *config.AppConfig,
) *server.Server {
	return server.New(logger, svc, sessions, c, server.Options{
		Addr:         cfg.GetListen(),
		DefaultTheme: cfg.GetTheme(),
		DefaultWidth: cfg.GetWidth(),
		CacheTTL:     cfg.GetCacheTTL(),
		Source:       cfg.GetSource(),
		CacheBackend: cfg.GetCacheBackend(),
		Themes:       catalog.Names(),
	})
}

// registerHooks wires the lifecycle: source, then tracker, then server.
// fx stops them in reverse order.
func registerHooks(
	lc fx.Lifecycle,
	logger *zap.Logger,
	src domain.SessionSource,
	tr *tracker.Tracker,
	srv *server.Server,
) {
	var cancelSource context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			cancelSource = cancel
			go func() {
				// The server keeps answering with history or idle badges
				// when the source cannot run
				if err := src.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Session source stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelSource()
			if err := src.Stop(ctx); err != nil {
				return fmt.Errorf("stopping session source: %w", err)
			}
			return nil
		},
	})
	lc.Append(fx.Hook{OnStart: tr.Start, OnStop: tr.Stop})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := srv.Start(ctx); err != nil {
				return err
			}
			logger.Info("playbadge started", zap.String("addr", srv.Addr()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return srv.Stop(ctx)
		},
	})
}
