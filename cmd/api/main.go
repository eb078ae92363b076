package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"thumbgen/internal/adapter/repo"
	"thumbgen/internal/domain"
	"thumbgen/internal/editor"
	"thumbgen/internal/http/handlers"
	httpapi "thumbgen/internal/http/httpapi"
	"thumbgen/internal/infra"
	providerimage "thumbgen/internal/providers/image"
	"thumbgen/internal/providers/google"
	"thumbgen/internal/providers/openai"
	"thumbgen/internal/render"
	"thumbgen/internal/storage"
)

func main() {
	// Optional .env
	_ = godotenv.Load()

	// Config & logger
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Providers. Missing keys surface per request as configuration errors.
	providerHTTP := &http.Client{Timeout: cfg.ProviderTimeout}
	registry := providerimage.NewRegistry(
		providerimage.NewDalleGenerator(openai.NewClient(openai.Options{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			HTTPClient: providerHTTP,
			Logger:     &logger,
		})),
		providerimage.NewImagenGenerator(google.NewClient(google.Options{
			APIKey:     cfg.GoogleAPIKey,
			BaseURL:    cfg.GoogleBaseURL,
			Model:      cfg.ImagenModel,
			HTTPClient: providerHTTP,
			Logger:     &logger,
		})),
	)
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set; openai generations will fail")
	}
	if cfg.GoogleAPIKey == "" {
		logger.Warn().Msg("GOOGLE_API_KEY not set; imagen generations will fail")
	}

	// Asset storage
	var store storage.AssetStore
	switch cfg.AssetBackend {
	case infra.AssetBackendS3:
		store, err = storage.NewS3Store(ctx, storage.S3Config{Bucket: cfg.S3Bucket, Region: cfg.S3Region, Prefix: cfg.S3Prefix})
	default:
		store, err = storage.NewFileStore(cfg.AssetDir)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.AssetBackend).Msg("failed to open asset store")
	}
	resolver := storage.NewResolver(store, storage.NewDownloadClient(cfg.ProviderTimeout), storage.DefaultMaxBytes)

	raster, err := render.NewRasterizer(resolver)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load fonts")
	}

	var checks []handlers.Check

	// Generation log: Postgres when DATABASE_URL is set, memory otherwise.
	var generations domain.GenerationRepository = repo.NewMemoryGenerationRepository(repo.DefaultListLimit)
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
		pgRepo := repo.NewGenerationRepository(infra.NewSQLRunner(dbpool, logger))
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare schema")
		}
		generations = pgRepo
		checks = append(checks, handlers.Check{Name: "postgres", Ping: dbpool.Ping})
	}

	// Session store: Redis when REDIS_ADDR is set.
	var sessions editor.Store = editor.NewMemoryStore()
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if rdb != nil {
		defer rdb.Close()
		sessions = editor.NewRedisStore(rdb, "", 2*cfg.SessionIdleTimeout)
		checks = append(checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	manager := editor.NewManager(editor.Deps{
		Generator:    registry,
		Assets:       resolver,
		Renderer:     raster,
		Generations:  generations,
		Logger:       &logger,
		HistoryLimit: cfg.HistoryLimit,
	}, sessions, cfg.SessionIdleTimeout)
	go manager.Run(ctx)

	app := handlers.NewApp(manager, generations, resolver, &logger)
	app.MaxUploadBytes = cfg.MaxUploadBytes
	app.Checks = checks

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().Str("addr", server.Addr()).Str("assets", cfg.AssetBackend).Msg("API listening")

	// Serve until SIGINT/SIGTERM, then drain.
	if err := server.Run(ctx, 15*time.Second); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
