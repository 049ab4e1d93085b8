package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snitchvis/docs"
	"snitchvis/internal/config"
	"snitchvis/internal/database"
	"snitchvis/internal/database/migration"
	handlers "snitchvis/internal/http/handler"
	"snitchvis/internal/http/middleware"
	"snitchvis/internal/metrics"
	"snitchvis/internal/otel"
	"snitchvis/internal/playback"
	"snitchvis/internal/repository/postgres"
	"snitchvis/internal/service"
	"snitchvis/internal/storage"
	"snitchvis/internal/tiles"
	"snitchvis/internal/video"
)

// @title Snitchvis API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC
	if tz := os.Getenv("LOG_TZ"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	// The terrain layer is optional; without a tile source everything
	// renders on the plain background and /tiles is not served.
	var (
		tileSvc    service.TileComposer
		tileServer handlers.TileServer
	)
	if cfg.Tiles.BaseURL != "" {
		fetcher := tiles.NewFetcher(cfg.Tiles.BaseURL, time.Duration(cfg.Tiles.TimeoutSec)*time.Second)
		ts := tiles.NewService(fetcher, objStore, tiles.Config{
			CachePrefix: cfg.Tiles.CachePrefix,
			Radius:      cfg.Tiles.Radius,
		}, m)
		tileSvc = ts
		tileServer = ts
	}

	// Initialize repositories and services
	reportRepo := postgres.NewReportPostgres(db)
	jobRepo := postgres.NewRenderJobPostgres(db)

	scenes := service.NewSceneLoader(reportRepo)
	reportSvc := service.NewReportService(objStore, reportRepo, jobRepo)
	frameSvc := service.NewFrameService(scenes, tileSvc, m, cfg.Render)

	rec := &video.Recorder{
		Workers:    cfg.Render.Workers,
		FFmpegPath: cfg.Render.FFmpegPath,
		Metrics:    m,
	}
	renderSvc := service.NewRenderService(jobRepo, reportRepo, scenes, objStore, tileSvc, rec, m, cfg.Render)
	// The worker drains jobs left queued by a previous run before
	// waiting for new ones.
	renderSvc.Start(ctx)
	defer renderSvc.Stop()

	sessions := playback.NewManager(time.Duration(cfg.Playback.SessionTTLSec) * time.Second)
	sessions.StartJanitor(time.Minute)
	defer sessions.Stop()
	playbackSvc := service.NewPlaybackService(scenes, sessions, m, cfg.Render)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Snitch databases for long-lived groups run to tens of MB.
		BodyLimit: 64 << 20,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, handlers.Services{
		Reports:  reportSvc,
		Renders:  renderSvc,
		Frames:   frameSvc,
		Playback: playbackSvc,
		Tiles:    tileServer,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Let the render worker finish its current job on SIGTERM.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
