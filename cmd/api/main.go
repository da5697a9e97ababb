package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"materialapi/internal/config"
	"materialapi/internal/database"
	"materialapi/internal/database/migration"
	handlers "materialapi/internal/http/handler"
	"materialapi/internal/http/middleware"
	"materialapi/internal/otel"
	"materialapi/internal/repository/postgres"
	"materialapi/internal/service"
	"materialapi/internal/storage"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	shutdownTracing, err := otel.Init(ctx, time.Local)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx) //nolint:errcheck

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.Local, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	fileRepo := postgres.NewFilePostgres(db)
	materialRepo := postgres.NewMaterialPostgres(db)
	fileSvc := service.NewFileService(objStore, fileRepo, time.Duration(cfg.Upload.PresignTTLSec)*time.Second)
	materialSvc := service.NewMaterialService(materialRepo, fileRepo, objStore, cfg.Upload.PublicBaseURL)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMW.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, fileSvc, materialSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
