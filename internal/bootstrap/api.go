package bootstrap

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sift_server/adapter/in/http"
	"sift_server/config"
	"sift_server/infra/middleware"
	"sift_server/pkg/logger"
)

// NewAPI builds the Fiber app with all routes and middleware wired.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "mailsift",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json is a drop-in, faster encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// Trigger runs are synchronous and bounded by the model rate
		// limiter; reads are cheap. No streaming or large bodies here.
		BodyLimit: 1 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	healthHandler := http.NewHealthHandler(deps.Pool, deps.Redis)
	healthHandler.Register(app)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
		deps.Registry,
		promhttp.HandlerOpts{},
	)))

	api := app.Group("/api/v1")

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.TriggerRateLimit,
		Window:   cfg.TriggerRateWindow,
		Redis:    deps.Redis,
	})
	api.Use(rateLimiter.Handler())

	pipelineHandler := http.NewPipelineHandler(
		deps.EventPipeline,
		deps.SentimentPipeline,
		deps.EventRepo,
		deps.SentimentRepo,
	)
	pipelineHandler.Register(api)

	logger.Info("API server initialized")

	return app, cleanup, nil
}
