// Package bootstrap wires configuration, adapters and services into a
// running API.
package bootstrap

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"sift_server/adapter/out/persistence"
	"sift_server/adapter/out/provider/gmail"
	"sift_server/config"
	"sift_server/core/domain"
	"sift_server/core/llm"
	"sift_server/core/service/auth"
	"sift_server/core/service/extract"
	"sift_server/core/service/pipeline"
	"sift_server/infra/database"
	"sift_server/pkg/logger"
	"sift_server/pkg/metrics"
	"sift_server/pkg/ratelimit"
)

// Dependencies holds all wired services and adapters.
type Dependencies struct {
	Pool  *pgxpool.Pool
	DB    *sqlx.DB
	Redis *redis.Client // nil when not configured

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	EventRepo     *persistence.EventAdapter
	SentimentRepo *persistence.SentimentAdapter

	EventPipeline     *pipeline.Pipeline[*domain.Event]
	SentimentPipeline *pipeline.Pipeline[*domain.Sentiment]
}

// NewDependencies builds the dependency graph. The returned cleanup closes
// connections in reverse order of construction.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	pool, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, trigger rate limiting falls back to in-process counters")
			redisClient = nil
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	eventRepo := persistence.NewEventAdapter(db)
	sentimentRepo := persistence.NewSentimentAdapter(db)

	// Schema setup is idempotent and runs at every start.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := eventRepo.InitSchema(ctx); err != nil {
		db.Close()
		pool.Close()
		return nil, nil, err
	}
	if err := sentimentRepo.InitSchema(ctx); err != nil {
		db.Close()
		pool.Close()
		return nil, nil, err
	}

	tokens := auth.NewTokenProvider(auth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		TokenFile:    cfg.GoogleTokenFile,
		SecretsFile:  cfg.GoogleSecretsFile,
	})
	source := gmail.NewSource(tokens)

	model := llm.NewClient(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})

	// One limiter shared by both extractors: the ceiling belongs to the
	// model account, not to a variant.
	limiter := ratelimit.NewCallLimiter(cfg.ExtractCallsPerWindow, cfg.ExtractWindow)

	eventPipeline := pipeline.New(pipeline.Config[*domain.Event]{
		Variant:   "events",
		Source:    source,
		Extractor: extract.NewEventExtractor(model, limiter, m),
		Sink:      eventRepo,
		Metrics:   m,
		Query:     cfg.FetchQuery,
		Limit:     cfg.FetchLimit,
	})

	sentimentPipeline := pipeline.New(pipeline.Config[*domain.Sentiment]{
		Variant:   "sentiments",
		Source:    source,
		Extractor: extract.NewSentimentExtractor(model, limiter, m),
		Sink:      sentimentRepo,
		Metrics:   m,
		Query:     cfg.FetchQuery,
		Limit:     cfg.FetchLimit,
		Provenance: func(msg domain.EmailMessage, records []*domain.Sentiment) {
			date := msg.Date.Format("2006-01-02")
			for _, s := range records {
				s.Date = date
				s.Source = msg.Sender
			}
		},
	})

	deps := &Dependencies{
		Pool:              pool,
		DB:                db,
		Redis:             redisClient,
		Registry:          registry,
		Metrics:           m,
		EventRepo:         eventRepo,
		SentimentRepo:     sentimentRepo,
		EventPipeline:     eventPipeline,
		SentimentPipeline: sentimentPipeline,
	}

	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close Redis client")
			}
		}
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
		pool.Close()
	}

	return deps, cleanup, nil
}
