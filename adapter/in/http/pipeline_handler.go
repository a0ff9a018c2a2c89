// Package http provides the inbound HTTP adapters.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"sift_server/core/domain"
	"sift_server/core/port/out"
	"sift_server/pkg/apperr"
	"sift_server/pkg/logger"
	"sift_server/pkg/response"
)

// Runner triggers one synchronous ingestion run.
type Runner interface {
	Run(ctx context.Context) (*domain.RunReport, error)
}

// PipelineHandler exposes trigger and read endpoints for both record
// variants. Triggers run the pipeline inline; the response is sent only
// after persistence finished.
type PipelineHandler struct {
	events     Runner
	sentiments Runner

	eventRepo     out.EventRepository
	sentimentRepo out.SentimentRepository
}

func NewPipelineHandler(
	events Runner,
	sentiments Runner,
	eventRepo out.EventRepository,
	sentimentRepo out.SentimentRepository,
) *PipelineHandler {
	return &PipelineHandler{
		events:        events,
		sentiments:    sentiments,
		eventRepo:     eventRepo,
		sentimentRepo: sentimentRepo,
	}
}

func (h *PipelineHandler) Register(router fiber.Router) {
	router.Post("/events/update", h.UpdateEvents)
	router.Get("/events", h.ListEvents)
	router.Post("/sentiments/update", h.UpdateSentiments)
	router.Get("/sentiments", h.ListSentiments)
}

// UpdateEvents runs the event pipeline against the configured mailbox query.
func (h *PipelineHandler) UpdateEvents(c *fiber.Ctx) error {
	report, err := h.events.Run(c.UserContext())
	if err != nil {
		return err
	}
	logRun(report)
	return c.SendString("Events updated successfully.")
}

// UpdateSentiments runs the sentiment pipeline.
func (h *PipelineHandler) UpdateSentiments(c *fiber.Ctx) error {
	report, err := h.sentiments.Run(c.UserContext())
	if err != nil {
		return err
	}
	logRun(report)
	return c.SendString("Financial sentiments updated successfully.")
}

// ListEvents returns stored events with date >= from (default: today).
func (h *PipelineHandler) ListEvents(c *fiber.Ctx) error {
	from := c.Query("from")
	if from == "" {
		from = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", from); err != nil {
		return apperr.BadRequest("from must be a date formatted YYYY-MM-DD").
			WithDetail("from", from)
	}

	events, err := h.eventRepo.ListFrom(c.UserContext(), from)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, events, &response.Meta{Total: len(events)})
}

// ListSentiments returns all stored sentiment records, newest date first.
func (h *PipelineHandler) ListSentiments(c *fiber.Ctx) error {
	sentiments, err := h.sentimentRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, sentiments, &response.Meta{Total: len(sentiments)})
}

func logRun(report *domain.RunReport) {
	log := logger.WithFields(map[string]any{
		"run_id":    report.RunID.String(),
		"variant":   report.Variant,
		"fetched":   report.Fetched,
		"persisted": report.Persisted,
	})
	if failed := report.FailedItems(); failed > 0 {
		for _, item := range report.Items {
			if item.Outcome != domain.ItemFailed {
				continue
			}
			log.WithFields(map[string]any{
				"message_id": item.MessageID,
				"subject":    item.Subject,
			}).Warn("Message skipped: %s", item.Failure)
		}
		log.Warn("Run completed with %d failed messages", failed)
		return
	}
	log.Info("Run completed")
}
