// Package pipeline orchestrates one fetch -> extract -> persist run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sift_server/core/domain"
	"sift_server/core/port/out"
	"sift_server/pkg/metrics"
)

// Extractor turns one message body into zero or more structured records.
type Extractor[T any] interface {
	Extract(ctx context.Context, body string) ([]T, error)
}

// Sink persists a flattened batch of records as one logical write.
type Sink[T any] interface {
	InsertBatch(ctx context.Context, records []T) error
}

// Pipeline runs fetch -> extract -> persist for one record variant. A run
// owns its fetched batch exclusively; the pipeline itself is stateless and
// safe for concurrent runs.
type Pipeline[T any] struct {
	variant string
	source  out.MessageSource
	extract Extractor[T]
	sink    Sink[T]
	metrics *metrics.Metrics

	query string
	limit int64

	// provenance stamps message origin onto extracted records where the
	// schema requires it. Nil when the variant carries no provenance fields.
	provenance func(msg domain.EmailMessage, records []T)
}

type Config[T any] struct {
	Variant    string
	Source     out.MessageSource
	Extractor  Extractor[T]
	Sink       Sink[T]
	Metrics    *metrics.Metrics
	Query      string
	Limit      int64
	Provenance func(msg domain.EmailMessage, records []T)
}

func New[T any](cfg Config[T]) *Pipeline[T] {
	if cfg.Query == "" {
		cfg.Query = "label:inbox is:unread"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	return &Pipeline[T]{
		variant:    cfg.Variant,
		source:     cfg.Source,
		extract:    cfg.Extractor,
		sink:       cfg.Sink,
		metrics:    cfg.Metrics,
		query:      cfg.Query,
		limit:      cfg.Limit,
		provenance: cfg.Provenance,
	}
}

// Run executes one pipeline run. A fetch failure (AuthError,
// TransientFetchError) aborts before any batch exists and is surfaced. A
// single message failing extraction contributes zero records; the run still
// completes. A persist failure is surfaced alongside the report; rows already
// written stay written.
func (p *Pipeline[T]) Run(ctx context.Context) (*domain.RunReport, error) {
	started := time.Now()
	report := &domain.RunReport{
		RunID:   uuid.New(),
		Variant: p.variant,
	}

	messages, err := p.source.Fetch(ctx, p.query, p.limit)
	if err != nil {
		p.metrics.RunCompleted(p.variant, "fetch_failed", time.Since(started))
		return report, err
	}
	report.Fetched = len(messages)
	p.metrics.MessagesFetched(p.variant, len(messages))

	var batch []T
	for _, msg := range messages {
		records, err := p.extract.Extract(ctx, msg.Body)
		if err != nil {
			p.metrics.ExtractionFailed(p.variant)
			report.Items = append(report.Items, domain.ItemResult{
				MessageID: msg.ID,
				Subject:   msg.Subject,
				Outcome:   domain.ItemFailed,
				Failure:   err.Error(),
			})
			continue
		}

		if p.provenance != nil {
			p.provenance(msg, records)
		}

		batch = append(batch, records...)
		report.Items = append(report.Items, domain.ItemResult{
			MessageID: msg.ID,
			Subject:   msg.Subject,
			Outcome:   domain.ItemExtracted,
			Records:   len(records),
		})
	}

	if len(batch) > 0 {
		if err := p.sink.InsertBatch(ctx, batch); err != nil {
			p.metrics.RunCompleted(p.variant, "persist_failed", time.Since(started))
			return report, err
		}
	}
	report.Persisted = len(batch)
	p.metrics.RecordsPersisted(p.variant, len(batch))
	p.metrics.RunCompleted(p.variant, "ok", time.Since(started))

	return report, nil
}
