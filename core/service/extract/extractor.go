// Package extract turns free-text message bodies into structured records via
// the external text-generation model.
package extract

import (
	"context"
	"time"

	"sift_server/core/domain"
	"sift_server/core/port/out"
	"sift_server/pkg/metrics"
	"sift_server/pkg/ratelimit"
)

// Fixed instruction templates prepended to the message body. The model is
// asked for a bare JSON array; parseRecords rejects anything else.
const (
	eventInstruction = "Extract events from the email content. " +
		"Return a JSON array of objects with fields: Date, Name, Time, Location, Description, Price. " +
		"Return only the JSON array."

	sentimentInstruction = "Analyze the email content for mentions of companies or commodities. " +
		"For each mention, return a JSON object with fields: 'Ticker', 'CompanyName' and 'SentimentScore' (a number from 1 to 10). " +
		"Return all objects as a single JSON array, and only the JSON array."
)

// EventExtractor extracts calendar events from message text.
type EventExtractor struct {
	llm     out.Completer
	limiter *ratelimit.CallLimiter
	metrics *metrics.Metrics
}

func NewEventExtractor(llm out.Completer, limiter *ratelimit.CallLimiter, m *metrics.Metrics) *EventExtractor {
	return &EventExtractor{llm: llm, limiter: limiter, metrics: m}
}

// Extract calls the model and returns zero or more events. The call blocks on
// the shared rate limiter until a slot frees. A model error or unparsable
// output returns an error; the caller decides that one message failing does
// not abort the batch.
func (e *EventExtractor) Extract(ctx context.Context, body string) ([]*domain.Event, error) {
	records, err := completeRecords(ctx, e.llm, e.limiter, e.metrics, eventInstruction, body)
	if err != nil {
		return nil, err
	}

	events := make([]*domain.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, &domain.Event{
			Date:        rec.str("Date", "date"),
			Name:        rec.str("Name", "name"),
			Time:        rec.str("Time", "time"),
			Location:    rec.str("Location", "location"),
			Description: rec.str("Description", "description"),
			Price:       rec.str("Price", "price"),
		})
	}
	return events, nil
}

// SentimentExtractor extracts company sentiment scores from message text.
// Provenance fields (date, source) are attached by the pipeline from the
// originating message, not taken from the model output.
type SentimentExtractor struct {
	llm     out.Completer
	limiter *ratelimit.CallLimiter
	metrics *metrics.Metrics
}

func NewSentimentExtractor(llm out.Completer, limiter *ratelimit.CallLimiter, m *metrics.Metrics) *SentimentExtractor {
	return &SentimentExtractor{llm: llm, limiter: limiter, metrics: m}
}

func (e *SentimentExtractor) Extract(ctx context.Context, body string) ([]*domain.Sentiment, error) {
	records, err := completeRecords(ctx, e.llm, e.limiter, e.metrics, sentimentInstruction, body)
	if err != nil {
		return nil, err
	}

	sentiments := make([]*domain.Sentiment, 0, len(records))
	for _, rec := range records {
		sentiments = append(sentiments, &domain.Sentiment{
			Ticker:         rec.str("Ticker", "ticker"),
			CompanyName:    rec.str("CompanyName", "company_name"),
			SentimentScore: rec.score(1, 10, "SentimentScore", "SentimentScore (1-10)", "sentiment_score"),
		})
	}
	return sentiments, nil
}

// completeRecords waits for a rate-limit slot, invokes the model with the
// instruction plus the message text, and parses the response.
func completeRecords(
	ctx context.Context,
	llm out.Completer,
	limiter *ratelimit.CallLimiter,
	m *metrics.Metrics,
	instruction, body string,
) ([]rawRecord, error) {
	waitStart := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	m.LimiterWaited(time.Since(waitStart))

	resp, err := llm.Complete(ctx, instruction+"\n\n"+body)
	if err != nil {
		return nil, err
	}
	return parseRecords(resp)
}
