package http

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sift_server/core/domain"
	"sift_server/infra/middleware"
	"sift_server/pkg/apperr"
)

type fakeRunner struct {
	report *domain.RunReport
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context) (*domain.RunReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeEventRepo struct {
	events   []*domain.Event
	err      error
	lastFrom string
}

func (f *fakeEventRepo) InsertBatch(ctx context.Context, events []*domain.Event) error {
	return nil
}

func (f *fakeEventRepo) ListFrom(ctx context.Context, from string) ([]*domain.Event, error) {
	f.lastFrom = from
	return f.events, f.err
}

type fakeSentimentRepo struct {
	sentiments []*domain.Sentiment
	err        error
}

func (f *fakeSentimentRepo) InsertBatch(ctx context.Context, sentiments []*domain.Sentiment) error {
	return nil
}

func (f *fakeSentimentRepo) List(ctx context.Context) ([]*domain.Sentiment, error) {
	return f.sentiments, f.err
}

func newTestApp(h *PipelineHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
	})
	h.Register(app.Group("/api/v1"))
	return app
}

func okReport(variant string) *domain.RunReport {
	return &domain.RunReport{
		RunID:     uuid.New(),
		Variant:   variant,
		Fetched:   2,
		Persisted: 3,
	}
}

func TestUpdateEventsSuccess(t *testing.T) {
	runner := &fakeRunner{report: okReport("events")}
	h := NewPipelineHandler(runner, &fakeRunner{}, &fakeEventRepo{}, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/update", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Events updated successfully." {
		t.Errorf("unexpected body %q", body)
	}
	if runner.calls != 1 {
		t.Errorf("expected one run, got %d", runner.calls)
	}
}

func TestUpdateSentimentsSuccess(t *testing.T) {
	runner := &fakeRunner{report: okReport("sentiments")}
	h := NewPipelineHandler(&fakeRunner{}, runner, &fakeEventRepo{}, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/sentiments/update", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Financial sentiments updated successfully." {
		t.Errorf("unexpected body %q", body)
	}
}

func TestUpdateEventsAuthFailure(t *testing.T) {
	runner := &fakeRunner{
		report: &domain.RunReport{Variant: "events"},
		err:    apperr.Auth("mailbox credentials missing", errors.New("no token")),
	}
	h := NewPipelineHandler(runner, &fakeRunner{}, &fakeEventRepo{}, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/update", nil))
	if err != nil {
		t.Fatal(err)
	}
	// A failed credential is the service's problem, not the trigger
	// caller's, so the response must be 5xx-class.
	if resp.StatusCode < 500 || resp.StatusCode > 599 {
		t.Fatalf("expected a 5xx status for an auth-failed run, got %d", resp.StatusCode)
	}
	if resp.StatusCode != 502 {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestUpdateSentimentsStorageFailure(t *testing.T) {
	runner := &fakeRunner{
		report: &domain.RunReport{Variant: "sentiments", Fetched: 2},
		err:    apperr.Storage("insert sentiment", errors.New("connection refused")),
	}
	h := NewPipelineHandler(&fakeRunner{}, runner, &fakeEventRepo{}, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/sentiments/update", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestListEventsDefaultsToToday(t *testing.T) {
	repo := &fakeEventRepo{}
	h := NewPipelineHandler(&fakeRunner{}, &fakeRunner{}, repo, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/events", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(repo.lastFrom) != len("2006-01-02") {
		t.Errorf("expected ISO date default, got %q", repo.lastFrom)
	}
}

func TestListEventsFromQuery(t *testing.T) {
	repo := &fakeEventRepo{}
	h := NewPipelineHandler(&fakeRunner{}, &fakeRunner{}, repo, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/events?from=2024-01-01", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastFrom != "2024-01-01" {
		t.Errorf("expected from passed through, got %q", repo.lastFrom)
	}
}

func TestListEventsRejectsMalformedFrom(t *testing.T) {
	repo := &fakeEventRepo{}
	h := NewPipelineHandler(&fakeRunner{}, &fakeRunner{}, repo, &fakeSentimentRepo{})
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/events?from=yesterday", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if repo.lastFrom != "" {
		t.Errorf("repository must not be queried with a malformed date, got %q", repo.lastFrom)
	}
}

func TestListSentiments(t *testing.T) {
	ticker := "ACME"
	repo := &fakeSentimentRepo{sentiments: []*domain.Sentiment{{Ticker: &ticker}}}
	h := NewPipelineHandler(&fakeRunner{}, &fakeRunner{}, &fakeEventRepo{}, repo)
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/sentiments", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
