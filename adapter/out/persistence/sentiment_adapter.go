package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sift_server/core/domain"
	"sift_server/core/port/out"
	"sift_server/pkg/apperr"
)

const sentimentSchema = `
	CREATE TABLE IF NOT EXISTS financial_sentiments (
		id              BIGSERIAL PRIMARY KEY,
		ticker          TEXT,
		company_name    TEXT,
		sentiment_score DOUBLE PRECISION,
		date            TEXT,
		source          TEXT
	)`

// SentimentAdapter implements out.SentimentRepository using PostgreSQL.
type SentimentAdapter struct {
	db *sqlx.DB
}

func NewSentimentAdapter(db *sqlx.DB) *SentimentAdapter {
	return &SentimentAdapter{db: db}
}

// InitSchema creates the financial_sentiments table if absent.
func (a *SentimentAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, sentimentSchema); err != nil {
		return apperr.Storage("create financial_sentiments table", err)
	}
	return nil
}

// InsertBatch writes sentiment records in extraction order; earlier rows stay
// committed when a later row fails.
func (a *SentimentAdapter) InsertBatch(ctx context.Context, sentiments []*domain.Sentiment) error {
	query := `
		INSERT INTO financial_sentiments (ticker, company_name, sentiment_score, date, source)
		VALUES ($1, $2, $3, $4, $5)`

	for _, s := range sentiments {
		if _, err := a.db.ExecContext(ctx, query,
			s.Ticker, s.CompanyName, s.SentimentScore, s.Date, s.Source,
		); err != nil {
			return apperr.Storage("insert sentiment", err)
		}
	}
	return nil
}

// List returns all sentiment records, most recent date first.
func (a *SentimentAdapter) List(ctx context.Context) ([]*domain.Sentiment, error) {
	var sentiments []*domain.Sentiment
	query := `
		SELECT id, ticker, company_name, sentiment_score, date, source
		FROM financial_sentiments
		ORDER BY date DESC, id DESC`

	if err := a.db.SelectContext(ctx, &sentiments, query); err != nil {
		return nil, apperr.Storage("list sentiments", err)
	}
	return sentiments, nil
}

var _ out.SentimentRepository = (*SentimentAdapter)(nil)
