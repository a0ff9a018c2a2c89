package domain

// Sentiment is a company sentiment score extracted from a message body.
// Ticker, CompanyName and SentimentScore come from the model output and stay
// nil when absent. Date and Source are provenance: the date and sender of the
// originating message, attached by the pipeline.
type Sentiment struct {
	ID             int64    `json:"id" db:"id"`
	Ticker         *string  `json:"ticker" db:"ticker"`
	CompanyName    *string  `json:"company_name" db:"company_name"`
	SentimentScore *float64 `json:"sentiment_score" db:"sentiment_score"`
	Date           string   `json:"date" db:"date"`
	Source         string   `json:"source" db:"source"`
}
