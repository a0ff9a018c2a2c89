package domain

import "time"

// Body sentinels produced by the mail source when a payload carries no
// decodable plain-text content. Extraction is still attempted on them.
const (
	BodyNoContent   = "No body content."
	BodyDecodeError = "Error decoding body."
)

// EmailMessage is a canonical decoded mail message. Immutable once fetched;
// owned by a single pipeline run.
type EmailMessage struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	Sender  string    `json:"sender"`
	Date    time.Time `json:"date"`
	Body    string    `json:"body"`
	Labels  []string  `json:"labels"`
}
