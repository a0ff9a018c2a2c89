package domain

import "github.com/google/uuid"

// ItemOutcome classifies the result of processing a single message.
type ItemOutcome string

const (
	ItemExtracted ItemOutcome = "extracted"
	ItemFailed    ItemOutcome = "failed"
)

// ItemResult is the explicit per-message result of a run: either a count of
// extracted records or a failure reason. A failed item contributes zero
// records and never aborts the batch.
type ItemResult struct {
	MessageID string      `json:"message_id"`
	Subject   string      `json:"subject,omitempty"`
	Outcome   ItemOutcome `json:"outcome"`
	Records   int         `json:"records"`
	Failure   string      `json:"failure,omitempty"`
}

// RunReport aggregates one pipeline run.
type RunReport struct {
	RunID     uuid.UUID    `json:"run_id"`
	Variant   string       `json:"variant"`
	Fetched   int          `json:"fetched"`
	Items     []ItemResult `json:"items"`
	Persisted int          `json:"persisted"`
}

// FailedItems returns the number of items that failed extraction.
func (r *RunReport) FailedItems() int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == ItemFailed {
			n++
		}
	}
	return n
}
