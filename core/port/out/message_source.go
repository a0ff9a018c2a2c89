package out

import (
	"context"

	"sift_server/core/domain"
)

// MessageSource yields a bounded batch of decoded messages matching a filter.
// Implementations return an AuthError when credentials cannot be established
// or refreshed, and a TransientFetchError when the remote list call fails. A
// per-message detail-fetch failure drops that message from the result; the
// batch continues.
type MessageSource interface {
	Fetch(ctx context.Context, query string, limit int64) ([]domain.EmailMessage, error)
}
