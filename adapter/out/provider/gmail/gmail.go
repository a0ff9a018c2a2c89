// Package gmail implements the mail source on the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"sift_server/core/domain"
	"sift_server/core/port/out"
	"sift_server/core/service/auth"
	"sift_server/pkg/apperr"
	"sift_server/pkg/logger"
)

// Source fetches unread messages via the Gmail API. The credential comes from
// the shared TokenProvider; the API service is rebuilt per fetch so a
// refreshed credential is always picked up.
type Source struct {
	auth *auth.TokenProvider
}

func NewSource(tokens *auth.TokenProvider) *Source {
	return &Source{auth: tokens}
}

// Fetch lists at most `limit` messages matching `query` and decodes each into
// a canonical message. A failing detail fetch drops that message from the
// batch; a failing list call fails the whole fetch.
func (s *Source) Fetch(ctx context.Context, query string, limit int64) ([]domain.EmailMessage, error) {
	client, err := s.auth.Client(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, apperr.TransientFetch(err)
	}

	resp, err := svc.Users.Messages.List("me").
		Q(query).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.TransientFetch(err)
	}

	messages := make([]domain.EmailMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		full, err := svc.Users.Messages.Get("me", m.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			logger.WithError(err).Warn("dropping message %s: detail fetch failed", m.Id)
			continue
		}
		messages = append(messages, parseMessage(full))
	}

	logger.Info("fetched %d of %d listed messages", len(messages), len(resp.Messages))
	return messages, nil
}

func parseMessage(msg *gmail.Message) domain.EmailMessage {
	em := domain.EmailMessage{
		ID:     msg.Id,
		Labels: msg.LabelIds,
	}

	var dateHeader string
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch strings.ToLower(header.Name) {
			case "subject":
				em.Subject = header.Value
			case "from":
				em.Sender = header.Value
			case "date":
				dateHeader = header.Value
			}
		}
	}

	em.Date = parseDate(dateHeader, msg.InternalDate)
	em.Body = decodeBody(msg.Payload)
	return em
}

// parseDate parses the Date header, normalizing away the timezone suffix to a
// fixed interpretation. Falls back to the service-internal timestamp.
func parseDate(header string, internalDate int64) time.Time {
	if header != "" {
		for _, layout := range []string{
			time.RFC1123Z,
			"Mon, 2 Jan 2006 15:04:05 -0700",
			"2 Jan 2006 15:04:05 -0700",
		} {
			if t, err := time.Parse(layout, header); err == nil {
				return t
			}
		}
		// Headers like "Mon, 2 Jan 2006 15:04:05 +0000 (UTC)": keep only the
		// local clock reading.
		if idx := strings.Index(header, " +"); idx > 0 {
			if t, err := time.Parse("Mon, 2 Jan 2006 15:04:05", header[:idx]); err == nil {
				return t
			}
		}
	}

	if internalDate > 0 {
		return time.Unix(internalDate/1000, 0)
	}
	return time.Time{}
}

// decodeBody extracts plain text from a message payload. Priority: inline
// body data, then the first immediate part with a text/plain media type.
// Undecodable data degrades to a sentinel instead of failing the fetch.
func decodeBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return domain.BodyNoContent
	}

	if payload.Body != nil && payload.Body.Data != "" {
		return decodeData(payload.Body.Data)
	}

	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			return decodeData(part.Body.Data)
		}
	}

	return domain.BodyNoContent
}

func decodeData(data string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		// The API usually omits padding, but tolerate padded payloads too.
		decoded, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			logger.WithError(apperr.Decode(err)).Warn("substituting sentinel for undecodable body")
			return domain.BodyDecodeError
		}
	}
	return string(decoded)
}

var _ out.MessageSource = (*Source)(nil)
