package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"

	"sift_server/core/domain"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecodeBodyInlineData(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: b64("hello inline")},
	}
	if got := decodeBody(payload); got != "hello inline" {
		t.Errorf("expected inline body, got %q", got)
	}
}

func TestDecodeBodyFirstPlainTextPart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<b>html</b>")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("plain text wins")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("second plain part")}},
		},
	}
	if got := decodeBody(payload); got != "plain text wins" {
		t.Errorf("expected first text/plain part, got %q", got)
	}
}

func TestDecodeBodyNoTextPart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{MimeType: "image/png", Body: &gmail.MessagePartBody{Data: b64("binary")}},
		},
	}
	if got := decodeBody(payload); got != domain.BodyNoContent {
		t.Errorf("expected no-content sentinel, got %q", got)
	}
}

func TestDecodeBodyNilPayload(t *testing.T) {
	if got := decodeBody(nil); got != domain.BodyNoContent {
		t.Errorf("expected no-content sentinel, got %q", got)
	}
}

func TestDecodeBodyMalformedEncoding(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: "%%% not base64 %%%"},
	}
	if got := decodeBody(payload); got != domain.BodyDecodeError {
		t.Errorf("expected decode-error sentinel, got %q", got)
	}
}

func TestDecodeDataAcceptsPadded(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("padded body"))
	if got := decodeData(padded); got != "padded body" {
		t.Errorf("expected decoded padded data, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "rfc1123z",
			header: "Mon, 15 Jan 2024 10:30:00 +0100",
			want:   "2024-01-15",
		},
		{
			name:   "single digit day",
			header: "Tue, 2 Jan 2024 08:00:00 -0500",
			want:   "2024-01-02",
		},
		{
			name:   "trailing zone comment",
			header: "Mon, 15 Jan 2024 10:30:00 +0000 (UTC)",
			want:   "2024-01-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.header, 0)
			if got.IsZero() {
				t.Fatalf("failed to parse %q", tt.header)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseDateFallsBackToInternalDate(t *testing.T) {
	internal := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	got := parseDate("garbage", internal)
	if got.UTC().Format("2006-01-02") != "2024-06-01" {
		t.Errorf("expected internal date fallback, got %v", got)
	}
}

func TestParseMessage(t *testing.T) {
	msg := &gmail.Message{
		Id:       "msg-1",
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Town Hall"},
				{Name: "From", Value: "Events <events@example.com>"},
				{Name: "Date", Value: "Mon, 15 Jan 2024 10:30:00 +0000"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("see you there")}},
			},
		},
	}

	em := parseMessage(msg)
	if em.ID != "msg-1" {
		t.Errorf("expected id msg-1, got %s", em.ID)
	}
	if em.Subject != "Town Hall" {
		t.Errorf("expected subject Town Hall, got %s", em.Subject)
	}
	if em.Sender != "Events <events@example.com>" {
		t.Errorf("unexpected sender %s", em.Sender)
	}
	if em.Body != "see you there" {
		t.Errorf("unexpected body %q", em.Body)
	}
	if len(em.Labels) != 2 {
		t.Errorf("expected 2 labels, got %d", len(em.Labels))
	}
}
