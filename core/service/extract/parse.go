package extract

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"sift_server/pkg/apperr"
)

// rawRecord is one loosely-typed object from the model output. The model
// enforces no schema, so fields are validated here at the boundary and only
// then converted to typed records. Missing fields become nil, never values
// that look like real data.
type rawRecord map[string]any

// parseRecords parses model output strictly as a JSON array of objects.
// Markdown code fences around the array are tolerated; anything else fails.
func parseRecords(text string) ([]rawRecord, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var records []rawRecord
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, apperr.ExtractionParse(err)
	}
	return records, nil
}

// str returns the first present non-empty string field among keys.
func (r rawRecord) str(keys ...string) *string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		return &s
	}
	return nil
}

// score returns the first present numeric field among keys, but only when it
// falls inside [lo, hi]. Out-of-range and non-numeric values are dropped.
func (r rawRecord) score(lo, hi float64, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}

		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}

		if f < lo || f > hi {
			continue
		}
		return &f
	}
	return nil
}
