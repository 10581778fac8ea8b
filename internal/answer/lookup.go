package answer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"askdoc/internal/models"
)

// AnswerField is the column name treated as authoritative in tabular data.
const AnswerField = "answer"

// LookupAnswer returns the first non-empty "answer" field, in record order.
func LookupAnswer(records []models.Record) []string {
	for _, rec := range records {
		if v, ok := rec.Get(AnswerField); ok && strings.TrimSpace(v) != "" {
			return []string{v}
		}
	}
	return []string{NoAnswer}
}

// DecodeRecords accepts either a JSON array of objects or newline-delimited
// JSON objects.
func DecodeRecords(text string) ([]models.Record, error) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "["):
		var out []models.Record
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		return out, nil
	case strings.HasPrefix(text, "{"):
		dec := json.NewDecoder(bytes.NewReader([]byte(text)))
		var out []models.Record
		for {
			var rec models.Record
			err := dec.Decode(&rec)
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if err != nil {
				return nil, fmt.Errorf("decode record %d: %w", len(out), err)
			}
			out = append(out, rec)
		}
	default:
		return nil, errors.New("text is not json records")
	}
}
