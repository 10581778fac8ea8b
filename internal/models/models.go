package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Upload struct {
	Filename string
	Data     []byte
}

type Request struct {
	Question string
	File     *Upload
}

type ArchiveEntry struct {
	Name string
	Data []byte
}

type Field struct {
	Key   string
	Value string
}

// Record is one tabular row. Field order follows the source header.
type Record []Field

func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps object key order. Non-string values are kept as their
// raw JSON text.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}
	out := Record{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("record: expected string key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: decode %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: rawValue(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

func rawValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// Document is everything extracted from one upload. Text holds all of it,
// tabular rows included; FreeText only the parts that came from non-tabular
// sources.
type Document struct {
	Text     string   `json:"text"`
	FreeText string   `json:"free_text,omitempty"`
	Records  []Record `json:"records,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

func (d Document) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && len(d.Records) == 0
}

type AskResponse struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
