package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"askdoc/internal/models"
	"askdoc/internal/util"
)

// extractCSV maps every row onto the header. The rows are kept as records
// and also rendered into the text as one JSON object per line.
func extractCSV(data []byte) (models.Document, error) {
	records, err := parseCSV(data)
	if err != nil {
		return models.Document{}, err
	}
	text, err := recordsText(records)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{Text: text, Records: records}, nil
}

func parseCSV(data []byte) ([]models.Record, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header[0] = util.StripBOM(header[0])

	var out []models.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		width := len(header)
		if len(row) > width {
			width = len(row)
		}
		rec := make(models.Record, 0, width)
		for i := 0; i < width; i++ {
			key := "_" + strconv.Itoa(i)
			if i < len(header) {
				key = header[i]
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			rec = append(rec, models.Field{Key: key, Value: val})
		}
		out = append(out, rec)
	}
	return out, nil
}

func recordsText(records []models.Record) (string, error) {
	var b strings.Builder
	for i, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("encode csv row %d: %w", i, err)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(line)
	}
	return b.String(), nil
}
