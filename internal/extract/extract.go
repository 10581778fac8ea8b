package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"askdoc/internal/models"

	"github.com/google/go-tika/tika"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type format struct {
	name string
	mime string
}

var formats = map[string]format{
	".txt":  {name: "txt", mime: "text/plain"},
	".json": {name: "json", mime: "application/json"},
	".csv":  {name: "csv", mime: "text/csv"},
	".pdf":  {name: "pdf", mime: "application/pdf"},
	".xlsx": {name: "xlsx", mime: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".xls":  {name: "xls", mime: "application/vnd.ms-excel"},
	".docx": {name: "docx", mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".doc":  {name: "doc", mime: "application/msword"},
	".zip":  {name: "zip", mime: "application/zip"},
}

var supportedOrder = []string{".txt", ".json", ".csv", ".pdf", ".xlsx", ".xls", ".docx", ".doc", ".zip"}

// maxArchiveDepth bounds zip-in-zip recursion.
const maxArchiveDepth = 3

// Ext returns the lower-cased extension of a file or archive entry name.
func Ext(name string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
}

func Supported(ext string) bool {
	_, ok := formats[strings.ToLower(ext)]
	return ok
}

func SupportedList() []string {
	out := make([]string, len(supportedOrder))
	copy(out, supportedOrder)
	return out
}

type Options struct {
	TikaURL           string
	MaxArchiveEntries int
	MaxEntryBytes     int64
	MaxArchiveBytes   int64
	HTTPClient        *http.Client
}

type Extractor struct {
	log        *zap.Logger
	tika       *tika.Client
	sanitizer  *bluemonday.Policy
	maxEntries int
	maxEntry   int64
	maxArchive int64
}

func New(opts Options, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Extractor{
		log:        log,
		sanitizer:  bluemonday.StrictPolicy(),
		maxEntries: opts.MaxArchiveEntries,
		maxEntry:   opts.MaxEntryBytes,
		maxArchive: opts.MaxArchiveBytes,
	}
	if e.maxEntries <= 0 {
		e.maxEntries = 1000
	}
	if e.maxEntry <= 0 {
		e.maxEntry = 64 << 20
	}
	if e.maxArchive <= 0 {
		e.maxArchive = 256 << 20
	}
	if strings.TrimSpace(opts.TikaURL) != "" {
		e.tika = tika.NewClient(opts.HTTPClient, strings.TrimRight(opts.TikaURL, "/"))
	}
	return e
}

// Extract turns one uploaded file into a Document. Archives are unpacked and
// each entry goes through the same per-file path.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (models.Document, error) {
	doc, err := e.extract(ctx, filename, data, 0, newBudget(e.maxArchive))
	if err != nil {
		return models.Document{}, err
	}
	if doc.Empty() {
		return models.Document{}, ErrEmptyExtraction
	}
	return doc, nil
}

func (e *Extractor) extract(ctx context.Context, name string, data []byte, depth int, b *budget) (models.Document, error) {
	ext := Ext(name)
	f, ok := formats[ext]
	if !ok {
		return models.Document{}, &UnsupportedFormatError{Ext: ext}
	}
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}

	var (
		doc  models.Document
		text string
		err  error
	)
	switch ext {
	case ".zip":
		if depth >= maxArchiveDepth {
			return models.Document{}, &ExtractionError{Format: f.name, Err: fmt.Errorf("archive nested deeper than %d levels", maxArchiveDepth)}
		}
		return e.extractArchive(ctx, data, depth, b)
	case ".txt", ".json":
		text = decodeText(data)
	case ".csv":
		doc, err = extractCSV(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".xlsx":
		text, err = extractXLSX(data)
	case ".xls":
		text, err = extractXLS(data)
	case ".docx":
		text, err = e.extractDOCX(ctx, data, f.mime)
	case ".doc":
		text, err = e.extractWithTika(ctx, data, f.mime)
	}
	if err != nil {
		var exErr *ExtractionError
		if errors.As(err, &exErr) {
			return models.Document{}, err
		}
		return models.Document{}, &ExtractionError{Format: f.name, Err: err}
	}
	if text != "" {
		doc.Text = text
		doc.FreeText = text
	}
	doc.Sources = []string{name}
	e.log.Debug("extracted file",
		zap.String("name", name),
		zap.String("mime", f.mime),
		zap.Int("text_len", len(doc.Text)),
		zap.Int("records", len(doc.Records)),
	)
	return doc, nil
}

func appendDocument(dst *models.Document, src models.Document) {
	if strings.TrimSpace(src.Text) != "" {
		if dst.Text != "" {
			dst.Text += "\n"
		}
		dst.Text += src.Text
	}
	if strings.TrimSpace(src.FreeText) != "" {
		if dst.FreeText != "" {
			dst.FreeText += "\n"
		}
		dst.FreeText += src.FreeText
	}
	dst.Records = append(dst.Records, src.Records...)
	dst.Sources = append(dst.Sources, src.Sources...)
}
