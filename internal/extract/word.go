package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"
)

var errNoTika = errors.New("no tika server configured")

// extractDOCX reads word/document.xml natively and falls back to Tika when
// the package cannot be parsed.
func (e *Extractor) extractDOCX(ctx context.Context, data []byte, mime string) (string, error) {
	text, err := readDOCX(data)
	if err == nil {
		return text, nil
	}
	if e.tika == nil {
		return "", err
	}
	e.log.Debug("docx parse failed, trying tika", zap.Error(err))
	return e.extractWithTika(ctx, data, mime)
}

func readDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()
	return wordXMLText(r.Editable().GetContent())
}

// wordXMLText pulls run text out of WordprocessingML, one paragraph per line.
func wordXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// extractWithTika sends the file to a Tika server, declaring its MIME type,
// and strips the returned XHTML down to text.
func (e *Extractor) extractWithTika(ctx context.Context, data []byte, mime string) (string, error) {
	if e.tika == nil {
		return "", errNoTika
	}
	body, err := e.tika.ParseWithHeader(ctx, bytes.NewReader(data), http.Header{"Content-Type": {mime}})
	if err != nil {
		return "", fmt.Errorf("tika parse: %w", err)
	}
	return cleanLines(html.UnescapeString(e.sanitizer.Sanitize(body))), nil
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
