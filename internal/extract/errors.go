package extract

import (
	"fmt"

	"askdoc/internal/util"
)

// ErrEmptyExtraction means the upload produced neither text nor records.
var ErrEmptyExtraction = util.ErrNoReadableText

type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.Ext)
}

// ExtractionError is a format-specific parse failure.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
