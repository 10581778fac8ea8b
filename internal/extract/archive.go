package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"askdoc/internal/models"

	"go.uber.org/zap"
)

// metadataPrefix marks macOS resource-fork entries added by Finder.
const metadataPrefix = "__MACOSX/"

// ErrArchiveTooLarge means the entries of an upload, nested archives
// included, decompress to more than the configured byte budget.
var ErrArchiveTooLarge = errors.New("archive exceeds decompressed size limit")

// budget is the decompressed bytes still allowed for one upload.
type budget struct {
	limit     int64
	remaining int64
}

func newBudget(limit int64) *budget {
	return &budget{limit: limit, remaining: limit}
}

func (b *budget) take(n int64) bool {
	if n > b.remaining {
		return false
	}
	b.remaining -= n
	return true
}

func (b *budget) exceeded() error {
	return &ExtractionError{Format: "zip", Err: fmt.Errorf("%w of %d bytes", ErrArchiveTooLarge, b.limit)}
}

// extractArchive reads and extracts one entry at a time, in archive order.
// Directories, metadata entries, unsupported extensions, oversized and
// unreadable entries are skipped. Running out of budget fails the whole
// upload.
func (e *Extractor) extractArchive(ctx context.Context, data []byte, depth int, b *budget) (models.Document, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.Document{}, &ExtractionError{Format: "zip", Err: fmt.Errorf("open zip: %w", err)}
	}
	var (
		out  models.Document
		read int
	)
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return models.Document{}, err
		}
		name := f.Name
		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") || strings.HasPrefix(name, metadataPrefix) {
			continue
		}
		if !Supported(Ext(name)) {
			e.log.Debug("skipping unsupported archive entry", zap.String("entry", name))
			continue
		}
		if read >= e.maxEntries {
			e.log.Warn("archive entry limit reached", zap.Int("limit", e.maxEntries))
			break
		}
		if f.UncompressedSize64 > uint64(e.maxEntry) {
			e.log.Warn("skipping oversized archive entry", zap.String("entry", name), zap.Uint64("size", f.UncompressedSize64))
			continue
		}
		if f.UncompressedSize64 > uint64(b.remaining) {
			return models.Document{}, b.exceeded()
		}

		entry, err := readEntry(f, e.maxEntry, b)
		if errors.Is(err, ErrArchiveTooLarge) {
			return models.Document{}, b.exceeded()
		}
		if err != nil {
			e.log.Warn("skipping unreadable archive entry", zap.String("entry", name), zap.Error(err))
			continue
		}
		read++

		sub, err := e.extract(ctx, name, entry, depth+1, b)
		if errors.Is(err, ErrArchiveTooLarge) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return models.Document{}, err
		}
		if err != nil {
			e.log.Warn("skipping unreadable archive entry", zap.String("entry", name), zap.Error(err))
			continue
		}
		appendDocument(&out, sub)
	}
	return out, nil
}

// readEntry decompresses f, charging what it reads to b. An entry over limit
// is an ordinary error; running past the budget returns ErrArchiveTooLarge.
func readEntry(f *zip.File, limit int64, b *budget) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	readLimit := limit
	if b.remaining < readLimit {
		readLimit = b.remaining
	}
	data, err := io.ReadAll(io.LimitReader(rc, readLimit+1))
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	n := int64(len(data))
	if n > limit {
		return nil, fmt.Errorf("entry exceeds %d bytes", limit)
	}
	if !b.take(n) {
		return nil, ErrArchiveTooLarge
	}
	return data, nil
}
