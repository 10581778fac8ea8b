package util

import "strings"

// SanitizeText drops NUL and other non-printing control characters that some
// PDF extractors emit, keeping newlines and tabs.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}

// StripBOM removes a leading UTF-8 byte-order-mark.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// TruncateRunes cuts s to at most max runes. max <= 0 means no limit.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
