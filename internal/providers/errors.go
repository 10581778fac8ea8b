package providers

import (
	"fmt"
	"strings"

	"askdoc/internal/util"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// UpstreamError is a failed call to an LLM provider.
type UpstreamError struct {
	Provider string
	Kind     ErrorType
	Err      error
}

func NewUpstreamError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Kind: ClassifyError(err), Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream %s error: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the cause and the sentinel for Kind, so callers can
// match either with errors.Is.
func (e *UpstreamError) Unwrap() []error {
	return []error{e.Err, kindSentinel(e.Kind)}
}

func kindSentinel(k ErrorType) error {
	switch k {
	case ErrorQuota:
		return util.ErrQuotaExhausted
	case ErrorRate:
		return util.ErrRateLimited
	case ErrorTransient:
		return util.ErrTransient
	case ErrorContext:
		return util.ErrContextTooLong
	default:
		return util.ErrPermanent
	}
}
