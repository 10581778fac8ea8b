package providers

import (
	"errors"
	"testing"

	"askdoc/internal/util"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota": ErrorQuota,
		"429 rate":           ErrorRate,
		"context too long":   ErrorContext,
		"timeout":            ErrorTransient,
		"bad request":        ErrorPermanent,
		"rate limit reached": ErrorRate,
		"generate failed":    ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	cause := errors.New("openai generate error 429: slow down")
	err := NewUpstreamError("openai", cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, util.ErrRateLimited)
	require.NotErrorIs(t, err, util.ErrQuotaExhausted)

	var up *UpstreamError
	require.ErrorAs(t, error(err), &up)
	require.Equal(t, "openai", up.Provider)
	require.Contains(t, err.Error(), "rate")
}
