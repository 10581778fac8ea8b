package answer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchQuestionInvalidPatternIsLiteral(t *testing.T) {
	got := MatchQuestion("what is (x", "We ask: WHAT IS (X and more")
	require.Equal(t, []string{"WHAT IS (X"}, got)
}

func TestMatchQuestionSkipsEmptyMatches(t *testing.T) {
	require.Equal(t, []string{NoAnswer}, MatchQuestion("z*", "abc"))
}

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords(` [{"b":"1","a":"2"}] `)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "b", recs[0][0].Key)

	_, err = DecodeRecords("plain text")
	require.Error(t, err)
	_, err = DecodeRecords(`{"a":"1"} trailing`)
	require.Error(t, err)
	_, err = DecodeRecords(`[1,2]`)
	require.Error(t, err)
}
