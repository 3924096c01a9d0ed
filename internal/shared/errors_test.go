package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindValidation, KindOf(E(KindValidation, "bad input")))
	require.Equal(t, KindNotFound, KindOf(ErrNotFound))
	require.Equal(t, KindInternal, KindOf(errors.New("raw store failure")))
}

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "query failed", cause)
	require.Equal(t, KindInternal, KindOf(err))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "query failed")
	require.Contains(t, err.Error(), "connection reset")
}

func TestSentinelMatchingThroughWrap(t *testing.T) {
	err := Wrap(KindInternal, "loading period", ErrNotFound)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDetailOf(t *testing.T) {
	err := EDetail(KindValidation, "entry is not balanced", map[string]any{
		"debit_total":  100.0,
		"credit_total": 80.0,
	})
	detail := DetailOf(err)
	require.Equal(t, 100.0, detail["debit_total"])
	require.Nil(t, DetailOf(errors.New("plain")))
}
