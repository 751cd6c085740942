package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/matching"
)

func TestNormalizeDefaultsSideAndOptions(t *testing.T) {
	f := MatchFilters{CompanyID: "co-1"}
	require.NoError(t, f.normalize())
	assert.Equal(t, "both", f.Side)
	assert.Equal(t, matching.DefaultOptions(), f.Options)
}

func TestNormalizeAcceptsKnownSides(t *testing.T) {
	for _, side := range []string{"receipts", "payments", "both"} {
		f := MatchFilters{Side: side}
		assert.NoError(t, f.normalize(), side)
		assert.Equal(t, side, f.Side)
	}
}

func TestNormalizeRejectsUnknownSide(t *testing.T) {
	f := MatchFilters{Side: "everything"}
	err := f.normalize()
	require.Error(t, err)

	var invalid *InvalidFilterError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Reason, "everything")
}

func TestNormalizeKeepsExplicitOptions(t *testing.T) {
	opts := matching.DefaultOptions()
	opts.MaxDays = 90
	f := MatchFilters{Side: "both", Options: opts}
	require.NoError(t, f.normalize())
	assert.Equal(t, 90, f.Options.MaxDays)
}
