package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/arb-scanner/pkg/types"
)

func TestParseSingleMarket(t *testing.T) {
	tests := []struct {
		name          string
		spec          string
		expectedVenue types.Venue
		expectedID    string
	}{
		{
			name:          "empty-spec-is-a-no-op",
			spec:          "",
			expectedVenue: "",
			expectedID:    "",
		},
		{
			name:          "lowercase-venue-is-upcased",
			spec:          "poly:0xabc123",
			expectedVenue: types.VenuePoly,
			expectedID:    "0xabc123",
		},
		{
			name:          "market-id-keeps-its-own-colons",
			spec:          "kalshi:FED-24DEC:above",
			expectedVenue: types.VenueKalshi,
			expectedID:    "FED-24DEC:above",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			venue, marketID, err := parseSingleMarket(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedVenue, venue, "venue mismatch")
			assert.Equal(t, tt.expectedID, marketID, "market id mismatch")
		})
	}
}

func TestParseSingleMarket_RejectsMalformedSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{name: "missing-colon", spec: "poly0xabc123"},
		{name: "missing-venue", spec: ":0xabc123"},
		{name: "missing-market-id", spec: "poly:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseSingleMarket(tt.spec)
			require.Error(t, err, "expected %q to be rejected", tt.spec)
			assert.Contains(t, err.Error(), "--single-market")
		})
	}
}

func TestFilterByMarketID(t *testing.T) {
	snaps := []*types.MarketSnapshot{
		{Venue: types.VenuePoly, VenueMarketID: "a"},
		{Venue: types.VenuePoly, VenueMarketID: "b"},
		{Venue: types.VenuePoly, VenueMarketID: "c"},
	}

	t.Run("matching-id-returns-single-element-slice", func(t *testing.T) {
		filtered := filterByMarketID(snaps, "b")
		require.Len(t, filtered, 1)
		assert.Equal(t, "b", filtered[0].VenueMarketID)
	})

	t.Run("no-match-returns-nil", func(t *testing.T) {
		filtered := filterByMarketID(snaps, "missing")
		assert.Nil(t, filtered)
	})
}
