package aggregator

import (
	"testing"
	"time"

	"github.com/native-markets/aqa-publisher/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(source string, date time.Time, rate uint64) sources.Observation {
	return sources.Observation{Source: source, EffectiveDate: date, Rate: rate}
}

func TestAggregate_ThreeAgreeingSources(t *testing.T) {
	date := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)
	observations := []sources.Observation{
		obs("FRED", date, 4_293_200),
		obs("NYFed", date, 4_303_200),
		obs("OFR", date, 4_283_200),
	}

	median, err := Aggregate(date, observations)
	require.NoError(t, err)
	assert.True(t, median.EffectiveDate.Equal(date))
	assert.Equal(t, uint64(4_293_200), median.Rate)
}

func TestAggregate_TwoSourcesAveraged(t *testing.T) {
	date := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)
	observations := []sources.Observation{
		obs("A", date, 4_293_200),
		obs("B", date, 4_333_200),
	}

	median, err := Aggregate(date, observations)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_313_200), median.Rate)
}

func TestAggregate_AgreementToleranceBoundary(t *testing.T) {
	date := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)

	// Exactly +50_000 passes.
	_, err := Aggregate(date, []sources.Observation{
		obs("A", date, 4_293_200),
		obs("B", date, 4_343_200),
	})
	require.NoError(t, err)

	// +50_001 fails.
	_, err = Aggregate(date, []sources.Observation{
		obs("A", date, 4_293_200),
		obs("B", date, 4_343_201),
	})
	require.Error(t, err)
}

func TestAggregate_StalenessBoundary(t *testing.T) {
	query := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)

	// 8 days behind -> stale.
	staleDate := time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)
	_, err := Aggregate(query, []sources.Observation{
		obs("A", staleDate, 4_293_200),
		obs("B", staleDate, 4_303_200),
	})
	require.Error(t, err)

	// 7 days behind -> ok.
	okDate := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	_, err = Aggregate(query, []sources.Observation{
		obs("A", okDate, 4_293_200),
		obs("B", okDate, 4_303_200),
	})
	require.NoError(t, err)
}

func TestAggregate_InsufficientSources(t *testing.T) {
	date := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)
	_, err := Aggregate(date, []sources.Observation{obs("A", date, 4_293_200)})
	require.Error(t, err)
}

func TestAggregate_PlausibilityRejectsOutOfRange(t *testing.T) {
	date := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)
	_, err := Aggregate(date, []sources.Observation{
		obs("A", date, 16_000_000),
		obs("B", date, 16_010_000),
	})
	require.Error(t, err)
}

func TestAggregate_PlausibilityRejectsNegativeWrap(t *testing.T) {
	// A rate that wrapped from a negative value upstream reinterprets
	// as a large uint64; its signed cast below -5% must be rejected
	// even though the pair agrees within tolerance.
	date := time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)
	wrapped := ^uint64(0) - 9_999_999 // int64 cast: -10_000_000
	_, err := Aggregate(date, []sources.Observation{
		obs("A", date, wrapped),
		obs("B", date, wrapped+10_000),
	})
	require.Error(t, err)
}
