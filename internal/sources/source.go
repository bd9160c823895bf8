// Package sources implements the three public SOFR data adapters (FRED,
// NY Fed, OFR): fetching published 30-day averages and raw overnight
// series, and parsing each into the scaled rate representation used by
// the rest of the pipeline.
package sources

import (
	"context"
	"time"

	"github.com/native-markets/aqa-publisher/internal/ratemath"
)

// Observation is one source's published 30-day average as of its most
// recent effective date at or before the query date.
type Observation struct {
	Source        string
	EffectiveDate time.Time
	Rate          ratemath.Scaled
}

// Source is the common contract every SOFR data adapter implements.
type Source interface {
	// Name is the human-readable source identifier used in errors and
	// observations (e.g. "St. Louis FRED").
	Name() string

	// FetchPublished returns the source's own 30-day SOFR average as of
	// the most recent business day at or before queryDate.
	FetchPublished(ctx context.Context, queryDate time.Time) (Observation, error)

	// FetchOvernight returns the source's overnight SOFR series over a
	// 45-day lookback window ending at queryDate, keyed by business day.
	// Used for the independent compounded-average cross-check.
	FetchOvernight(ctx context.Context, queryDate time.Time) (ratemath.OvernightSeries, error)
}

// Getter fetches raw response bytes for a URL. Implemented by
// *internal/net/client.Fetcher in production and by a stub in tests.
type Getter interface {
	Get(ctx context.Context, source, url string) ([]byte, error)
}
