// Package aggregator implements cross-source validation and median
// selection over the observations returned by internal/sources.
package aggregator

import (
	"sort"
	"time"

	"github.com/native-markets/aqa-publisher/internal/aqaerr"
	"github.com/native-markets/aqa-publisher/internal/ratemath"
	"github.com/native-markets/aqa-publisher/internal/sources"
)

// AgreementTolerance is the maximum rate spread (in scaled units, 5bps)
// within which at least one pair of observations must fall.
const AgreementTolerance ratemath.Scaled = 50_000

// MinPlausibleRate is the signed lower plausibility bound (-5%).
const MinPlausibleRate int64 = -5_000_000

// StalenessBound is the maximum tolerated gap between the median's
// effective date and the query date.
const StalenessBound = 7 * 24 * time.Hour

// Median is a validated median observation: the effective date and
// scaled rate that survived every cross-source check.
type Median struct {
	EffectiveDate time.Time
	Rate          ratemath.Scaled
}

// Aggregate validates observations against the quorum, agreement,
// plausibility, and staleness checks (in that order, each
// short-circuiting) and returns the validated median.
func Aggregate(queryDate time.Time, observations []sources.Observation) (Median, error) {
	if len(observations) < 2 {
		return Median{}, &aqaerr.InsufficientSources{Got: len(observations)}
	}

	if !anyPairWithinTolerance(observations) {
		rates := make([]uint64, len(observations))
		for i, o := range observations {
			rates[i] = o.Rate
		}
		return Median{}, &aqaerr.SourcesDisagree{Rates: rates}
	}

	for _, o := range observations {
		if !isPlausible(o.Rate) {
			return Median{}, &aqaerr.OutOfRange{Source: o.Source, Value: int64(o.Rate)}
		}
	}

	medianDate := medianEffectiveDate(observations)
	if queryDate.Sub(medianDate) > StalenessBound {
		return Median{}, &aqaerr.StaleData{
			MedianDate: medianDate.Format("2006-01-02"),
			DaysBehind: int(queryDate.Sub(medianDate).Hours() / 24),
		}
	}

	return selectMedian(observations), nil
}

func anyPairWithinTolerance(observations []sources.Observation) bool {
	for i := 0; i < len(observations); i++ {
		for j := i + 1; j < len(observations); j++ {
			if absDiff(observations[i].Rate, observations[j].Rate) <= AgreementTolerance {
				return true
			}
		}
	}
	return false
}

func absDiff(a, b ratemath.Scaled) ratemath.Scaled {
	if a > b {
		return a - b
	}
	return b - a
}

// isPlausible rejects rates outside [-5%, 15%]. Scaled rates are
// unsigned by construction; the signed lower bound catches values that
// wrapped from a negative source upstream.
func isPlausible(rate ratemath.Scaled) bool {
	signed := int64(rate)
	if signed < 0 {
		return signed >= MinPlausibleRate
	}
	return rate <= ratemath.MaxRate
}

// medianEffectiveDate sorts effective dates ascending and picks the
// lower of the two middle elements when even-sized, else the single
// middle. This feeds the staleness check only; rate-based median
// selection happens in selectMedian.
func medianEffectiveDate(observations []sources.Observation) time.Time {
	dates := make([]time.Time, len(observations))
	for i, o := range observations {
		dates[i] = o.EffectiveDate
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	n := len(dates)
	if n%2 == 1 {
		return dates[n/2]
	}
	return dates[n/2-1]
}

// selectMedian sorts by rate ascending; odd count returns the middle
// observation verbatim, even count averages the two middle rates
// (integer truncation) and uses the lower-middle's date.
func selectMedian(observations []sources.Observation) Median {
	sorted := make([]sources.Observation, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rate < sorted[j].Rate })

	n := len(sorted)
	if n%2 == 1 {
		mid := sorted[n/2]
		return Median{EffectiveDate: mid.EffectiveDate, Rate: mid.Rate}
	}

	lower := sorted[n/2-1]
	upper := sorted[n/2]
	return Median{
		EffectiveDate: lower.EffectiveDate,
		Rate:          (lower.Rate + upper.Rate) / 2,
	}
}
