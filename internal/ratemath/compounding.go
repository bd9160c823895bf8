package ratemath

import (
	"fmt"
	"sort"
	"time"

	"github.com/native-markets/aqa-publisher/internal/aqaerr"
	"github.com/shopspring/decimal"
)

// OvernightSeries maps a business day to its overnight SOFR rate in
// scaled units. Keys must be normalized with DateOnly — callers should
// build these through Put, never by assigning into the map directly,
// since time.Time carries a monotonic reading that breaks == lookups
// for otherwise-identical calendar dates. Iteration must proceed in
// date order; since Go maps are unordered (unlike the Rust prototype's
// BTreeMap<NaiveDate, u64>), callers get a sorted key view via
// sortedDates.
type OvernightSeries map[time.Time]Scaled

// Put inserts a rate for day, normalizing day to a civil UTC date
// first so it compares correctly against other map keys regardless of
// how the caller constructed it (time.Parse, AddDate, time.Date, ...).
func (s OvernightSeries) Put(day time.Time, rate Scaled) {
	s[DateOnly(day)] = rate
}

// segment is a (rate, n) pair: rate applied for n calendar days.
type segment struct {
	rate Scaled
	days int64
}

// ComputeCompoundedAverage reproduces the NY Fed 30-day compounded
// SOFR average methodology from independently-fetched overnight rates,
// for cross-checking a source's self-reported published average.
//
// The calculation period is [effectiveDate-30, effectiveDate-1]
// inclusive. The series is traversed by calendar day; the rate in
// effect at the greatest series key <= start seeds the first segment,
// and each later day with a series entry starts a new segment. Segment
// day-counts must sum to exactly 30.
//
// source names the calling adapter, threaded through only so the errors
// this returns (aqaerr.NoData, aqaerr.InsufficientHistory) carry the
// same source attribution as the rest of the pipeline's errors.
func ComputeCompoundedAverage(source string, effectiveDate time.Time, series OvernightSeries) (Scaled, error) {
	if len(series) == 0 {
		return 0, &aqaerr.NoData{Source: source}
	}

	effectiveDate = DateOnly(effectiveDate)
	calcEnd := effectiveDate.AddDate(0, 0, -1)
	start := effectiveDate.AddDate(0, 0, -30)

	dates := sortedDates(series)

	initialRate, ok := lastRateAtOrBefore(dates, series, start)
	if !ok {
		return 0, &aqaerr.InsufficientHistory{Source: source, Start: start.Format(isoLayout)}
	}

	segments := buildSegments(series, start, calcEnd, initialRate)

	var totalDays int64
	for _, seg := range segments {
		totalDays += seg.days
	}
	if totalDays != 30 {
		return 0, fmt.Errorf("ratemath: segment day-count invariant violated: got %d, want 30", totalDays)
	}

	factor := compoundFactor(segments)

	// Annualize: (factor - 1) * 360/30, then express as a percent string
	// and route through ParsePercent to floor once at final conversion.
	d360 := decimal.NewFromInt(360)
	d30 := decimal.NewFromInt(30)
	avgFraction := factor.Sub(decimal.NewFromInt(1)).Mul(d360.Div(d30))
	avgPercent := avgFraction.Mul(decimal.NewFromInt(100))

	scaled, err := ParsePercent(avgPercent.String())
	if err != nil {
		return 0, fmt.Errorf("ratemath: converting compounded average: %w", err)
	}
	return scaled, nil
}

// compoundFactor computes factor = Π (1 + (rate/100) × n/360) in
// arbitrary-precision decimal, with no intermediate rounding.
func compoundFactor(segments []segment) decimal.Decimal {
	oneMillion := decimal.NewFromInt(int64(OneMillion))
	d100 := decimal.NewFromInt(100)
	d360 := decimal.NewFromInt(360)
	one := decimal.NewFromInt(1)

	factor := one
	for _, seg := range segments {
		rateDecimal := decimal.NewFromInt(int64(seg.rate)).Div(oneMillion).Div(d100)
		n := decimal.NewFromInt(seg.days)
		factor = factor.Mul(one.Add(rateDecimal.Mul(n).Div(d360)))
	}
	return factor
}

// buildSegments walks the calculation period day by day, grouping
// calendar days into (rate, n) segments.
func buildSegments(series OvernightSeries, start, calcEnd time.Time, initialRate Scaled) []segment {
	var segments []segment

	currentRate := initialRate
	currentStart := start

	periodDays := int64(calcEnd.Sub(start).Hours() / 24)
	for offset := int64(0); offset <= periodDays; offset++ {
		day := start.AddDate(0, 0, int(offset))
		if newRate, ok := series[day]; ok {
			n := int64(day.Sub(currentStart).Hours() / 24)
			if n > 0 {
				segments = append(segments, segment{rate: currentRate, days: n})
			}
			currentRate = newRate
			currentStart = day
		}
	}

	n := int64(calcEnd.Sub(currentStart).Hours()/24) + 1
	segments = append(segments, segment{rate: currentRate, days: n})

	return segments
}

// sortedDates returns the series' keys in ascending date order.
func sortedDates(series OvernightSeries) []time.Time {
	dates := make([]time.Time, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// lastRateAtOrBefore returns the rate at the greatest date <= target.
func lastRateAtOrBefore(dates []time.Time, series OvernightSeries, target time.Time) (Scaled, bool) {
	var best time.Time
	found := false
	for _, d := range dates {
		if !d.After(target) && (!found || d.After(best)) {
			best = d
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return series[best], true
}
