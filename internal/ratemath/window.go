package ratemath

import "time"

// DefaultLookbackWindow is the lookback used for published-average
// fetches (to tolerate weekends/holidays before the query date).
const DefaultLookbackWindow = 14

// OvernightLookbackWindow is the lookback used for overnight-series
// fetches, wide enough to guarantee 30 calendar days of history plus
// carry-forward slack.
const OvernightLookbackWindow = 45

// Window returns the inclusive [end-days, end] date range used to
// build source query URLs.
func Window(end time.Time, days int) (start, stop time.Time) {
	return end.AddDate(0, 0, -days), end
}
