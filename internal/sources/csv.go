package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/native-markets/aqa-publisher/internal/aqaerr"
	"github.com/native-markets/aqa-publisher/internal/ratemath"
)

// csvColumns names the date and value columns to extract from a
// source's CSV response. Rows with a missing/placeholder value ("" or
// ".") are always dropped by parseSeriesRows; parseLatestRow then
// reports NoData if no row survives.
type csvColumns struct {
	date  string
	value string
}

// parseLatestRow parses a header'd CSV body and returns the
// (date, rate) of the row with the greatest date among rows with a
// non-missing value. Row order is not assumed (NY Fed returns
// descending order; this scans for the maximum date regardless).
func parseLatestRow(sourceName string, body []byte, cols csvColumns) (time.Time, ratemath.Scaled, error) {
	dates, rates, err := parseSeriesRows(sourceName, body, cols)
	if err != nil {
		return time.Time{}, 0, err
	}
	if len(dates) == 0 {
		return time.Time{}, 0, &aqaerr.NoData{Source: sourceName}
	}

	latestIdx := 0
	for i, d := range dates {
		if d.After(dates[latestIdx]) {
			latestIdx = i
		}
	}
	return dates[latestIdx], rates[latestIdx], nil
}

// parseOvernightSeries parses a header'd CSV body into an
// OvernightSeries, silently dropping rows with a missing value.
func parseOvernightSeries(sourceName string, body []byte, cols csvColumns) (ratemath.OvernightSeries, error) {
	dates, rates, err := parseSeriesRows(sourceName, body, cols)
	if err != nil {
		return nil, err
	}

	series := ratemath.OvernightSeries{}
	for i, d := range dates {
		series.Put(d, rates[i])
	}
	return series, nil
}

// parseSeriesRows does the shared work: strict header-matched CSV
// decode, trimming all fields, dropping rows whose value column is
// empty or ".".
func parseSeriesRows(sourceName string, body []byte, cols csvColumns) ([]time.Time, []ratemath.Scaled, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: fmt.Sprintf("reading header: %v", err)}
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case cols.date:
			dateIdx = i
		case cols.value:
			valueIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: fmt.Sprintf("missing date column %q", cols.date)}
	}
	if valueIdx == -1 {
		return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: fmt.Sprintf("missing value column %q", cols.value)}
	}

	var dates []time.Time
	var rates []ratemath.Scaled

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: fmt.Sprintf("reading row: %v", err)}
		}
		if dateIdx >= len(record) || valueIdx >= len(record) {
			return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: "row shorter than header"}
		}

		rawValue := strings.TrimSpace(record[valueIdx])
		if rawValue == "" || rawValue == "." {
			continue
		}

		date, err := ratemath.ParseDate(strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: fmt.Sprintf("bad date %q: %v", record[dateIdx], err)}
		}

		rate, err := ratemath.ParsePercent(rawValue)
		if err != nil {
			return nil, nil, &aqaerr.ParseError{Source: sourceName, Detail: fmt.Sprintf("bad value %q: %v", rawValue, err)}
		}

		dates = append(dates, date)
		rates = append(rates, rate)
	}

	return dates, rates, nil
}
