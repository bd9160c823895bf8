package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/native-markets/aqa-publisher/internal/aqaerr"
	"github.com/native-markets/aqa-publisher/internal/ratemath"
	"github.com/shopspring/decimal"
)

// ofrMnemonic is the OFR dataset series identifier for SOFR.
// Source: https://data.financialresearch.gov/v1/metadata/mnemonics?dataset=fnyr
const ofrMnemonic = "FNYR-SOFR-A"

const ofrBaseURL = "https://data.financialresearch.gov/v1/series/timeseries"

// OFR fetches raw overnight SOFR observations from the Office of
// Financial Research timeseries endpoint and self-computes its own
// 30-day compounded average, since OFR (unlike FRED/NYFed) does not
// publish a pre-calculated 30-day average series.
type OFR struct {
	Getter Getter
}

func (o *OFR) Name() string { return "OFR (computed)" }

func (o *OFR) url(date time.Time) string {
	start, end := ratemath.Window(date, ratemath.OvernightLookbackWindow)
	return fmt.Sprintf("%s?mnemonic=%s&start_date=%s&end_date=%s", ofrBaseURL, ofrMnemonic, isoDate(start), isoDate(end))
}

// ofrRow is a [date, number] tuple as returned by the OFR JSON API.
type ofrRow struct {
	Date time.Time
	Rate ratemath.Scaled
}

func (r *ofrRow) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var dateStr string
	if err := json.Unmarshal(raw[0], &dateStr); err != nil {
		return fmt.Errorf("ofr row date: %w", err)
	}
	date, err := ratemath.ParseDate(dateStr)
	if err != nil {
		return fmt.Errorf("ofr row date: %w", err)
	}

	var f float64
	if err := json.Unmarshal(raw[1], &f); err != nil {
		return fmt.Errorf("ofr row rate: %w", err)
	}
	if f < 0 {
		return fmt.Errorf("ofr row rate: negative percent not allowed")
	}

	// OFR values arrive with exactly two decimal places; round
	// half-even defensively.
	dec := decimal.NewFromFloat(f).RoundBank(2)
	rate, err := ratemath.ParsePercent(dec.String())
	if err != nil {
		return fmt.Errorf("ofr row rate: %w", err)
	}

	r.Date = date
	r.Rate = rate
	return nil
}

func (o *OFR) parseRows(body []byte) ([]ofrRow, error) {
	var rows []ofrRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &aqaerr.ParseError{Source: o.Name(), Detail: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &aqaerr.NoData{Source: o.Name()}
	}
	return rows, nil
}

func (o *OFR) FetchPublished(ctx context.Context, queryDate time.Time) (Observation, error) {
	body, err := o.Getter.Get(ctx, o.Name(), o.url(queryDate))
	if err != nil {
		return Observation{}, err
	}
	rows, err := o.parseRows(body)
	if err != nil {
		return Observation{}, err
	}

	effectiveDate := rows[0].Date
	for _, r := range rows {
		if r.Date.After(effectiveDate) {
			effectiveDate = r.Date
		}
	}

	series := ratemath.OvernightSeries{}
	for _, r := range rows {
		if !r.Date.After(effectiveDate) {
			series.Put(r.Date, r.Rate)
		}
	}

	rate, err := ratemath.ComputeCompoundedAverage(o.Name(), effectiveDate, series)
	if err != nil {
		return Observation{}, fmt.Errorf("ofr: computing compounded average: %w", err)
	}

	return Observation{Source: o.Name(), EffectiveDate: effectiveDate, Rate: rate}, nil
}

func (o *OFR) FetchOvernight(ctx context.Context, queryDate time.Time) (ratemath.OvernightSeries, error) {
	body, err := o.Getter.Get(ctx, o.Name(), o.url(queryDate))
	if err != nil {
		return nil, err
	}
	rows, err := o.parseRows(body)
	if err != nil {
		return nil, err
	}

	series := ratemath.OvernightSeries{}
	for _, r := range rows {
		if !r.Date.After(queryDate) {
			series.Put(r.Date, r.Rate)
		}
	}
	return series, nil
}
