package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/native-markets/aqa-publisher/internal/ratemath"
)

// FRED fetches SOFR data from the St. Louis Fed's public fredgraph.csv
// endpoint.
type FRED struct {
	Getter Getter
}

const fredBaseURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"

func (f *FRED) Name() string { return "St. Louis FRED" }

func (f *FRED) publishedURL(date time.Time) string {
	start, end := ratemath.Window(date, ratemath.DefaultLookbackWindow)
	return fmt.Sprintf("%s?id=SOFR30DAYAVG&cosd=%s&coed=%s", fredBaseURL, isoDate(start), isoDate(end))
}

func (f *FRED) overnightURL(date time.Time) string {
	start, end := ratemath.Window(date, ratemath.OvernightLookbackWindow)
	return fmt.Sprintf("%s?id=SOFR&cosd=%s&coed=%s", fredBaseURL, isoDate(start), isoDate(end))
}

func (f *FRED) FetchPublished(ctx context.Context, queryDate time.Time) (Observation, error) {
	body, err := f.Getter.Get(ctx, f.Name(), f.publishedURL(queryDate))
	if err != nil {
		return Observation{}, err
	}
	date, rate, err := parseLatestRow(f.Name(), body, csvColumns{date: "observation_date", value: "SOFR30DAYAVG"})
	if err != nil {
		return Observation{}, err
	}
	return Observation{Source: f.Name(), EffectiveDate: date, Rate: rate}, nil
}

func (f *FRED) FetchOvernight(ctx context.Context, queryDate time.Time) (ratemath.OvernightSeries, error) {
	body, err := f.Getter.Get(ctx, f.Name(), f.overnightURL(queryDate))
	if err != nil {
		return nil, err
	}
	return parseOvernightSeries(f.Name(), body, csvColumns{date: "observation_date", value: "SOFR"})
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}
