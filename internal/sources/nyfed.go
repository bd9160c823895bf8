package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/native-markets/aqa-publisher/internal/ratemath"
)

// NYFed fetches SOFR data from the NY Fed Markets Data search.csv
// endpoints.
type NYFed struct {
	Getter Getter
}

func (n *NYFed) Name() string { return "NY Fed" }

func (n *NYFed) publishedURL(date time.Time) string {
	start, end := ratemath.Window(date, ratemath.DefaultLookbackWindow)
	return fmt.Sprintf(
		"https://markets.newyorkfed.org/api/rates/secured/sofrai/search.csv?type=rate&startDate=%s&endDate=%s",
		isoDate(start), isoDate(end),
	)
}

func (n *NYFed) overnightURL(date time.Time) string {
	start, end := ratemath.Window(date, ratemath.OvernightLookbackWindow)
	return fmt.Sprintf(
		"https://markets.newyorkfed.org/api/rates/secured/sofr/search.csv?startDate=%s&endDate=%s",
		isoDate(start), isoDate(end),
	)
}

func (n *NYFed) FetchPublished(ctx context.Context, queryDate time.Time) (Observation, error) {
	body, err := n.Getter.Get(ctx, n.Name(), n.publishedURL(queryDate))
	if err != nil {
		return Observation{}, err
	}
	// NY Fed returns many columns and descending date order; only the
	// two named columns are extracted.
	date, rate, err := parseLatestRow(n.Name(), body, csvColumns{date: "Effective Date", value: "30-Day Average SOFR"})
	if err != nil {
		return Observation{}, err
	}
	return Observation{Source: n.Name(), EffectiveDate: date, Rate: rate}, nil
}

func (n *NYFed) FetchOvernight(ctx context.Context, queryDate time.Time) (ratemath.OvernightSeries, error) {
	body, err := n.Getter.Get(ctx, n.Name(), n.overnightURL(queryDate))
	if err != nil {
		return nil, err
	}
	return parseOvernightSeries(n.Name(), body, csvColumns{date: "Effective Date", value: "Rate (%)"})
}
