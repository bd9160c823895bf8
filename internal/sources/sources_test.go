package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGetter struct {
	body []byte
	err  error
}

func (s *stubGetter) Get(ctx context.Context, source, url string) ([]byte, error) {
	return s.body, s.err
}

func TestFRED_FetchPublished(t *testing.T) {
	csv := "observation_date,SOFR30DAYAVG\n" +
		"2025-10-05,4.2900\n" +
		"2025-10-06,.\n" +
		"2025-10-07,4.2932\n"

	f := &FRED{Getter: &stubGetter{body: []byte(csv)}}
	obs, err := f.FetchPublished(context.Background(), time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "St. Louis FRED", obs.Source)
	assert.True(t, obs.EffectiveDate.Equal(time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, uint64(4_293_200), obs.Rate)
}

func TestNYFed_FetchPublished_DescendingOrder(t *testing.T) {
	// NY Fed returns rows in descending date order; the parser must not
	// assume row order.
	csv := "Effective Date,30-Day Average SOFR\n" +
		"2025-10-07,4.3032\n" +
		"2025-10-06,4.2900\n"

	n := &NYFed{Getter: &stubGetter{body: []byte(csv)}}
	obs, err := n.FetchPublished(context.Background(), time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, obs.EffectiveDate.Equal(time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, uint64(4_303_200), obs.Rate)
}

func TestOFR_FetchPublished_FlatRate(t *testing.T) {
	var rows []byte
	rows = append(rows, '[')
	start := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		d := start.AddDate(0, 0, i)
		if i > 0 {
			rows = append(rows, ',')
		}
		rows = append(rows, []byte(`["`+d.Format("2006-01-02")+`",4.00]`)...)
	}
	rows = append(rows, ']')

	o := &OFR{Getter: &stubGetter{body: rows}}
	obs, err := o.FetchPublished(context.Background(), start.AddDate(0, 0, 44))
	require.NoError(t, err)
	assert.InDelta(t, float64(4_000_000), float64(obs.Rate), 50)
}

func TestOFR_FetchPublished_NoData(t *testing.T) {
	o := &OFR{Getter: &stubGetter{body: []byte("[]")}}
	_, err := o.FetchPublished(context.Background(), time.Now())
	require.Error(t, err)
}

func TestParseOvernightSeries_DropsMissingAndBlankValues(t *testing.T) {
	csv := "observation_date,SOFR\n" +
		"2025-10-05,.\n" +
		"2025-10-06, \n" +
		"2025-10-07,4.29\n"

	series, err := parseOvernightSeries("test", []byte(csv), csvColumns{date: "observation_date", value: "SOFR"})
	require.NoError(t, err)
	assert.Len(t, series, 1)
}
