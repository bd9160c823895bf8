package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/native-markets/aqa-publisher/internal/ratemath"
	"github.com/native-markets/aqa-publisher/internal/secrets"
	"github.com/native-markets/aqa-publisher/internal/sources"
	"github.com/native-markets/aqa-publisher/internal/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource is a fixed-response sources.Source used to drive pipeline
// tests without network access.
type stubSource struct {
	name string
	obs  sources.Observation
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchPublished(ctx context.Context, queryDate time.Time) (sources.Observation, error) {
	return s.obs, s.err
}

func (s *stubSource) FetchOvernight(ctx context.Context, queryDate time.Time) (ratemath.OvernightSeries, error) {
	return nil, nil
}

func date(s string) time.Time {
	d, err := ratemath.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRun_InsufficientSources_ReturnsErrorWithPartialResult(t *testing.T) {
	queryDate := date("2025-06-02")
	srcs := []sources.Source{
		&stubSource{name: "A", obs: sources.Observation{Source: "A", EffectiveDate: queryDate, Rate: 4_300_000}},
		&stubSource{name: "B", err: assert.AnError},
	}

	result, err := Run(context.Background(), queryDate, srcs, nil, nil)
	require.Error(t, err)
	assert.Len(t, result.Observations, 1)
	assert.Contains(t, result.SourceErrors, "B")
}

func TestRun_HappyPath_DerivesRateAndSubmitsVotes(t *testing.T) {
	queryDate := date("2025-06-02")
	srcs := []sources.Source{
		&stubSource{name: "A", obs: sources.Observation{Source: "A", EffectiveDate: queryDate, Rate: 4_300_000}},
		&stubSource{name: "B", obs: sources.Observation{Source: "B", EffectiveDate: queryDate, Rate: 4_301_000}},
	}

	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "response": "accepted"})
	}))
	defer server.Close()

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signers := []secrets.Signer{{Label: "0xTest", Key: priv}}
	submitter := vote.NewSubmitterWithEndpoint(server.URL, true)

	result, err := Run(context.Background(), queryDate, srcs, signers, submitter)
	require.NoError(t, err)
	require.Len(t, result.Votes, 1)
	assert.NoError(t, result.Votes[0].Err)
	assert.Equal(t, "accepted", result.Votes[0].Response)

	// The exchange's verifier expects the wire action object keyed by
	// "type"/"riskFreeRate", not the Go field names.
	require.NotNil(t, capturedBody)
	action, ok := capturedBody["action"].(map[string]any)
	require.True(t, ok, "action field missing or wrong shape: %#v", capturedBody)
	assert.Equal(t, "validatorL1Stream", action["type"])
	assert.Contains(t, action, "riskFreeRate")
	assert.NotContains(t, action, "Type")
	assert.NotContains(t, action, "RiskFreeRate")

	// Even-count median: the two middle rates average with integer
	// truncation, so 4_300_000 and 4_301_000 give 4_300_500.
	expectedMedian := uint64(4_300_500)
	assert.Equal(t, expectedMedian, result.Median.Rate)
	assert.Equal(t, ratemath.AQARefRate(expectedMedian), result.AQARate)
}

func TestRunParallel_SameResultAsSequential(t *testing.T) {
	queryDate := date("2025-06-02")
	srcs := []sources.Source{
		&stubSource{name: "A", obs: sources.Observation{Source: "A", EffectiveDate: queryDate, Rate: 4_300_000}},
		&stubSource{name: "B", obs: sources.Observation{Source: "B", EffectiveDate: queryDate, Rate: 4_301_000}},
	}

	result, err := RunParallel(context.Background(), queryDate, srcs, nil, nil)
	require.NoError(t, err)
	assert.Len(t, result.Observations, 2)
	assert.Equal(t, uint64(4_300_500), result.Median.Rate)
}

func TestRun_AllVotesFail_ReturnsAllVotesFailedError(t *testing.T) {
	queryDate := date("2025-06-02")
	srcs := []sources.Source{
		&stubSource{name: "A", obs: sources.Observation{Source: "A", EffectiveDate: queryDate, Rate: 4_300_000}},
		&stubSource{name: "B", obs: sources.Observation{Source: "B", EffectiveDate: queryDate, Rate: 4_301_000}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "err", "response": "nonce too old"})
	}))
	defer server.Close()

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	signers := []secrets.Signer{{Label: "0xTest", Key: priv}}
	submitter := vote.NewSubmitterWithEndpoint(server.URL, true)

	result, err := Run(context.Background(), queryDate, srcs, signers, submitter)
	require.Error(t, err)
	require.Len(t, result.Votes, 1)
	assert.Error(t, result.Votes[0].Err)
}
