// Package pipeline orchestrates one end-to-end AQA rate run: fetch from
// every configured source, validate and reduce to a median, convert to
// the AQA reference rate, then sign and submit one vote per configured
// signer. Per-stage results are collected into a single report struct
// rather than returning on first error, so callers can see partial
// progress.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/native-markets/aqa-publisher/internal/aggregator"
	"github.com/native-markets/aqa-publisher/internal/aqaerr"
	"github.com/native-markets/aqa-publisher/internal/config"
	"github.com/native-markets/aqa-publisher/internal/net/circuit"
	"github.com/native-markets/aqa-publisher/internal/net/client"
	"github.com/native-markets/aqa-publisher/internal/ratemath"
	"github.com/native-markets/aqa-publisher/internal/secrets"
	"github.com/native-markets/aqa-publisher/internal/sources"
	"github.com/native-markets/aqa-publisher/internal/vote"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SourceNames lists the three adapters every run queries, in the fixed
// order they are logged and reported.
var SourceNames = []string{"St. Louis FRED", "NY Fed", "OFR (computed)"}

// VoteResult records one signer's submission outcome.
type VoteResult struct {
	Signer   string
	Response string
	Err      error
}

// Result is the full outcome of one pipeline run, returned even on
// partial failure so callers (CLI/daemon) can report everything that
// happened.
type Result struct {
	QueryDate     time.Time
	Observations  []sources.Observation
	SourceErrors  map[string]error
	Median        aggregator.Median
	AQARate       ratemath.Scaled
	FormattedRate string
	Votes         []VoteResult
}

// NewSources builds the three production source adapters sharing a
// single retrying, circuit-breaker-wrapped Fetcher.
func NewSources() []sources.Source {
	breakers := circuit.NewManager()
	for _, name := range SourceNames {
		breakers.AddSource(name, circuit.DefaultConfig())
	}
	fetcher := client.NewFetcher(breakers)

	return []sources.Source{
		&sources.FRED{Getter: fetcher},
		&sources.NYFed{Getter: fetcher},
		&sources.OFR{Getter: fetcher},
	}
}

// Run executes one full pipeline pass as of queryDate against srcs,
// submitting a vote for each of signers. It returns a non-nil error
// when the run cannot produce a submittable rate at all (insufficient
// sources, disagreement, implausibility, staleness) or when every
// signer's vote submission failed (aqaerr.AllVotesFailed); a Result is
// always returned alongside so partial source failures and per-signer
// vote outcomes are visible to the caller.
func Run(ctx context.Context, queryDate time.Time, srcs []sources.Source, signers []secrets.Signer, submitter *vote.Submitter) (*Result, error) {
	return run(ctx, queryDate, srcs, signers, submitter, false)
}

// RunParallel behaves like Run but fetches all sources concurrently
// via golang.org/x/sync/errgroup instead of sequentially. The sources
// are independent, idempotent reads, so this is safe; per-signer
// submissions still run sequentially to preserve the nonce-ordering
// guarantee.
func RunParallel(ctx context.Context, queryDate time.Time, srcs []sources.Source, signers []secrets.Signer, submitter *vote.Submitter) (*Result, error) {
	return run(ctx, queryDate, srcs, signers, submitter, true)
}

func run(ctx context.Context, queryDate time.Time, srcs []sources.Source, signers []secrets.Signer, submitter *vote.Submitter, parallel bool) (*Result, error) {
	result := &Result{
		QueryDate:    queryDate,
		SourceErrors: make(map[string]error),
	}

	if parallel {
		result.Observations, result.SourceErrors = fetchParallel(ctx, srcs, queryDate)
	} else {
		result.Observations, result.SourceErrors = fetchSequential(ctx, srcs, queryDate)
	}

	median, err := aggregator.Aggregate(queryDate, result.Observations)
	if err != nil {
		return result, fmt.Errorf("pipeline: aggregation failed: %w", err)
	}
	result.Median = median

	result.AQARate = ratemath.AQARefRate(median.Rate)
	result.FormattedRate = ratemath.FormatScaled(result.AQARate)

	log.Info().
		Str("median_effective_date", median.EffectiveDate.Format("2006-01-02")).
		Str("aqa_ref_rate", result.FormattedRate).
		Msg("pipeline: AQA reference rate derived")

	result.Votes = submitVotes(ctx, signers, submitter, result.FormattedRate)

	allFailed := len(result.Votes) > 0
	causes := make([]error, 0, len(result.Votes))
	for _, v := range result.Votes {
		if v.Err == nil {
			allFailed = false
		} else {
			causes = append(causes, v.Err)
		}
	}
	if allFailed {
		return result, &aqaerr.AllVotesFailed{Attempts: len(result.Votes), Causes: causes}
	}

	return result, nil
}

// fetchSequential fetches each source's published average one at a
// time, in the order srcs was given. This is the default.
func fetchSequential(ctx context.Context, srcs []sources.Source, queryDate time.Time) ([]sources.Observation, map[string]error) {
	var observations []sources.Observation
	errs := make(map[string]error)

	for _, src := range srcs {
		obs, err := fetchOne(ctx, src, queryDate)
		if err != nil {
			errs[src.Name()] = err
			continue
		}
		observations = append(observations, obs)
	}
	return observations, errs
}

// fetchParallel fetches every source concurrently, bounded by an
// errgroup with no limit beyond len(srcs) (there are only ever three).
// A failing or slow source cannot cancel the others: fetchOne's errors
// are collected per-source rather than returned to the group, so
// errgroup.Wait() always returns nil.
func fetchParallel(ctx context.Context, srcs []sources.Source, queryDate time.Time) ([]sources.Observation, map[string]error) {
	var mu sync.Mutex
	var observations []sources.Observation
	errs := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		src := src
		g.Go(func() error {
			obs, err := fetchOne(gctx, src, queryDate)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[src.Name()] = err
				return nil
			}
			observations = append(observations, obs)
			return nil
		})
	}
	_ = g.Wait()

	return observations, errs
}

func fetchOne(ctx context.Context, src sources.Source, queryDate time.Time) (sources.Observation, error) {
	obs, err := src.FetchPublished(ctx, queryDate)
	if err != nil {
		wrapped := &aqaerr.SourceUnavailable{Source: src.Name(), Cause: err}
		log.Warn().Err(err).Str("source", src.Name()).Msg("pipeline: source fetch failed")
		return sources.Observation{}, wrapped
	}
	log.Info().
		Str("source", obs.Source).
		Str("effective_date", obs.EffectiveDate.Format("2006-01-02")).
		Str("rate", ratemath.FormatScaled(obs.Rate)).
		Msg("pipeline: observation fetched")
	return obs, nil
}

// submitVotes signs and submits one vote per signer. Each signer uses
// its own nonce (the current Unix millisecond timestamp) since the
// exchange treats the nonce as a per-signer replay guard.
func submitVotes(ctx context.Context, signers []secrets.Signer, submitter *vote.Submitter, formattedRate string) []VoteResult {
	results := make([]VoteResult, 0, len(signers))
	for _, signer := range signers {
		nonce := uint64(time.Now().UnixMilli())
		resp, err := submitter.Submit(ctx, signer.Key, signer.Label, formattedRate, nonce)
		if err != nil {
			log.Error().Err(err).Str("signer", signer.Label).Msg("pipeline: vote submission failed")
			results = append(results, VoteResult{Signer: signer.Label, Err: err})
			continue
		}
		// A JSON string payload is unquoted; any other payload is kept
		// as its raw JSON text.
		response := string(resp)
		var text string
		if json.Unmarshal(resp, &text) == nil {
			response = text
		}
		log.Info().Str("signer", signer.Label).Str("response", response).Msg("pipeline: vote submitted")
		results = append(results, VoteResult{Signer: signer.Label, Response: response})
	}
	return results
}

// RunNow is the convenience entry point used by the CLI's publish command:
// it loads configuration, builds production sources and a submitter,
// and runs the pipeline for the current UTC instant.
func RunNow(ctx context.Context) (*Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	submitter := vote.NewSubmitter(cfg.Network.IsMainnet())
	return Run(ctx, time.Now().UTC(), NewSources(), cfg.Signers, submitter)
}
