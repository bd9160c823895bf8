package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/native-markets/aqa-publisher/internal/config"
	"github.com/native-markets/aqa-publisher/internal/obslog"
	"github.com/native-markets/aqa-publisher/internal/pipeline"
	"github.com/native-markets/aqa-publisher/internal/ratemath"
	"github.com/native-markets/aqa-publisher/internal/scheduler"
	"github.com/native-markets/aqa-publisher/internal/vote"
	"github.com/rs/zerolog/log"
)

const version = "v0.1.0"

func main() {
	obslog.Init("info")

	rootCmd := &cobra.Command{
		Use:     "aqa-publisher",
		Short:   "Derives and publishes the daily AQA reference rate",
		Version: version,
		Long: `aqa-publisher derives the daily AQA risk-free reference rate from
public SOFR data sources and submits signed votes for it to the exchange.`,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		obslog.Init(level)
	}

	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Derive today's AQA reference rate without submitting a vote",
		RunE:  runPrint,
	}

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Derive and submit today's AQA reference rate once",
		RunE:  runPublish,
	}

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run continuously, publishing once per day at a fixed UTC hour",
		RunE:  runDaemon,
	}
	daemonCmd.Flags().Int("hour", 22, "UTC hour (0-23) to run at each day")

	rootCmd.AddCommand(printCmd, publishCmd, daemonCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runPrint derives the AQA rate from all sources without signing or
// submitting anything, for operators to sanity-check before publish.
func runPrint(cmd *cobra.Command, args []string) error {
	// No overall run deadline; the retry budget bounds a run in
	// practice (~6 minutes worst case across three sequential sources,
	// each up to 90s of backoff plus three 10s request timeouts).
	ctx := context.Background()

	queryDate := time.Now().UTC()
	result, err := pipeline.Run(ctx, queryDate, pipeline.NewSources(), nil, nil)
	if err != nil {
		return fmt.Errorf("print: %w", err)
	}

	fmt.Printf("median effective date: %s\n", result.Median.EffectiveDate.Format("2006-01-02"))
	fmt.Printf("median rate:           %s\n", ratemath.FormatScaled(result.Median.Rate))
	fmt.Printf("AQA reference rate:    %s\n", result.FormattedRate)
	return nil
}

// runPublish runs one full pipeline pass, including signing and
// submission, and exits non-zero if every configured signer failed.
func runPublish(cmd *cobra.Command, args []string) error {
	// No deadline: see runPrint.
	ctx := context.Background()

	result, err := pipeline.RunNow(ctx)
	if err != nil {
		if result != nil {
			reportResult(result)
		}
		return err
	}

	reportResult(result)
	return nil
}

// runDaemon loads configuration once at startup (failing fast on a bad
// PUBLISHER_PRIVATE_KEY/NETWORK before the first scheduled run) and
// then publishes once per day at --hour UTC until canceled.
func runDaemon(cmd *cobra.Command, args []string) error {
	hour, _ := cmd.Flags().GetInt("hour")
	if hour < 0 || hour > 23 {
		return fmt.Errorf("daemon: --hour must be between 0 and 23, got %d", hour)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("daemon: startup configuration: %w", err)
	}
	log.Info().Str("network", cfg.Network.String()).Int("signers", len(cfg.Signers)).Int("hour", hour).Msg("daemon: starting")

	submitter := vote.NewSubmitter(cfg.Network.IsMainnet())
	srcs := pipeline.NewSources()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.RunDaily(ctx, hour, func(ctx context.Context) error {
		// No per-run deadline beyond the parent daemon context: see
		// runPrint.
		result, err := pipeline.Run(ctx, time.Now().UTC(), srcs, cfg.Signers, submitter)
		if result != nil {
			reportResult(result)
		}
		return err
	})
	return nil
}

func reportResult(result *pipeline.Result) {
	log.Info().
		Str("median_effective_date", result.Median.EffectiveDate.Format("2006-01-02")).
		Str("aqa_ref_rate", result.FormattedRate).
		Int("observations", len(result.Observations)).
		Int("source_errors", len(result.SourceErrors)).
		Msg("pipeline run complete")

	for _, v := range result.Votes {
		if v.Err != nil {
			log.Error().Err(v.Err).Str("signer", v.Signer).Msg("vote failed")
			continue
		}
		log.Info().Str("signer", v.Signer).Str("response", v.Response).Msg("vote accepted")
	}
}
