package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialgraph/trialgraph/internal/extract"
	"github.com/trialgraph/trialgraph/internal/pipeline"
)

var outPath string

// dryRunCmd represents the dry-run command
var dryRunCmd = &cobra.Command{
	Use:   "dry-run",
	Short: "Extract and transform only, rendering clean records as JSON",
	Long: `Dry-run exercises extraction and transformation without touching the
graph store: records stream from AACT, are cleaned and batched exactly
as in a real run, and are written as a JSON array instead of loaded.

Logs go to stderr so stdout stays pure JSON and can be piped.

Example:
  trialgraph dry-run --limit 50 > processed.json
  trialgraph dry-run --out processed_data.json`,
	RunE: runDryRun,
}

func init() {
	rootCmd.AddCommand(dryRunCmd)

	dryRunCmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")
	dryRunCmd.Flags().IntVar(&batchSize, "batch-size", 100, "records per output batch")
	dryRunCmd.Flags().IntVar(&recordLimit, "limit", 1000, "maximum raw records to consume")
	dryRunCmd.Flags().StringVar(&rulesPath, "rules", "config/text_rules.yaml", "inference rule file")
	dryRunCmd.Flags().StringVar(&queryPath, "query", "config/extract_trials.sql", "extraction query file")
	dryRunCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable inference memoization")
}

func runDryRun(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	cfg := buildConfig()
	cfg.Batch.Size = batchSize
	cfg.Batch.Limit = recordLimit
	cfg.Rules.Path = rulesPath
	cfg.Source.QueryPath = queryPath
	cfg.Cache.Enabled = !noCache

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cleaner, err := buildCleaner(cfg, log)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}

	source, err := extract.NewClient(ctx, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	defer source.Close()

	stream, err := source.StreamTrials(ctx)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	defer stream.Close()

	sink := pipeline.NewJSONSink(out)

	p := pipeline.NewPipeline(cfg, cleaner, log)
	result, runErr := p.Run(ctx, stream, sink)
	if closeErr := sink.Close(ctx); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return fmt.Errorf("dry run failed after %d records: %w", result.Records, runErr)
	}

	fmt.Fprintf(os.Stderr, "✓ Transformed %d records in %d batches\n", result.Records, result.Batches)
	return nil
}
