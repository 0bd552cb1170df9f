package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialgraph/trialgraph/internal/extract"
	"github.com/trialgraph/trialgraph/internal/graph"
	"github.com/trialgraph/trialgraph/internal/model"
	"github.com/trialgraph/trialgraph/internal/pipeline"
)

var (
	batchSize   int
	recordLimit int
	rulesPath   string
	queryPath   string
	loadRate    float64
	runTimeout  time.Duration
	noCache     bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, transform and load trials into the graph",
	Long: `Run the full pipeline:
- Stream trial records from the AACT database (never materialized)
- Clean each record and infer drug route/dosage form from descriptions
- Accumulate fixed-size batches (final partial batch allowed)
- Upsert each batch into Neo4j on business keys

Credentials come from the environment: AACT_HOST, AACT_PORT, AACT_DB,
AACT_USER, AACT_PASSWORD, NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD.

Example:
  trialgraph run --batch-size 100 --limit 1000
  trialgraph run --rules config/text_rules.yaml --rate 2
  trialgraph run --llm --llm-model gpt-4o-mini`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&batchSize, "batch-size", 100, "records per graph load")
	runCmd.Flags().IntVar(&recordLimit, "limit", 1000, "maximum raw records to consume")
	runCmd.Flags().StringVar(&rulesPath, "rules", "config/text_rules.yaml", "inference rule file")
	runCmd.Flags().StringVar(&queryPath, "query", "config/extract_trials.sql", "extraction query file")
	runCmd.Flags().Float64Var(&loadRate, "rate", 0, "max batch loads per second (0 = unpaced)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable inference memoization")

	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM fallback inference")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// applyFlags folds command flags into the config.
func applyFlags(cfg *model.Config) error {
	cfg.Batch.Size = batchSize
	cfg.Batch.Limit = recordLimit
	cfg.Rules.Path = rulesPath
	cfg.Source.QueryPath = queryPath
	cfg.Load.BatchesPerSecond = loadRate
	cfg.Cache.Enabled = !noCache

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		cfg.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := buildConfig()
	if err := applyFlags(cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cleaner, err := buildCleaner(cfg, log)
	if err != nil {
		return err
	}

	source, err := extract.NewClient(ctx, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	defer source.Close()

	sink, err := graph.NewClient(ctx, cfg.Graph, log)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	defer func() { _ = sink.Close(context.Background()) }()

	stream, err := source.StreamTrials(ctx)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	defer stream.Close()

	p := pipeline.NewPipeline(cfg, cleaner, log)
	result, err := p.Run(ctx, stream, sink)
	if err != nil {
		return fmt.Errorf("pipeline failed after %d records in %d batches: %w",
			result.Records, result.Batches, err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d records in %d batches\n", result.Records, result.Batches)
	return nil
}
