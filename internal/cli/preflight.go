package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialgraph/trialgraph/internal/extract"
	"github.com/trialgraph/trialgraph/internal/graph"
	"github.com/trialgraph/trialgraph/internal/rules"
)

var preflightTimeout time.Duration

// preflightCmd represents the preflight command
var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check every capability a run needs, without processing records",
	Long: `Preflight verifies, in order:
- the inference rule file parses and compiles
- the AACT source is reachable and the extraction query file exists
- the Neo4j sink is reachable

Each check reports individually; the command fails if any check fails.
Run it before scheduling a real run instead of discovering a missing
capability mid-extraction.`,
	RunE: runPreflight,
}

func init() {
	rootCmd.AddCommand(preflightCmd)

	preflightCmd.Flags().DurationVar(&preflightTimeout, "timeout", 30*time.Second, "per-check timeout")
	preflightCmd.Flags().StringVar(&rulesPath, "rules", "config/text_rules.yaml", "inference rule file")
	preflightCmd.Flags().StringVar(&queryPath, "query", "config/extract_trials.sql", "extraction query file")
}

func runPreflight(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	cfg.Rules.Path = rulesPath
	cfg.Source.QueryPath = queryPath

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	failed := 0
	check := func(name string, fn func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(context.Background(), preflightTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(os.Stderr, "✓ %s\n", name)
	}

	check("rule configuration", func(ctx context.Context) error {
		ruleSet, err := rules.Load(cfg.Rules.Path)
		if err != nil {
			return err
		}
		log.Debugw("rule set ok", "rules", ruleSet.Len())
		return nil
	})

	check("extraction source", func(ctx context.Context) error {
		client, err := extract.NewClient(ctx, cfg.Source, log)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.Preflight(ctx)
	})

	check("graph sink", func(ctx context.Context) error {
		client, err := graph.NewClient(ctx, cfg.Graph, log)
		if err != nil {
			return err
		}
		return client.Close(ctx)
	})

	if failed > 0 {
		return fmt.Errorf("%d preflight check(s) failed", failed)
	}
	fmt.Fprintln(os.Stderr, "All preflight checks passed")
	return nil
}
