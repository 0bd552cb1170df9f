package cli

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/trialgraph/trialgraph/internal/cache"
	"github.com/trialgraph/trialgraph/internal/clean"
	"github.com/trialgraph/trialgraph/internal/infer"
	"github.com/trialgraph/trialgraph/internal/llm"
	"github.com/trialgraph/trialgraph/internal/model"
	"github.com/trialgraph/trialgraph/internal/rules"
)

// buildConfig assembles the effective configuration: defaults, then the
// credential environment variables the original deployment uses.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose

	if v := os.Getenv("AACT_HOST"); v != "" {
		cfg.Source.Host = v
	}
	if v := os.Getenv("AACT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Source.Port = port
		}
	}
	if v := os.Getenv("AACT_DB"); v != "" {
		cfg.Source.Database = v
	}
	if v := os.Getenv("AACT_USER"); v != "" {
		cfg.Source.User = v
	}
	cfg.Source.Password = os.Getenv("AACT_PASSWORD")

	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.Graph.User = v
	}
	cfg.Graph.Password = os.Getenv("NEO4J_PASSWORD")
	cfg.Graph.Database = os.Getenv("NEO4J_DATABASE")

	return cfg
}

// newLogger builds the run logger. Logs always go to stderr so stdout
// stays free for machine-readable output.
func newLogger(cfg *model.Config) (*zap.SugaredLogger, error) {
	var zcfg zap.Config
	switch cfg.Output.LogMode {
	case "prod", "production":
		zcfg = zap.NewProductionConfig()
	default:
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.Output.Verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger.Sugar(), nil
}

// buildCleaner loads the rule set and wires the inference chain: rule
// engine, optional memoization, optional LLM fallback. A rule-file problem
// is fatal here, before any record is touched.
func buildCleaner(cfg *model.Config, log *zap.SugaredLogger) (*clean.Cleaner, error) {
	ruleSet, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	log.Infow("rule set loaded", "path", cfg.Rules.Path, "rules", ruleSet.Len())

	engine := infer.NewEngine(ruleSet)
	if cfg.Cache.Enabled {
		engine = engine.WithCache(cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL), cfg.Cache.TTL)
	}

	var inferrer clean.Inferrer = clean.RuleInferrer{Engine: engine}
	if cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("init LLM provider: %w", err)
		}
		inferrer = llm.NewFallback(engine, ruleSet, provider, log)
		log.Infow("LLM fallback inference enabled", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	return clean.NewCleaner(inferrer), nil
}
