package model

import "time"

// Config is the complete runtime configuration, passed explicitly to each
// component at construction. There are no process-wide defaults.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Graph  GraphConfig  `yaml:"graph"`
	Rules  RulesConfig  `yaml:"rules"`
	Batch  BatchConfig  `yaml:"batch"`
	Load   LoadConfig   `yaml:"load"`
	Cache  CacheConfig  `yaml:"cache"`
	LLM    LLMConfig    `yaml:"llm"`
	Output OutputConfig `yaml:"output"`
}

// SourceConfig configures the AACT relational extraction client.
type SourceConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Database  string        `yaml:"database"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"-"` // env only, never written to config files
	QueryPath string        `yaml:"query_path"`
	Timeout   time.Duration `yaml:"timeout"`
}

// GraphConfig configures the Neo4j sink client.
type GraphConfig struct {
	URI      string        `yaml:"uri"`
	User     string        `yaml:"user"`
	Password string        `yaml:"-"` // env only
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RulesConfig locates the inference rule file.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// BatchConfig controls batching and the total-record cutoff.
type BatchConfig struct {
	Size  int `yaml:"size"`
	Limit int `yaml:"limit"`
}

// LoadConfig paces batch loads against the sink.
type LoadConfig struct {
	BatchesPerSecond float64 `yaml:"batches_per_second"` // 0 disables pacing
	Burst            int     `yaml:"burst"`
}

// CacheConfig controls memoization of inference results.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// LLMConfig configures the optional fallback inferrer.
// Disabled unless Provider is set.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"` // env only
	BaseURL  string `yaml:"base_url"`
}

// OutputConfig controls logging and dry-run rendering.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose"`
	LogMode string `yaml:"log_mode"` // "dev" or "prod"
}

// DefaultConfig returns the built-in configuration. Credentials are left
// empty and are expected from the environment.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Host:      "aact-db.ctti-clinicaltrials.org",
			Port:      5432,
			Database:  "aact",
			QueryPath: "config/extract_trials.sql",
			Timeout:   30 * time.Second,
		},
		Graph: GraphConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "",
			Timeout:  10 * time.Second,
		},
		Rules: RulesConfig{
			Path: "config/text_rules.yaml",
		},
		Batch: BatchConfig{
			Size:  100,
			Limit: 1000,
		},
		Load: LoadConfig{
			BatchesPerSecond: 0,
			Burst:            1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		LLM: LLMConfig{
			Provider: "",
			Model:    "gpt-4o-mini",
		},
		Output: OutputConfig{
			Verbose: false,
			LogMode: "dev",
		},
	}
}
