package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/trialgraph/trialgraph/internal/model"
)

// Provider defines the interface for LLM providers used as a fallback
// inferrer when the rule set resolves nothing for a description.
type Provider interface {
	// Name returns the provider name
	Name() string

	// InferAttributes picks route and dosage form for the description,
	// constrained to the given vocabularies (Unknown is always allowed).
	InferAttributes(ctx context.Context, req InferRequest) (model.InferenceResult, error)
}

// InferRequest is the input for fallback inference.
type InferRequest struct {
	// Description is the free-text drug description.
	Description string

	// Routes and Forms are the STRICT allowed vocabularies. The provider
	// must not invent values outside these lists.
	Routes []string
	Forms  []string
}

// Config holds LLM provider configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  int // seconds
}

// DefaultConfig returns sensible defaults. Disabled unless Provider is set.
func DefaultConfig() Config {
	return Config{
		Provider: "",
		Model:    "",
		Timeout:  30,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider: modelConfig.Provider,
		Model:    modelConfig.Model,
		APIKey:   modelConfig.APIKey,
		BaseURL:  modelConfig.BaseURL,
		Timeout:  30,
	}
}

// NewProvider creates a provider based on configuration. An empty provider
// name returns (nil, nil): fallback inference disabled.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", config.Provider)
	}
}

// BuildPrompt constructs the inference prompt with strict vocabulary mode.
func BuildPrompt(req InferRequest) string {
	return fmt.Sprintf(`You classify a clinical-trial drug description into two attributes.

CRITICAL RULES:
1. "route" MUST be one of: %s, or "Unknown".
2. "dosage_form" MUST be one of: %s, or "Unknown".
3. If the text does not clearly state an attribute, answer "Unknown".
4. Respond with ONLY a JSON object: {"route": "...", "dosage_form": "..."}

Description:
%s`, strings.Join(req.Routes, ", "), strings.Join(req.Forms, ", "), req.Description)
}
