package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// GenerationParams are optional sampling settings, decoded from the
// free-form ai.params config map.
type GenerationParams struct {
	Temperature     *float32 `mapstructure:"temperature"`
	TopP            *float32 `mapstructure:"top_p"`
	TopK            *float32 `mapstructure:"top_k"`
	MaxOutputTokens int32    `mapstructure:"max_output_tokens"`
}

// DecodeParams decodes raw config into GenerationParams. Unknown keys
// are an error so typos surface at startup.
func DecodeParams(raw map[string]any) (GenerationParams, error) {
	var p GenerationParams
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(raw); err != nil {
		return p, fmt.Errorf("invalid ai.params: %w", err)
	}
	return p, nil
}

// GeminiConfig configures a GeminiCompleter.
type GeminiConfig struct {
	APIKey string
	Model  string
	Params map[string]any
}

// GeminiCompleter implements Completer with the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiCompleter creates a completer. An empty API key is an error.
func NewGeminiCompleter(ctx context.Context, cfg GeminiConfig) (*GeminiCompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini API key is not set")
	}

	params, err := DecodeParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &GeminiCompleter{
		client: client,
		model:  model,
		config: generationConfig(params),
	}, nil
}

func generationConfig(p GenerationParams) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      p.Temperature,
		TopP:             p.TopP,
		TopK:             p.TopK,
		MaxOutputTokens:  p.MaxOutputTokens,
		ResponseMIMEType: "application/json",
	}
}

// Model returns the configured model name.
func (g *GeminiCompleter) Model() string {
	return g.model
}

// Complete sends prompt as a single user turn and returns the reply text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
