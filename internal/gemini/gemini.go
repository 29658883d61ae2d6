package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/fxprep/internal/providers"
	"google.golang.org/api/option"
)

// DefaultModel is used when neither the caller nor GEMINI_MODEL names one.
const DefaultModel = "gemini-1.5-flash"

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider using GEMINI_API_KEY
func New() *Gemini {
	return &Gemini{apiKey: os.Getenv("GEMINI_API_KEY")}
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Available() bool {
	return g.apiKey != ""
}

// ExtractText generates text for the given prompt using Gemini
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set: %w", providers.ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(config.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
