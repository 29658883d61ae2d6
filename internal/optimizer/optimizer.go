// Package optimizer rewrites listing titles and descriptions with a text
// generation provider.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/fxprep/internal/gemini"
	"github.com/lehigh-university-libraries/fxprep/internal/normalize"
	"github.com/lehigh-university-libraries/fxprep/internal/ollama"
	"github.com/lehigh-university-libraries/fxprep/internal/openai"
	"github.com/lehigh-university-libraries/fxprep/internal/providers"
)

// ErrOptimizationUnavailable means no provider can be called. Callers fall
// back to the unrewritten text.
var ErrOptimizationUnavailable = errors.New("optimization unavailable")

// DefaultTemperature keeps rewrites close to the source text.
const DefaultTemperature = 0.2

const (
	titleMaxTokens       = 100
	descriptionMaxTokens = 1200
)

const titlePrompt = `You are an expert marketplace seller. Rewrite this listing title to maximize clicks and keyword relevance.
Rules:
- At most %d characters (hard limit).
- Keep critical keywords first; no keyword stuffing.
- No ALL CAPS, no emojis, no misleading claims.
- Keep brand, year/series, character, number, parallel/variant where applicable.
- American spelling; title case; remove duplicate words.
%sOriginal: "%s"
Return ONLY the new title.`

const descriptionPrompt = `You are an expert marketplace seller. Rewrite this listing description to be clear, factual, and conversion-focused.
Rules:
- Preserve 100%% factual accuracy; do not invent details.
- Open with a concise summary (what it is, key features, condition).
- Then bullet points: condition specifics, inclusions, shipping/returns highlights.
- No prohibited language; no guarantees or unverifiable claims.
- Keep formatting simple (plain text or basic bullets).
%sOriginal description:
%s

Return ONLY the revised description (no extra commentary).`

// NewProvider returns the named provider. An empty name picks the first
// provider with credentials, preferring OPTIMIZER_PROVIDER when set.
func NewProvider(name string) (providers.Provider, error) {
	if name == "" {
		name = os.Getenv("OPTIMIZER_PROVIDER")
	}

	switch strings.ToLower(name) {
	case "openai":
		return openai.New(), nil
	case "gemini":
		return gemini.New(), nil
	case "ollama":
		return ollama.New(), nil
	case "":
		candidates := []providers.Provider{openai.New(), gemini.New(), ollama.New()}
		for _, p := range candidates {
			if p.Available() {
				return p, nil
			}
		}
		return candidates[0], nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model for provider from its *_MODEL environment
// variable, or a built-in default.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return openai.DefaultModel
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return gemini.DefaultModel
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return ollama.DefaultModel
	default:
		return ""
	}
}

// Optimizer rewrites text through a provider. A nil *Optimizer is valid and
// always unavailable.
type Optimizer struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// New returns an Optimizer. An empty model uses DefaultModel.
func New(p providers.Provider, model string, temperature float64) *Optimizer {
	if model == "" && p != nil {
		model = DefaultModel(p.Name())
	}
	return &Optimizer{
		provider:    p,
		model:       model,
		temperature: temperature,
	}
}

// Available reports whether a provider can be called.
func (o *Optimizer) Available() bool {
	return o != nil && o.provider != nil && o.provider.Available()
}

// Name is the provider name, or "none".
func (o *Optimizer) Name() string {
	if o == nil || o.provider == nil {
		return "none"
	}
	return o.provider.Name()
}

// OptimizeTitle returns a rewritten title no longer than
// normalize.MaxTitleLength characters. listingContext, when set, is extra
// detail about the item the provider may use.
func (o *Optimizer) OptimizeTitle(ctx context.Context, text, listingContext string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no title to optimize")
	}
	prompt := fmt.Sprintf(titlePrompt, normalize.MaxTitleLength, contextBlock(listingContext), text)

	out, err := o.generate(ctx, prompt, titleMaxTokens)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	out = strings.TrimSpace(strings.TrimPrefix(out, "Title:"))
	out = strings.Trim(out, `"'`)
	if out == "" {
		return "", fmt.Errorf("provider %s returned an empty title", o.Name())
	}
	return normalize.TruncateTitle(out), nil
}

// OptimizeDescription returns a rewritten description.
func (o *Optimizer) OptimizeDescription(ctx context.Context, text, listingContext string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no description to optimize")
	}
	prompt := fmt.Sprintf(descriptionPrompt, contextBlock(listingContext), text)

	out, err := o.generate(ctx, prompt, descriptionMaxTokens)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("provider %s returned an empty description", o.Name())
	}
	return out, nil
}

func (o *Optimizer) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !o.Available() {
		return "", ErrOptimizationUnavailable
	}

	raw, err := o.provider.ExtractText(ctx, providers.Config{
		Model:       o.model,
		Temperature: o.temperature,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
	})
	if errors.Is(err, providers.ErrNotConfigured) {
		return "", fmt.Errorf("%w: %v", ErrOptimizationUnavailable, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate with %s: %w", o.provider.Name(), err)
	}

	out := stripResponse(raw)
	slog.Debug("Generated rewrite", "provider", o.provider.Name(), "model", o.model, "length", len(out))
	return out, nil
}

// stripResponse removes markdown code fences the model may wrap output in.
func stripResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if i := strings.Index(response, "\n"); i >= 0 && !strings.Contains(response[:i], " ") {
			response = response[i+1:]
		}
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	}
	return strings.TrimSpace(response)
}

func contextBlock(listingContext string) string {
	listingContext = strings.TrimSpace(listingContext)
	if listingContext == "" {
		return ""
	}
	return "Item details: " + listingContext + "\n"
}
