package ollama

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lehigh-university-libraries/fxprep/internal/providers"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama3.1"
)

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Ollama is a provider for a local or remote Ollama server
type Ollama struct {
	configured bool
	client     *resty.Client
}

// New returns a provider for OLLAMA_URL (or OLLAMA_HOST). The provider is
// only available when one of them is set.
func New() *Ollama {
	url := os.Getenv("OLLAMA_URL")
	if url == "" {
		url = os.Getenv("OLLAMA_HOST")
	}
	if url == "" {
		return &Ollama{client: newClient(DefaultURL)}
	}
	return NewWithURL(url)
}

// NewWithURL returns a provider for an explicit server URL
func NewWithURL(url string) *Ollama {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	return &Ollama{configured: true, client: newClient(url)}
}

func newClient(url string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(url, "/")).
		SetTimeout(5*time.Minute).
		SetHeader("content-type", "application/json")
}

func (o *Ollama) Name() string {
	return "ollama"
}

func (o *Ollama) Available() bool {
	return o.configured
}

// ExtractText generates text for the given prompt using Ollama
func (o *Ollama) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if !o.Available() {
		return "", fmt.Errorf("OLLAMA_URL environment variable not set: %w", providers.ErrNotConfigured)
	}

	options := map[string]any{
		"temperature": config.Temperature,
	}
	if config.MaxTokens > 0 {
		options["num_predict"] = config.MaxTokens
	}

	var response generateResponse
	res, err := o.client.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:   config.Model,
			Prompt:  config.Prompt,
			Stream:  false,
			Options: options,
		}).
		SetResult(&response).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("received non-200 status code: %d - %s", res.StatusCode(), res.String())
	}

	return response.Response, nil
}
