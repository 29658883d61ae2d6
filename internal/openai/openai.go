package openai

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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAI is a provider for the OpenAI chat completions API
type OpenAI struct {
	apiKey string
	client *resty.Client
}

// New returns a provider using OPENAI_API_KEY and, when set, OPENAI_BASE_URL
func New() *OpenAI {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return NewWithClient(os.Getenv("OPENAI_API_KEY"), baseURL)
}

// NewWithClient returns a provider for an explicit key and endpoint
func NewWithClient(apiKey, baseURL string) *OpenAI {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(2 * time.Minute).
		SetHeader("content-type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &OpenAI{apiKey: apiKey, client: client}
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Available() bool {
	return o.apiKey != ""
}

// ExtractText generates text for the given prompt using OpenAI
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if !o.Available() {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set: %w", providers.ErrNotConfigured)
	}

	var response chatResponse
	res, err := o.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       config.Model,
			Messages:    []chatMessage{{Role: "user", Content: config.Prompt}},
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		}).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("received non-200 status code: %d - %s", res.StatusCode(), res.String())
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}
