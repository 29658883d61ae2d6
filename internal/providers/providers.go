package providers

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by providers whose credentials or endpoint
// are missing.
var ErrNotConfigured = errors.New("provider not configured")

// Config represents the configuration for a single text generation call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	MaxTokens   int
}

// Provider defines the interface for a text generation provider
type Provider interface {
	// Name identifies the provider in logs and reports.
	Name() string
	// Available reports whether the provider has what it needs to be called.
	Available() bool
	ExtractText(ctx context.Context, config Config) (string, error)
}
