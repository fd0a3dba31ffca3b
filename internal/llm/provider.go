// Package llm forwards chat conversations to hosted language models.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnknownProvider is returned for provider names that are not supported.
	ErrUnknownProvider = errors.New("unknown chat provider")
	// ErrProviderUnavailable is returned for supported providers lacking credentials.
	ErrProviderUnavailable = errors.New("chat provider not configured")
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
