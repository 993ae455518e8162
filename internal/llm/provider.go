package llm

import (
	"context"
	"errors"
)

// ErrAllProvidersExhausted is the designed terminal failure of the
// fallback chain: every configured provider errored or returned nothing.
var ErrAllProvidersExhausted = errors.New("all LLM providers exhausted")

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	// Configured reports whether the provider has credentials. An
	// unconfigured provider is skipped by the chain, not an error.
	Configured() bool
	Call(ctx context.Context, systemMessage, prompt string, temperature float64, maxTokens int) (string, error)
}
