package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

// Chain tries an ordered list of providers and returns the first
// non-empty response. A provider error or empty answer means "try the
// next one"; only a fully exhausted chain surfaces an error.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewChain(providers []Provider, timeout time.Duration, logger *logrus.Logger) *Chain {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Chain{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Invoke runs the chain in strict configured order. It returns the
// response text and the name of the provider that produced it, or
// ErrAllProvidersExhausted.
func (c *Chain) Invoke(ctx context.Context, systemMessage, prompt string, temperature float64, maxTokens int) (string, string, error) {
	attempts := make([]models.ProviderAttempt, 0, len(c.providers))

	for _, provider := range c.providers {
		if !provider.Configured() {
			c.logger.WithField("provider", provider.Name()).Debug("Provider not configured, skipping")
			attempts = append(attempts, models.ProviderAttempt{
				Provider: provider.Name(),
				Error:    "not configured",
			})
			continue
		}

		text, err := c.callOne(ctx, provider, systemMessage, prompt, temperature, maxTokens)
		if err != nil {
			c.logger.WithError(err).WithField("provider", provider.Name()).Warn("Provider call failed, trying next")
			attempts = append(attempts, models.ProviderAttempt{
				Provider: provider.Name(),
				Error:    err.Error(),
			})
			continue
		}
		if text == "" {
			c.logger.WithField("provider", provider.Name()).Warn("Provider returned empty response, trying next")
			attempts = append(attempts, models.ProviderAttempt{
				Provider: provider.Name(),
				Error:    "empty response",
			})
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"attempts": len(attempts) + 1,
		}).Info("LLM call succeeded")
		return text, provider.Name(), nil
	}

	c.logger.WithField("attempts", attempts).Error("All LLM providers exhausted")
	return "", "", ErrAllProvidersExhausted
}

func (c *Chain) callOne(ctx context.Context, provider Provider, systemMessage, prompt string, temperature float64, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return provider.Call(callCtx, systemMessage, prompt, temperature, maxTokens)
}
