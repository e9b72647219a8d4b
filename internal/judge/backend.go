// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/docintel/pkg/types"
)

// Providers accepted by NewBackend.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// defaultTimeout bounds one provider call when none is configured.
const defaultTimeout = 2 * time.Minute

// NewBackend returns the backend for cfg.Provider (anthropic by default).
// It fails when the provider is unknown or has no API key.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderAnthropic
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key for provider %s", provider)
	}

	switch provider {
	case ProviderAnthropic, "claude":
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: httpClient}, nil
	case ProviderGemini, "google":
		return &GeminiBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: httpClient}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", cfg.Provider, ProviderAnthropic, ProviderGemini)
	}
}

// DefaultModel returns the model used for provider when none is set.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderGemini, "google":
		return DefaultGeminiModel
	default:
		return DefaultClaudeModel
	}
}
