package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/common"
)

// AnthropicConfig configures the cloud-B backend.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string // default https://api.anthropic.com
	Model   string
}

type anthropicBackend struct {
	cfg  AnthropicConfig
	http *http.Client
}

func newAnthropicBackend(cfg AnthropicConfig) *anthropicBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	return &anthropicBackend{cfg: cfg, http: &http.Client{}}
}

func (b *anthropicBackend) name() constants.Provider { return constants.ProviderCloudB }

func (b *anthropicBackend) complete(ctx context.Context, system, user string, opts Options) (string, error) {
	if b.cfg.APIKey == "" {
		return "", common.Errorf(common.CodeProviderUnauthorized, "PROVIDER_B_KEY not set")
	}
	body := map[string]any{
		"model":       b.cfg.Model,
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
		"system":      system,
		"messages": []map[string]any{
			{"role": "user", "content": user},
		},
	}
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/v1/messages"
	raw, err := postJSON(ctx, b.http, endpoint, body, map[string]string{
		"x-api-key":         b.cfg.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var mm struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &mm); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	for _, block := range mm.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text block in anthropic response")
}
