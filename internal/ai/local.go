package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rpger/content-extractor/constants"
)

// LocalConfig configures the local HTTP backend (Ollama-style chat API).
type LocalConfig struct {
	BaseURL string // default http://localhost:11434
	Model   string
}

type localBackend struct {
	cfg  LocalConfig
	http *http.Client
}

func newLocalBackend(cfg LocalConfig) *localBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3"
	}
	return &localBackend{cfg: cfg, http: &http.Client{}}
}

func (b *localBackend) name() constants.Provider { return constants.ProviderLocalHTTP }

func (b *localBackend) complete(ctx context.Context, system, user string, opts Options) (string, error) {
	body := map[string]any{
		"model":  b.cfg.Model,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/api/chat"
	raw, err := postJSON(ctx, b.http, endpoint, body, nil)
	if err != nil {
		return "", err
	}

	var cr struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode local response: %w", err)
	}
	if cr.Message.Content == "" {
		return "", fmt.Errorf("empty message from local provider")
	}
	return cr.Message.Content, nil
}
