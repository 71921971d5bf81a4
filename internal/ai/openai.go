package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/common"
)

// OpenAIConfig configures the cloud-A backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default https://api.openai.com/v1
	Model   string
}

type openaiBackend struct {
	cfg  OpenAIConfig
	http *http.Client
}

func newOpenAIBackend(cfg OpenAIConfig) *openaiBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &openaiBackend{cfg: cfg, http: &http.Client{}}
}

func (b *openaiBackend) name() constants.Provider { return constants.ProviderCloudA }

func (b *openaiBackend) complete(ctx context.Context, system, user string, opts Options) (string, error) {
	if b.cfg.APIKey == "" {
		return "", common.Errorf(common.CodeProviderUnauthorized, "PROVIDER_A_KEY not set")
	}
	body := map[string]any{
		"model":           b.cfg.Model,
		"temperature":     opts.Temperature,
		"max_tokens":      opts.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := postJSON(ctx, b.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + b.cfg.APIKey,
	})
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return cc.Choices[0].Message.Content, nil
}

// postJSON is the shared HTTP helper for all backends. 401/403 map to
// provider_unauthorized; other non-2xx statuses surface the body.
func postJSON(ctx context.Context, client *http.Client, url string, body map[string]any, headers map[string]string) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider http error: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	buf := new(bytes.Buffer)
	_, _ = io.Copy(buf, io.LimitReader(resp.Body, 4<<20))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, common.Errorf(common.CodeProviderUnauthorized, "status %d: %s", resp.StatusCode, buf.String())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
