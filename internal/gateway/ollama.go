package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"drawlens/internal/config"
)

// Ollama implements Gateway against the Ollama HTTP API.
// It is safe for concurrent use by multiple goroutines.
type Ollama struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewOllama creates an Ollama gateway from configuration.
func NewOllama(cfg config.OllamaConfig, log *slog.Logger) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ollama{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// ListModels queries /api/tags. Transport or decode failures are logged and
// reported as an empty list; an unreachable backend is indistinguishable from
// one with no models, which is exactly what the fallback policy needs.
func (o *Ollama) ListModels(ctx context.Context) []Model {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil
	}

	resp, err := o.client.Do(req)
	if err != nil {
		o.log.Warn("model listing failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		o.log.Warn("model listing returned non-OK status", "status", resp.StatusCode)
		return nil
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		o.log.Warn("model listing decode failed", "error", err)
		return nil
	}
	return tags.Models
}

// IsUsable reports whether the backend advertises at least one model from a
// recognized vision or text family.
func (o *Ollama) IsUsable(ctx context.Context) bool {
	return usable(o.ListModels(ctx))
}

// Generate calls /api/generate without streaming and returns the full
// response text. Errors are surfaced to the caller.
func (o *Ollama) Generate(ctx context.Context, model, prompt string, images ...string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Images: images,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model backend returned status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return gen.Response, nil
}
