package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fatwabot/internal/domain"
)

const (
	togetherDefaultBase  = "https://api.together.xyz"
	togetherDefaultModel = "togethercomputer/llama-2-70b-chat"
)

// Together implements domain.Provider for the Together completion endpoint
// and compatible services that take a single prompt string.
type Together struct {
	apiKey      string
	apiBase     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *slog.Logger
}

type TogetherConfig struct {
	APIKey      string
	APIBase     string
	Model       string
	MaxTokens   int
	Temperature float64
	Client      *http.Client // optional, defaults to a pooled client
	Logger      *slog.Logger
}

func NewTogether(cfg TogetherConfig) *Together {
	if cfg.APIBase == "" {
		cfg.APIBase = togetherDefaultBase
	}
	if cfg.Model == "" {
		cfg.Model = togetherDefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Client == nil {
		cfg.Client = SharedHTTPClient(defaultHTTPTimeout)
	}
	return &Together{
		apiKey:      cfg.APIKey,
		apiBase:     cfg.APIBase,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      cfg.Client,
		logger:      cfg.Logger,
	}
}

func (t *Together) Name() string { return "together" }

func (t *Together) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", t.apiBase+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("together not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("together: invalid API key")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("together returned %d", resp.StatusCode)
	}
	return nil
}

// inferenceRequest matches the Together /inference request body.
type inferenceRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

// Complete issues one POST to /inference and returns the raw response body.
func (t *Together) Complete(ctx context.Context, req domain.CompletionRequest) ([]byte, error) {
	body := inferenceRequest{
		Model:       t.model,
		Prompt:      buildPrompt(req.Instruction, req.UserText),
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
		Stop:        promptStops,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", t.apiBase+"/inference", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("together request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("together %d: %s", resp.StatusCode, string(respBody))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return payload, nil
}
