// Package router provides the generative text capability used for intent
// classification and answer summarization.
// Supports Google Gemini, OpenAI, Anthropic and local Ollama, plus a deterministic stub.
package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/wealth-query-agent/internal/jsonx"
	"go.uber.org/zap"
)

// Provider represents an LLM provider
type Provider string

const (
	ProviderStub      Provider = "stub"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// ErrUnavailable is returned when no usable provider is configured.
var ErrUnavailable = errors.New("generative service unavailable")

// Generator turns a prompt into a text completion.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt)
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config holds the router configuration
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint root; used for proxies and tests.
	BaseURL string

	RequestTimeout time.Duration
}

var defaultModels = map[Provider]string{
	ProviderGemini:    "gemini-1.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-haiku-20240307",
	ProviderOllama:    "llama3.2",
}

var defaultBaseURLs = map[Provider]string{
	ProviderGemini:    "https://generativelanguage.googleapis.com/v1beta",
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderAnthropic: "https://api.anthropic.com/v1",
	ProviderOllama:    "http://localhost:11434",
}

// New returns the Generator selected by cfg.Provider.
// Unknown providers and the stub both yield the deterministic Stub.
func New(cfg Config, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return NewRouter(cfg, logger)
	case ProviderStub, "":
		logger.Info("Generative service disabled, using stub")
		return Stub{}
	default:
		logger.Warn("Unknown generative provider, using stub", zap.String("provider", string(cfg.Provider)))
		return Stub{}
	}
}

// Router sends prompts to a network-backed LLM provider
type Router struct {
	provider Provider
	model    string
	apiKey   string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
}

// NewRouter creates a network-backed generator for cfg.Provider
func NewRouter(cfg Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURLs[cfg.Provider]
	}

	logger.Info("Generative router initialized",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", model),
		zap.Bool("api_key", cfg.APIKey != ""))

	return &Router{
		provider: cfg.Provider,
		model:    model,
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.Named("router"),
	}
}

// Provider returns the provider this router talks to
func (r *Router) Provider() Provider {
	return r.provider
}

// Generate sends the prompt to the configured provider
func (r *Router) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var content string
	var err error
	switch r.provider {
	case ProviderGemini:
		content, err = r.callGemini(ctx, prompt)
	case ProviderOpenAI:
		content, err = r.callOpenAI(ctx, prompt)
	case ProviderAnthropic:
		content, err = r.callAnthropic(ctx, prompt)
	case ProviderOllama:
		content, err = r.callOllama(ctx, prompt)
	default:
		err = ErrUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("provider %s failed: %w", r.provider, err)
	}

	r.logger.Debug("Generation complete",
		zap.String("provider", string(r.provider)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("chars", len(content)))

	return stripThinkingTags(content), nil
}

// callGemini calls the Gemini generateContent API
func (r *Router) callGemini(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("no Gemini API key available: %w", ErrUnavailable)
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.2,
			"maxOutputTokens": 1024,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", r.baseURL, r.model, r.apiKey)
	return r.makeRequest(ctx, url, reqBody, map[string]string{
		"Content-Type": "application/json",
	})
}

// callOpenAI calls the OpenAI chat completions API
func (r *Router) callOpenAI(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("no OpenAI API key available: %w", ErrUnavailable)
	}

	reqBody := map[string]interface{}{
		"model": r.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 1000,
	}

	return r.makeRequest(ctx, r.baseURL+"/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + r.apiKey,
		"Content-Type":  "application/json",
	})
}

// callAnthropic calls the Anthropic messages API
func (r *Router) callAnthropic(ctx context.Context, prompt string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("no Anthropic API key available: %w", ErrUnavailable)
	}

	reqBody := map[string]interface{}{
		"model":      r.model,
		"max_tokens": 1000,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	return r.makeRequest(ctx, r.baseURL+"/messages", reqBody, map[string]string{
		"x-api-key":         r.apiKey,
		"anthropic-version": "2023-06-01",
		"Content-Type":      "application/json",
	})
}

// callOllama calls the local Ollama chat API
func (r *Router) callOllama(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": r.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	return r.makeRequest(ctx, r.baseURL+"/api/chat", reqBody, map[string]string{
		"Content-Type": "application/json",
	})
}

// makeRequest makes an HTTP request to an LLM API
func (r *Router) makeRequest(ctx context.Context, url string, body map[string]interface{}, headers map[string]string) (string, error) {
	jsonBody, err := jsonx.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var result map[string]interface{}
	if err := jsonx.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return extractContent(result)
}

// extractContent extracts the content from an LLM API response
func extractContent(result map[string]interface{}) (string, error) {
	// Gemini format
	if candidates, ok := result["candidates"].([]interface{}); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]interface{}); ok {
			if content, ok := candidate["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok {
					var sb strings.Builder
					for _, p := range parts {
						if part, ok := p.(map[string]interface{}); ok {
							if text, ok := part["text"].(string); ok {
								sb.WriteString(text)
							}
						}
					}
					if sb.Len() > 0 {
						return sb.String(), nil
					}
				}
			}
		}
	}

	// OpenAI format
	if choices, ok := result["choices"].([]interface{}); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]interface{}); ok {
			if message, ok := choice["message"].(map[string]interface{}); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// Anthropic format
	if content, ok := result["content"].([]interface{}); ok && len(content) > 0 {
		if block, ok := content[0].(map[string]interface{}); ok {
			if text, ok := block["text"].(string); ok {
				return text, nil
			}
		}
	}

	// Ollama format
	if message, ok := result["message"].(map[string]interface{}); ok {
		if content, ok := message["content"].(string); ok {
			return content, nil
		}
	}

	return "", fmt.Errorf("could not extract content from response")
}

var thinkingTags = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkingTags removes thinking tags from AI responses
func stripThinkingTags(content string) string {
	return strings.TrimSpace(thinkingTags.ReplaceAllString(content, ""))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ParseProvider parses a provider string
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderStub, ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return p, nil
	case "":
		return ProviderStub, nil
	default:
		return "", fmt.Errorf("invalid provider: %s", s)
	}
}
