// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openai provides a text-generation provider for OpenAI-compatible
// chat-completion APIs. The same adapter serves api.openai.com and Groq,
// which exposes the identical wire format at a different base URL.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Yanis958/GarageOS-sub001/decisions/llm"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm/sdk"
)

const (
	// DefaultBaseURL is the OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com"

	// GroqBaseURL is the Groq OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxTokens is the default max tokens for completions.
	DefaultMaxTokens = 1024
)

// Model constants.
const (
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT35     = "gpt-3.5-turbo"

	ModelLlama70B = "llama-3.3-70b-versatile"
	ModelLlama8B  = "llama-3.1-8b-instant"
)

// HTTPClient is an interface for HTTP client operations (enables testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider implements the llm.Provider interface for OpenAI-compatible APIs.
type Provider struct {
	name    string
	ptype   llm.ProviderType
	apiKey  string
	baseURL string
	models  []string
	client  HTTPClient
}

// Config contains configuration for an OpenAI-compatible provider.
type Config struct {
	Name    string           // Instance name, e.g. "openai" or "groq"
	Type    llm.ProviderType // Provider type for metrics/attribution
	APIKey  string           // API key; empty means unconfigured
	BaseURL string           // Optional: API base URL
	Models  []string         // Model variants in preference order
	Timeout time.Duration    // Optional: HTTP timeout
}

// NewProvider creates an OpenAI-compatible provider instance.
func NewProvider(cfg Config) *Provider {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.Type == "" {
		cfg.Type = llm.ProviderTypeOpenAI
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{ModelGPT4oMini, ModelGPT35}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Provider{
		name:    cfg.Name,
		ptype:   cfg.Type,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		models:  cfg.Models,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// NewGroqProvider creates a provider instance pointed at Groq.
func NewGroqProvider(apiKey string) *Provider {
	return NewProvider(Config{
		Name:    "groq",
		Type:    llm.ProviderTypeGroq,
		APIKey:  apiKey,
		BaseURL: GroqBaseURL,
		Models:  []string{ModelLlama70B, ModelLlama8B},
	})
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns the provider type.
func (p *Provider) Type() llm.ProviderType {
	return p.ptype
}

// Configured reports whether an API key is present.
func (p *Provider) Configured() bool {
	return p.apiKey != ""
}

// Models returns the model variants in preference order.
func (p *Provider) Models() []string {
	return p.models
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete generates a completion for the given request.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = p.models[0]
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	apiReq := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		apiReq.Temperature = &req.Temperature
	}

	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, llm.WrapProviderError(p.name, llm.ErrCodeNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, p.parseAPIError(resp.StatusCode, body)
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	content := ""
	if len(apiResp.Choices) > 0 {
		content = apiResp.Choices[0].Message.Content
	}

	respModel := apiResp.Model
	if respModel == "" {
		respModel = model
	}

	return &llm.CompletionResponse{
		Content:    content,
		Model:      respModel,
		TokensUsed: apiResp.Usage.TotalTokens,
		Latency:    time.Since(start),
	}, nil
}

// parseAPIError converts a non-200 API response into an APIError.
func (p *Provider) parseAPIError(statusCode int, body []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &sdk.APIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("%s: %s", p.name, apiErr.Error.Message),
			Type:       apiErr.Error.Type,
		}
	}
	return &sdk.APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("%s: request failed with status %d", p.name, statusCode),
	}
}

// Compile-time interface compliance check.
var _ llm.Provider = (*Provider)(nil)
