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

// Package bedrock provides a text-generation provider for AWS Bedrock
// Anthropic models, authenticated with AWS Signature V4 via IAM.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/Yanis958/GarageOS-sub001/decisions/llm"
)

const (
	// DefaultModel is the Bedrock model used when none is specified.
	DefaultModel = "anthropic.claude-3-haiku-20240307-v1:0"

	// DefaultMaxTokens is the default max tokens for completions.
	DefaultMaxTokens = 1024
)

// InvokeClient is the subset of the Bedrock runtime client used by the
// provider (enables testing).
type InvokeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Provider implements the llm.Provider interface for AWS Bedrock.
type Provider struct {
	client InvokeClient
	region string
	models []string
}

// NewProvider creates a Bedrock provider for the given region.
// Returns an error if AWS config loading fails - callers should handle this
// rather than silently falling back.
func NewProvider(ctx context.Context, region string, models []string) (*Provider, error) {
	if region == "" {
		return nil, fmt.Errorf("bedrock region is required")
	}
	if len(models) == 0 {
		models = []string{DefaultModel}
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for Bedrock (region: %s): %w", region, err)
	}

	return &Provider{
		client: bedrockruntime.NewFromConfig(awsCfg),
		region: region,
		models: models,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "bedrock"
}

// Type returns the provider type.
func (p *Provider) Type() llm.ProviderType {
	return llm.ProviderTypeBedrock
}

// Configured reports whether the provider has a usable client.
// IAM credentials are resolved by the SDK, so a constructed client is enough.
func (p *Provider) Configured() bool {
	return p.client != nil && p.region != ""
}

// Models returns the model variants in preference order.
func (p *Provider) Models() []string {
	return p.models
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	Temperature      *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
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

	apiReq := anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		System:           req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.Temperature > 0 {
		apiReq.Temperature = &req.Temperature
	}

	requestJSON, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        requestJSON,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, llm.WrapProviderError(p.Name(), llm.ErrCodeNetwork, err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(output.Body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	content := ""
	if len(apiResp.Content) > 0 {
		content = apiResp.Content[0].Text
	}

	return &llm.CompletionResponse{
		Content:    content,
		Model:      model,
		TokensUsed: apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
		Latency:    time.Since(start),
	}, nil
}

// Compile-time interface compliance check.
var _ llm.Provider = (*Provider)(nil)
