// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Yanis958/GarageOS-sub001/decisions/llm"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm/sdk"
	"github.com/Yanis958/GarageOS-sub001/decisions/schema"
)

// FallbackMessage is the single user-facing message for any generation
// failure. It never distinguishes which integration is unhealthy.
const FallbackMessage = "automatic generation is unavailable, please continue manually"

var (
	// ErrNoProviderConfigured means no provider in the chain has a credential.
	ErrNoProviderConfigured = errors.New("no generation provider configured")

	// ErrAllProvidersFailed means every provider and model was tried without
	// producing a schema-valid result.
	ErrAllProvidersFailed = errors.New("all generation providers failed")
)

// GenerationRequest describes one orchestrated generation. It lives only for
// the duration of the call and is never persisted.
type GenerationRequest struct {
	TenantID     string
	UserID       string
	Feature      Feature
	SystemPrompt string
	UserPrompt   string
	Shape        string
}

// GenerationOutcome is the normalized orchestration result. Exactly one of
// Data or Err is set. Err is always a user-safe string.
type GenerationOutcome struct {
	Data      json.RawMessage
	Err       string
	Category  sdk.Category
	Provider  string
	Model     string
	LatencyMs int64
}

// Succeeded reports whether the orchestration produced validated data.
func (o GenerationOutcome) Succeeded() bool {
	return o.Err == ""
}

// OrchestratorConfig tunes the provider fallback loop.
type OrchestratorConfig struct {
	Providers  llm.Chain
	Timeout    time.Duration
	MaxRetries int
	Logger     *log.Logger
}

// Orchestrator tries providers in preference order, one model at a time,
// validating every response before accepting it. Providers are always tried
// sequentially, never concurrently, so only the winning provider is paid.
type Orchestrator struct {
	providers  llm.Chain
	timeout    time.Duration
	maxRetries int
	logger     *log.Logger
}

// NewOrchestrator creates an Orchestrator with defaults applied.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = sdk.DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = sdk.DefaultMaxRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[FALLBACK] ", log.LstdFlags)
	}
	return &Orchestrator{
		providers:  cfg.Providers,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger,
	}
}

// Generate runs the fallback chain for one request. The first provider/model
// combination that returns schema-valid JSON wins; later providers are never
// invoked. All failures surface to the caller as FallbackMessage.
func (o *Orchestrator) Generate(ctx context.Context, req GenerationRequest) GenerationOutcome {
	start := time.Now()

	configured := o.providers.Configured()
	if len(configured) == 0 {
		o.logger.Printf("no provider configured (tenant=%s feature=%s): %v",
			req.TenantID, req.Feature, ErrNoProviderConfigured)
		return GenerationOutcome{
			Err:       FallbackMessage,
			Category:  sdk.CategoryUnknown,
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	var lastCategory sdk.Category = sdk.CategoryUnknown

	for _, provider := range configured {
		for _, model := range provider.Models() {
			result, err := sdk.Attempt(ctx, sdk.AttemptConfig{
				Timeout:    o.timeout,
				MaxRetries: o.maxRetries,
			}, func(attemptCtx context.Context) (*llm.CompletionResponse, error) {
				return provider.Complete(attemptCtx, llm.CompletionRequest{
					SystemPrompt: req.SystemPrompt,
					Prompt:       req.UserPrompt,
					Model:        model,
				})
			})
			if err != nil {
				lastCategory = sdk.Classify(err)
				// Provider-attributed message stays in the logs only.
				o.logger.Printf("%s: attempt failed (tenant=%s feature=%s model=%s category=%s): %v",
					provider.Name(), req.TenantID, req.Feature, model, lastCategory, err)
				continue
			}

			data, err := o.acceptResponse(req.Shape, result.Value.Content)
			if err != nil {
				o.logger.Printf("%s: response rejected (tenant=%s feature=%s model=%s): %v",
					provider.Name(), req.TenantID, req.Feature, model, err)
				continue
			}

			return GenerationOutcome{
				Data:      data,
				Provider:  provider.Name(),
				Model:     result.Value.Model,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
	}

	o.logger.Printf("chain exhausted (tenant=%s feature=%s providers=%v): %v",
		req.TenantID, req.Feature, o.providers.Names(), ErrAllProvidersFailed)
	return GenerationOutcome{
		Err:       FallbackMessage,
		Category:  lastCategory,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// acceptResponse is the sole gate between raw provider text and typed data:
// extract the JSON object, parse it, validate it against the result shape.
func (o *Orchestrator) acceptResponse(shapeName, content string) (json.RawMessage, error) {
	extracted := llm.ExtractJSONObject(content)
	if extracted == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw any
	if err := json.Unmarshal([]byte(extracted), &raw); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if err := schema.Validate(shapeName, raw); err != nil {
		return nil, fmt.Errorf("response does not match shape %q: %w", shapeName, err)
	}

	return json.RawMessage(extracted), nil
}
