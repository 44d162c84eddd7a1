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

package llm

import (
	"context"
)

// Provider is the unified interface for all text-generation providers.
// Implementations must be safe for concurrent use.
//
// The fallback chain relies on two properties: Configured() must be a cheap
// local check (no network call), and Models() must list the model variants to
// try in preference order before the chain moves to the next provider.
type Provider interface {
	// Name returns the unique identifier for this provider instance.
	// This is used for ordering, logging, and metrics.
	Name() string

	// Type returns the provider type (e.g. "mistral", "groq").
	Type() ProviderType

	// Configured reports whether the provider has a usable credential.
	// Unconfigured providers are skipped by the chain without any network call.
	Configured() bool

	// Models returns the model variants to try, in preference order.
	// The chain tries every model of a provider before moving to the next one.
	Models() []string

	// Complete generates a completion for the given request.
	// The context should be used for cancellation and timeout.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Chain is an ordered preference list of providers, cheapest/fastest first.
type Chain []Provider

// Configured returns the providers that pass the local credential check,
// preserving order.
func (c Chain) Configured() Chain {
	out := make(Chain, 0, len(c))
	for _, p := range c {
		if p.Configured() {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the provider names in chain order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return names
}
