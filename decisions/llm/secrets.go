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
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsClient is the subset of the Secrets Manager client used by the
// resolver (enables testing).
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretResolver resolves provider API keys from AWS Secrets Manager when a
// deployment stores them as secret ARNs instead of plain environment values.
// Resolved values are cached with a TTL to avoid hammering the API on restart
// loops.
type SecretResolver struct {
	client SecretsClient
	cache  map[string]secretCacheEntry
	mu     sync.RWMutex
	ttl    time.Duration
	logger *log.Logger
}

type secretCacheEntry struct {
	value     string
	expiresAt time.Time
}

// NewSecretResolver creates a resolver using the default AWS credential chain.
func NewSecretResolver(ctx context.Context, region string, logger *log.Logger) (*SecretResolver, error) {
	if logger == nil {
		logger = log.New(os.Stdout, "[SECRETS] ", log.LstdFlags)
	}

	cfgOpts := []func(*config.LoadOptions) error{}
	if region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SecretResolver{
		client: secretsmanager.NewFromConfig(cfg),
		cache:  make(map[string]secretCacheEntry),
		ttl:    5 * time.Minute,
		logger: logger,
	}, nil
}

// Resolve fetches the secret string for the given ARN, using the cache when
// fresh.
func (r *SecretResolver) Resolve(ctx context.Context, secretARN string) (string, error) {
	r.mu.RLock()
	entry, exists := r.cache[secretARN]
	r.mu.RUnlock()

	if exists && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretARN,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", maskARN(secretARN), err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", maskARN(secretARN))
	}

	r.mu.Lock()
	r.cache[secretARN] = secretCacheEntry{
		value:     *out.SecretString,
		expiresAt: time.Now().Add(r.ttl),
	}
	r.mu.Unlock()

	r.logger.Printf("Resolved secret %s", maskARN(secretARN))
	return *out.SecretString, nil
}

// maskARN hides the secret name portion of an ARN for logging.
func maskARN(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) < 7 {
		return "***"
	}
	return strings.Join(parts[:6], ":") + ":***"
}
