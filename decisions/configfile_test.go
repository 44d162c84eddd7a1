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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decisions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
version: "1"
providers:
  mistral:
    enabled: true
    priority: 1
    models:
      - mistral-small-latest
      - open-mistral-7b
  groq:
    enabled: false
limits:
  rate_limit_per_minute: 30
  monthly_quota: 100
  timeout_seconds: 20
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Version)
	require.Contains(t, cfg.Providers, "mistral")
	assert.True(t, cfg.Providers["mistral"].Enabled)
	assert.Equal(t, 1, cfg.Providers["mistral"].Priority)
	assert.Equal(t, []string{"mistral-small-latest", "open-mistral-7b"}, cfg.Providers["mistral"].Models)
	assert.False(t, cfg.Providers["groq"].Enabled)

	require.NotNil(t, cfg.Limits)
	assert.Equal(t, 30, cfg.Limits.RateLimitPerMinute)
	assert.Equal(t, 100, cfg.Limits.MonthlyQuota)
	assert.Equal(t, 20, cfg.Limits.TimeoutSeconds)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "providers: [not: a: map")
	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_MISTRAL_KEY", "sk-from-env")

	path := writeConfigFile(t, `
version: "1"
providers:
  mistral:
    enabled: true
    api_key: ${TEST_MISTRAL_KEY}
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Providers["mistral"].APIKey)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_A", "alpha")
	t.Setenv("TEST_VAR_B", "beta")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced", "key: ${TEST_VAR_A}", "key: alpha"},
		{"bare", "key: $TEST_VAR_B", "key: beta"},
		{"mixed", "${TEST_VAR_A}-$TEST_VAR_B", "alpha-beta"},
		{"unset expands empty", "key: ${TEST_VAR_UNSET_XYZ}", "key: "},
		{"no reference", "key: plain", "key: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.in))
		})
	}
}

func TestConfigFileApply(t *testing.T) {
	cfg := &Config{
		RateLimitPerMinute: 20,
		MonthlyQuota:       50,
		TimeoutSeconds:     30,
		Providers: map[string]*ProviderConfig{
			"mistral": {APIKey: "sk-env", Priority: 1, Models: []string{"mistral-small-latest"}},
			"groq":    {APIKey: "gsk-env", Priority: 2},
		},
	}

	file := &ConfigFile{
		Providers: map[string]ProviderFileConfig{
			"mistral": {Enabled: true, Models: []string{"open-mistral-7b"}},
			"groq":    {Enabled: false},
			"openai":  {Enabled: true, Priority: 3, APIKey: "sk-file"},
		},
		Limits: &LimitsFileConfig{MonthlyQuota: 100},
	}

	file.apply(cfg)

	// Unset limit fields keep their environment-derived values.
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Equal(t, 100, cfg.MonthlyQuota)
	assert.Equal(t, 30, cfg.TimeoutSeconds)

	// Existing providers keep unset fields and take the overrides.
	assert.Equal(t, "sk-env", cfg.Providers["mistral"].APIKey)
	assert.Equal(t, []string{"open-mistral-7b"}, cfg.Providers["mistral"].Models)
	assert.False(t, cfg.Providers["mistral"].Disabled)
	assert.True(t, cfg.Providers["groq"].Disabled)

	// New providers can be introduced from the file alone.
	require.Contains(t, cfg.Providers, "openai")
	assert.Equal(t, "sk-file", cfg.Providers["openai"].APIKey)
	assert.Equal(t, 3, cfg.Providers["openai"].Priority)
}
