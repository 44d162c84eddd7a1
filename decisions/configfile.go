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
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the root structure of the optional YAML configuration file
// (DECISIONS_CONFIG_FILE). It overrides the environment-derived defaults for
// the provider chain and the gate limits.
type ConfigFile struct {
	Version   string                        `yaml:"version"`
	Providers map[string]ProviderFileConfig `yaml:"providers,omitempty"`
	Limits    *LimitsFileConfig             `yaml:"limits,omitempty"`
}

// ProviderFileConfig overrides one provider's chain entry.
type ProviderFileConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Priority int      `yaml:"priority,omitempty"`
	Models   []string `yaml:"models,omitempty"`
	APIKey   string   `yaml:"api_key,omitempty"`
	BaseURL  string   `yaml:"base_url,omitempty"`
}

// LimitsFileConfig overrides the gate limits.
type LimitsFileConfig struct {
	RateLimitPerMinute int `yaml:"rate_limit_per_minute,omitempty"`
	MonthlyQuota       int `yaml:"monthly_quota,omitempty"`
	TimeoutSeconds     int `yaml:"timeout_seconds,omitempty"`
}

// LoadConfigFile reads and parses the YAML configuration file. Environment
// variables referenced as ${VAR} or $VAR in the file content are expanded
// before parsing, so credentials can stay out of the file itself.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var config ConfigFile
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR references with their environment
// values. Unset variables expand to the empty string.
func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		name = strings.TrimPrefix(name, "{")
		name = strings.TrimSuffix(name, "}")
		return os.Getenv(name)
	})
}

// apply folds the file overrides into the runtime config. Only set fields
// override; everything else keeps its environment-derived value.
func (f *ConfigFile) apply(cfg *Config) {
	if f.Limits != nil {
		if f.Limits.RateLimitPerMinute > 0 {
			cfg.RateLimitPerMinute = f.Limits.RateLimitPerMinute
		}
		if f.Limits.MonthlyQuota > 0 {
			cfg.MonthlyQuota = f.Limits.MonthlyQuota
		}
		if f.Limits.TimeoutSeconds > 0 {
			cfg.TimeoutSeconds = f.Limits.TimeoutSeconds
		}
	}

	for name, override := range f.Providers {
		pc, ok := cfg.Providers[name]
		if !ok {
			pc = &ProviderConfig{}
			cfg.Providers[name] = pc
		}
		pc.Disabled = !override.Enabled
		if override.Priority > 0 {
			pc.Priority = override.Priority
		}
		if len(override.Models) > 0 {
			pc.Models = override.Models
		}
		if override.APIKey != "" {
			pc.APIKey = override.APIKey
		}
		if override.BaseURL != "" {
			pc.BaseURL = override.BaseURL
		}
	}
}
