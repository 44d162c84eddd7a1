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

package decisions

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Yanis958/GarageOS-sub001/common/usage"
	"github.com/Yanis958/GarageOS-sub001/decisions/gate"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm/bedrock"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm/mistral"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm/openai"
	"github.com/Yanis958/GarageOS-sub001/decisions/llm/sdk"
)

// ProviderConfig holds the chain entry settings for one provider.
type ProviderConfig struct {
	APIKey    string
	SecretARN string
	BaseURL   string
	Models    []string
	Priority  int
	Disabled  bool
}

// Config is the full runtime configuration, derived from the environment and
// optionally overridden by a YAML file (DECISIONS_CONFIG_FILE).
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	BedrockRegion      string
	RateLimitPerMinute int
	MonthlyQuota       int
	TimeoutSeconds     int
	MaxRetries         int
	Providers          map[string]*ProviderConfig
}

// LoadConfig reads the environment into a Config with defaults applied.
// Every provider key can come from a plain env var or, when the matching
// _SECRET_ARN variable is set, from AWS Secrets Manager.
func LoadConfig() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8084"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		BedrockRegion:      os.Getenv("BEDROCK_REGION"),
		RateLimitPerMinute: getEnvInt("AI_RATE_LIMIT_PER_MINUTE", gate.DefaultRequestsPerWindow),
		MonthlyQuota:       getEnvInt("AI_MONTHLY_QUOTA", gate.DefaultMonthlyLimit),
		TimeoutSeconds:     getEnvInt("AI_TIMEOUT_SECONDS", int(sdk.DefaultTimeout.Seconds())),
		MaxRetries:         getEnvInt("AI_MAX_RETRIES", sdk.DefaultMaxRetries),
		Providers: map[string]*ProviderConfig{
			"mistral": {
				APIKey:    os.Getenv("MISTRAL_API_KEY"),
				SecretARN: os.Getenv("MISTRAL_API_KEY_SECRET_ARN"),
				Priority:  1,
			},
			"groq": {
				APIKey:    os.Getenv("GROQ_API_KEY"),
				SecretARN: os.Getenv("GROQ_API_KEY_SECRET_ARN"),
				Priority:  2,
			},
			"openai": {
				APIKey:    os.Getenv("OPENAI_API_KEY"),
				SecretARN: os.Getenv("OPENAI_API_KEY_SECRET_ARN"),
				Priority:  3,
			},
			"bedrock": {
				Priority: 4,
				// Bedrock authenticates through the AWS SDK credential chain;
				// it joins the chain only when BEDROCK_REGION is set.
				Disabled: os.Getenv("BEDROCK_REGION") == "",
			},
		},
	}

	if path := os.Getenv("DECISIONS_CONFIG_FILE"); path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			log.Printf("Warning: ignoring config file: %v", err)
		} else {
			fileCfg.apply(cfg)
		}
	}

	return cfg
}

// buildChain assembles the ordered provider preference list from the config,
// resolving Secrets Manager ARNs where configured. Providers that end up
// without a credential stay in the chain and are skipped at request time.
func buildChain(ctx context.Context, cfg *Config, resolver *llm.SecretResolver) llm.Chain {
	resolveKey := func(pc *ProviderConfig) string {
		if pc.APIKey != "" {
			return pc.APIKey
		}
		if pc.SecretARN != "" && resolver != nil {
			key, err := resolver.Resolve(ctx, pc.SecretARN)
			if err != nil {
				log.Printf("Warning: secret resolution failed: %v", err)
				return ""
			}
			return key
		}
		return ""
	}

	type entry struct {
		priority int
		provider llm.Provider
	}
	var entries []entry

	if pc := cfg.Providers["mistral"]; pc != nil && !pc.Disabled {
		entries = append(entries, entry{pc.Priority, mistral.NewProvider(mistral.Config{
			APIKey:  resolveKey(pc),
			BaseURL: pc.BaseURL,
			Models:  pc.Models,
		})})
	}

	if pc := cfg.Providers["groq"]; pc != nil && !pc.Disabled {
		groqCfg := openai.Config{
			Name:    "groq",
			Type:    llm.ProviderTypeGroq,
			APIKey:  resolveKey(pc),
			BaseURL: openai.GroqBaseURL,
			Models:  pc.Models,
		}
		if pc.BaseURL != "" {
			groqCfg.BaseURL = pc.BaseURL
		}
		if len(groqCfg.Models) == 0 {
			groqCfg.Models = []string{openai.ModelLlama70B, openai.ModelLlama8B}
		}
		entries = append(entries, entry{pc.Priority, openai.NewProvider(groqCfg)})
	}

	if pc := cfg.Providers["openai"]; pc != nil && !pc.Disabled {
		entries = append(entries, entry{pc.Priority, openai.NewProvider(openai.Config{
			APIKey:  resolveKey(pc),
			BaseURL: pc.BaseURL,
			Models:  pc.Models,
		})})
	}

	if pc := cfg.Providers["bedrock"]; pc != nil && !pc.Disabled && cfg.BedrockRegion != "" {
		provider, err := bedrock.NewProvider(ctx, cfg.BedrockRegion, pc.Models)
		if err != nil {
			log.Printf("Warning: Bedrock provider unavailable: %v", err)
		} else {
			entries = append(entries, entry{pc.Priority, provider})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	chain := make(llm.Chain, len(entries))
	for i, e := range entries {
		chain[i] = e.provider
	}
	return chain
}

// Run starts the decision services HTTP server. It blocks until the server
// is shut down.
//
// Environment variables used:
//   - PORT: HTTP server port (default: 8084)
//   - DATABASE_URL: PostgreSQL connection string (required)
//   - REDIS_URL: Redis URL for the shared rate limiter (optional)
//   - JWT_SECRET: HS256 secret for session tokens (required)
//   - MISTRAL_API_KEY, GROQ_API_KEY, OPENAI_API_KEY: provider keys (optional)
//   - <PROVIDER>_API_KEY_SECRET_ARN: Secrets Manager alternative to plain keys
//   - BEDROCK_REGION: enables the AWS Bedrock provider (optional)
//   - AI_RATE_LIMIT_PER_MINUTE, AI_MONTHLY_QUOTA, AI_TIMEOUT_SECONDS,
//     AI_MAX_RETRIES: gate and resilience tuning
//   - DECISIONS_CONFIG_FILE: optional YAML override file
func Run() {
	log.Println("Starting GarageOS Decision Services...")

	cfg := LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	recorder := usage.NewRecorder(db)
	flags := gate.NewPostgresFlagStore(db)

	// The gate fails open and the recorder only logs, so a missing table
	// would otherwise go unnoticed until quota enforcement silently stops.
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSchema()
	if err := recorder.EnsureSchema(schemaCtx); err != nil {
		log.Fatalf("Failed to create usage tables: %v", err)
	}
	if err := flags.EnsureSchema(schemaCtx); err != nil {
		log.Fatalf("Failed to create feature flag table: %v", err)
	}

	// Secrets Manager is only reached for when at least one provider key is
	// configured as an ARN.
	var resolver *llm.SecretResolver
	for _, pc := range cfg.Providers {
		if pc.SecretARN != "" {
			region := cfg.BedrockRegion
			if region == "" {
				region = getEnv("AWS_REGION", "eu-west-1")
			}
			resolver, err = llm.NewSecretResolver(context.Background(), region, nil)
			if err != nil {
				log.Printf("Warning: Secrets Manager unavailable: %v", err)
			}
			break
		}
	}

	chain := buildChain(context.Background(), cfg, resolver)
	log.Printf("Provider chain: %v (configured: %v)", chain.Names(), chain.Configured().Names())

	var limiter gate.RateLimiter
	if cfg.RedisURL != "" {
		redisLimiter, err := gate.NewRedisRateLimiter(cfg.RedisURL, cfg.RateLimitPerMinute)
		if err != nil {
			log.Printf("Warning: Redis unavailable, using in-memory rate limiter: %v", err)
			limiter = gate.NewMemoryRateLimiter(cfg.RateLimitPerMinute)
		} else {
			limiter = redisLimiter
		}
	} else {
		limiter = gate.NewMemoryRateLimiter(cfg.RateLimitPerMinute)
	}

	accessGate := gate.New(gate.Config{
		Limiter:      limiter,
		Flags:        flags,
		Quota:        recorder,
		MonthlyLimit: cfg.MonthlyQuota,
	})

	orch := NewOrchestrator(OrchestratorConfig{
		Providers:  chain,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.MaxRetries,
	})

	server := NewServer(accessGate, orch, recorder)

	r := mux.NewRouter()

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Health and metrics stay outside authentication
	r.HandleFunc("/health", server.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// AI decision endpoints
	api := r.PathPrefix("/api/ai").Subrouter()
	api.Use(authMiddleware([]byte(cfg.JWTSecret)))
	api.HandleFunc("/client-message", server.handleClientMessage).Methods("POST")
	api.HandleFunc("/insights", server.handleInsights).Methods("POST")
	api.HandleFunc("/planning-suggest", server.handlePlanningSuggest).Methods("POST")
	api.HandleFunc("/quick-note", server.handleQuickNote).Methods("POST")
	api.HandleFunc("/quote-explain", server.handleQuoteExplain).Methods("POST")
	api.HandleFunc("/quote-audit", server.handleQuoteAudit).Methods("POST")
	api.HandleFunc("/usage", server.handleUsage).Methods("GET")

	handler := c.Handler(r)
	log.Printf("Decision services listening on port %s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
