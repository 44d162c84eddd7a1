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

// Package main is the entry point for the GarageOS decision services.
//
// The decision services turn free-form garage business requests into
// structured, validated results:
// - Orchestrates interchangeable text-generation providers with fallback
//   (Mistral, Groq, OpenAI, AWS Bedrock)
// - Enforces per-tenant access gating: rate limit, feature flags, monthly quota
// - Validates every provider response against a named result shape
// - Runs the deterministic quote-audit rule engine
// - Records usage events and quota counters for admin reporting
//
// Usage:
//
//	./decisions
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8084)
//	DATABASE_URL - PostgreSQL connection string (required)
//	REDIS_URL - Redis URL for the shared rate limiter (optional)
//	JWT_SECRET - HS256 secret for session tokens (required)
//	MISTRAL_API_KEY, GROQ_API_KEY, OPENAI_API_KEY - provider keys (optional)
//	BEDROCK_REGION - AWS Bedrock region (optional)
//	DECISIONS_CONFIG_FILE - optional YAML override file
package main

import (
	"github.com/Yanis958/GarageOS-sub001/decisions"
)

func main() {
	decisions.Run()
}
