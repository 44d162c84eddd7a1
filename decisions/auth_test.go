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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func signToken(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestParseIdentity(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"tenant_id": "garage-1",
		"user_id":   "user-7",
	}, testSecret)

	identity, err := parseIdentity(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "garage-1", identity.TenantID)
	assert.Equal(t, "user-7", identity.UserID)
}

func TestParseIdentityUserOptional(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"tenant_id": "garage-1"}, testSecret)

	identity, err := parseIdentity(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "garage-1", identity.TenantID)
	assert.Empty(t, identity.UserID)
}

func TestParseIdentityWrongSecret(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"tenant_id": "garage-1"}, []byte("other-secret"))

	_, err := parseIdentity(token, testSecret)
	assert.Error(t, err)
}

func TestParseIdentityMissingTenant(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": "user-7"}, testSecret)

	_, err := parseIdentity(token, testSecret)
	assert.Error(t, err)
}

func TestParseIdentityGarbage(t *testing.T) {
	_, err := parseIdentity("not-a-jwt", testSecret)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := authMiddleware(testSecret)(next)

	token := signToken(t, jwt.MapClaims{
		"tenant_id": "garage-1",
		"user_id":   "user-7",
	}, testSecret)

	req := httptest.NewRequest("POST", "/api/ai/quick-note", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "garage-1", seen.TenantID)
	assert.Equal(t, "user-7", seen.UserID)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{
		"tenant_id": "garage-1",
		"exp":       1000,
	}, testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"invalid token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})
			handler := authMiddleware(testSecret)(next)

			req := httptest.NewRequest("POST", "/api/ai/quick-note", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called, "handler ran behind a rejected token")
		})
	}
}

func TestIdentityFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	identity := identityFrom(req.Context())
	assert.Empty(t, identity.TenantID)
	assert.Empty(t, identity.UserID)
}
