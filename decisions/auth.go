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
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	userIDKey   contextKey = "user_id"
)

// Identity is the caller resolved from the session token. Every gated
// operation is keyed by TenantID; UserID is optional and only used for
// usage attribution.
type Identity struct {
	TenantID string
	UserID   string
}

// parseIdentity validates an HS256 bearer token and extracts the tenant.
// The session service issues the tokens; this layer only verifies them.
func parseIdentity(tokenString string, secret []byte) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tenantID := getClaimString(claims, "tenant_id")
	if tenantID == "" {
		return nil, fmt.Errorf("token carries no tenant_id")
	}

	return &Identity{
		TenantID: tenantID,
		UserID:   getClaimString(claims, "user_id"),
	}, nil
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

// authMiddleware resolves the caller's tenant from the Authorization header
// and stores it on the request context. Requests that do not resolve to a
// tenant are rejected with 401 before any gate check runs.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := parseIdentity(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), tenantIDKey, identity.TenantID)
			ctx = context.WithValue(ctx, userIDKey, identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom reads the authenticated caller from the request context.
func identityFrom(ctx context.Context) Identity {
	id := Identity{}
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		id.TenantID = v
	}
	if v, ok := ctx.Value(userIDKey).(string); ok {
		id.UserID = v
	}
	return id
}
