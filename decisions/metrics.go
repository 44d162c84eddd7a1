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
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageos_decisions_requests_total",
			Help: "Total number of decision requests processed",
		},
		[]string{"feature", "outcome"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garageos_decisions_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"feature"},
	)
	promGateDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageos_decisions_gate_denials_total",
			Help: "Total number of requests denied by the access gate",
		},
		[]string{"reason"},
	)
	promProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garageos_decisions_provider_calls_total",
			Help: "Total number of generation provider outcomes",
		},
		[]string{"provider", "status"},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promGateDenials)
	prometheus.MustRegister(promProviderCalls)

	// Initialize the per-feature series at zero so dashboards show every
	// feature from startup, not only after its first request.
	features := append([]Feature{FeatureAudit}, GenerationFeatures...)
	for _, f := range features {
		promRequestsTotal.WithLabelValues(string(f), "success")
		promRequestsTotal.WithLabelValues(string(f), "error")
		promRequestDuration.WithLabelValues(string(f))
	}
}

// observeOutcome records the per-feature counters for one completed request.
func observeOutcome(feature Feature, outcome GenerationOutcome) {
	status := "success"
	if !outcome.Succeeded() {
		status = "error"
	}
	promRequestsTotal.WithLabelValues(string(feature), status).Inc()
	promRequestDuration.WithLabelValues(string(feature)).Observe(float64(outcome.LatencyMs))
	if outcome.Provider != "" {
		promProviderCalls.WithLabelValues(outcome.Provider, status).Inc()
	}
}
