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
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yanis958/GarageOS-sub001/decisions/schema"
)

// Every generation feature must map to a registered result shape, and the
// deterministic audit feature must stay out of the provider chain.
func TestGenerationFeaturesHaveShapes(t *testing.T) {
	for _, feature := range GenerationFeatures {
		name := shapeFor(feature)
		require.NotEmpty(t, name, "feature %s has no result shape", feature)
		_, err := schema.Lookup(name)
		assert.NoError(t, err, "feature %s maps to unregistered shape %s", feature, name)
	}

	assert.NotContains(t, GenerationFeatures, FeatureAudit)
	assert.Empty(t, shapeFor(FeatureAudit))
}

func TestMetricSeriesInitializedPerFeature(t *testing.T) {
	// init pre-creates success and error series for every feature,
	// audit included.
	series := len(GenerationFeatures) + 1
	assert.GreaterOrEqual(t, testutil.CollectAndCount(promRequestsTotal), 2*series)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(promRequestDuration), series)
}
