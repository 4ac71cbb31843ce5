// sentinel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package metricswiring

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

const exposition = `# HELP memory_requests_total Total requests.
# TYPE memory_requests_total counter
memory_requests_total{route="/search"} 1027
# HELP memory_store_latency_seconds Store latency.
# TYPE memory_store_latency_seconds gauge
memory_store_latency_seconds 0.012
`

func TestNewCheck(t *testing.T) {
	_, err := NewCheck(config.CheckDefinition{Type: CheckType, ID: "metrics"})
	assert.Error(t, err)

	c, err := NewCheck(config.CheckDefinition{Type: CheckType, ID: "metrics", Config: map[string]any{
		"required": "memory_requests_total,memory_store_latency_seconds",
	}})
	require.NoError(t, err)
	assert.Equal(t, Config{MetricsPath: "/metrics", Required: []string{"memory_requests_total", "memory_store_latency_seconds"}}, c.(*check).config)
}

func TestCheck_Run(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	cfg := &config.Config{Target: config.TargetConfig{Url: "https://memory.example.com"}}

	tests := []struct {
		name        string
		required    []string
		responder   httpmock.Responder
		wantStatus  checks.Status
		wantMissing float64
	}{
		{
			name:       "all families exported",
			required:   []string{"memory_requests_total", "memory_store_latency_seconds"},
			responder:  httpmock.NewStringResponder(http.StatusOK, exposition),
			wantStatus: checks.StatusPass,
		},
		{
			name:        "family missing",
			required:    []string{"memory_requests_total", "memory_embeddings_total"},
			responder:   httpmock.NewStringResponder(http.StatusOK, exposition),
			wantStatus:  checks.StatusFail,
			wantMissing: 1,
		},
		{
			name:       "malformed exposition",
			required:   []string{"memory_requests_total"},
			responder:  httpmock.NewStringResponder(http.StatusOK, "memory_requests_total{ 1\n"),
			wantStatus: checks.StatusFail,
		},
		{
			name:       "endpoint not found",
			required:   []string{"memory_requests_total"},
			responder:  httpmock.NewStringResponder(http.StatusNotFound, ""),
			wantStatus: checks.StatusFail,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.RegisterResponder(http.MethodGet, "https://memory.example.com/metrics", tt.responder)
			c := &check{config: Config{MetricsPath: "/metrics", Required: tt.required}}

			res := c.Run(context.Background(), cfg)
			assert.Equal(t, tt.wantStatus, res.Status, res.Error)
			assert.Equal(t, tt.wantMissing, res.Metrics["families_missing"])
		})
	}
}
