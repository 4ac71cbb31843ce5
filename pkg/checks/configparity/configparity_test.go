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

package configparity

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

const runtimeConfig = `{
  "embedding": {"model": "text-embedding-3-small", "dimensions": 1536},
  "retrieval": {"top_k": 8, "hybrid": true},
  "feature.flags": ["dedup"]
}`

func TestNewCheck(t *testing.T) {
	_, err := NewCheck(config.CheckDefinition{Type: CheckType, ID: "parity"})
	assert.Error(t, err)

	c, err := NewCheck(config.CheckDefinition{Type: CheckType, ID: "parity", Config: map[string]any{
		"expected": map[string]any{"retrieval.top_k": 8},
	}})
	require.NoError(t, err)
	assert.Equal(t, "/v1/config", c.(*check).config.Path)
	assert.Equal(t, map[string]any{"retrieval.top_k": float64(8)}, c.(*check).config.Expected)
}

func TestCheck_Run(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder(http.MethodGet, "https://memory.example.com/v1/config", httpmock.NewStringResponder(http.StatusOK, runtimeConfig))

	cfg := &config.Config{Target: config.TargetConfig{Url: "https://memory.example.com"}}

	tests := []struct {
		name       string
		expected   map[string]any
		warnOnly   bool
		wantStatus checks.Status
		wantDrift  float64
	}{
		{
			name: "in parity",
			expected: map[string]any{
				"embedding.model":      "text-embedding-3-small",
				"embedding.dimensions": 1536,
				"retrieval.hybrid":     true,
				"feature.flags":        []any{"dedup"},
			},
			wantStatus: checks.StatusPass,
		},
		{
			name: "drifted",
			expected: map[string]any{
				"embedding.dimensions": 3072,
				"retrieval.top_k":      8,
			},
			wantStatus: checks.StatusFail,
			wantDrift:  1,
		},
		{
			name: "drift as warning",
			expected: map[string]any{
				"retrieval.reranker": "cohere",
			},
			warnOnly:   true,
			wantStatus: checks.StatusWarn,
			wantDrift:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCheck(config.CheckDefinition{Type: CheckType, ID: "parity", Config: map[string]any{
				"expected": tt.expected,
				"warnOnly": tt.warnOnly,
			}})
			require.NoError(t, err)

			res := c.Run(context.Background(), cfg)
			assert.Equal(t, tt.wantStatus, res.Status, res.Error)
			assert.Equal(t, tt.wantDrift, res.Metrics["keys_mismatched"])
			if tt.wantDrift > 0 {
				assert.NotEmpty(t, res.Notes)
			}
		})
	}
}

func Test_lookup(t *testing.T) {
	doc := map[string]any{
		"a":   map[string]any{"b": map[string]any{"c": 1.0}},
		"x.y": "literal",
	}

	v, ok := lookup(doc, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = lookup(doc, "x.y")
	assert.True(t, ok)
	assert.Equal(t, "literal", v)

	_, ok = lookup(doc, "a.z")
	assert.False(t, ok)
	_, ok = lookup(doc, "a.b.c.d")
	assert.False(t, ok)
}
