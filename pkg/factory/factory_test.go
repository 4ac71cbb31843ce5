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

package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/checks/healthprobe"
	"github.com/caas-team/sentinel/pkg/checks/metricswiring"
	"github.com/caas-team/sentinel/pkg/config"
)

func TestNewChecksFromBattery(t *testing.T) {
	tests := []struct {
		name    string
		battery *config.Battery
		wantIDs []string
		wantErr error
	}{
		{
			name:    "empty battery",
			battery: &config.Battery{},
			wantErr: ErrEmptyBattery,
		},
		{
			name:    "nil battery",
			battery: nil,
			wantErr: ErrEmptyBattery,
		},
		{
			name: "order is kept",
			battery: &config.Battery{Checks: []config.CheckDefinition{
				{Type: metricswiring.CheckType, ID: "zz-metrics", Config: map[string]any{"required": []any{"up"}}},
				{Type: healthprobe.CheckType, ID: "aa-health"},
				{Type: healthprobe.CheckType, ID: "mm-health"},
			}},
			wantIDs: []string{"zz-metrics", "aa-health", "mm-health"},
		},
		{
			name: "unknown type",
			battery: &config.Battery{Checks: []config.CheckDefinition{
				{Type: "dns", ID: "dns"},
			}},
			wantErr: ErrUnknownCheckType,
		},
		{
			name: "duplicate id",
			battery: &config.Battery{Checks: []config.CheckDefinition{
				{Type: healthprobe.CheckType, ID: "health"},
				{Type: healthprobe.CheckType, ID: "health"},
			}},
			wantErr: ErrDuplicateCheckID,
		},
		{
			name: "missing id",
			battery: &config.Battery{Checks: []config.CheckDefinition{
				{Type: healthprobe.CheckType},
			}},
			wantErr: ErrMissingCheckID,
		},
		{
			name: "invalid check config",
			battery: &config.Battery{Checks: []config.CheckDefinition{
				{Type: metricswiring.CheckType, ID: "metrics"},
			}},
			wantErr: checks.ErrInvalidConfig{CheckID: "metrics", Field: "required", Reason: "at least one metric family is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewChecksFromBattery(tt.battery)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.Metadata().ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestDefaultBattery(t *testing.T) {
	battery := DefaultBattery(config.TargetConfig{
		Url: "https://memory.example.com",
		Datastores: map[string]string{
			"vector": "http://qdrant:6333/healthz",
			"graph":  "http://neo4j:7474/",
		},
	})

	got, err := NewChecksFromBattery(battery)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "service-health", got[0].Metadata().ID)
	assert.Equal(t, "graph-health", got[1].Metadata().ID)
	assert.Equal(t, "vector-health", got[2].Metadata().ID)
}

func TestTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"health-probe", "golden-fact-recall", "metrics-wiring",
		"security-negatives", "config-parity", "capacity-smoke",
	}, Types())
}
