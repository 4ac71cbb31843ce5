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

package config

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/sentinel/internal/helper"
)

const remoteBattery = `
checks:
  - type: health-probe
    id: api-health
`

func TestNewLoader(t *testing.T) {
	tests := []struct {
		source string
		want   Loader
	}{
		{source: "checks.yaml", want: &FileLoader{}},
		{source: "/etc/sentinel/checks.yaml", want: &FileLoader{}},
		{source: "https://config.example.com/checks.yaml", want: &HttpLoader{}},
		{source: "HTTP://config.example.com/checks.yaml", want: &HttpLoader{}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got := NewLoader(&Config{Checks: ChecksConfig{Source: tt.source}})
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestFileLoader_Load(t *testing.T) {
	t.Run("relative path", func(t *testing.T) {
		l := NewFileLoader(&Config{Checks: ChecksConfig{Source: "testdata/battery.yaml"}})
		battery, err := l.Load(context.Background())
		require.NoError(t, err)

		want := &Battery{Checks: []CheckDefinition{
			{
				Type:    "health-probe",
				ID:      "api-health",
				Name:    "API health",
				Timeout: 5 * time.Second,
				Config:  map[string]any{"paths": []any{"/health", "/ready"}},
			},
			{
				Type:   "metrics-wiring",
				ID:     "metrics",
				Config: map[string]any{"required": []any{"memory_requests_total"}},
			},
		}}
		assert.Equal(t, want, battery)
	})

	t.Run("absolute path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "battery.yaml")
		require.NoError(t, os.WriteFile(path, []byte(remoteBattery), 0o600))

		battery, err := NewFileLoader(&Config{Checks: ChecksConfig{Source: path}}).Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, battery.Checks, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileLoader(&Config{Checks: ChecksConfig{Source: "testdata/missing.yaml"}}).Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "battery.yaml")
		require.NoError(t, os.WriteFile(path, []byte("checks: [\n"), 0o600))

		_, err := NewFileLoader(&Config{Checks: ChecksConfig{Source: path}}).Load(context.Background())
		assert.Error(t, err)
	})
}

func TestHttpLoader_Load(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	const url = "https://config.example.com/checks.yaml"
	cfg := &Config{
		Checks:   ChecksConfig{Source: url, Token: "secret", Retry: helper.RetryConfig{Count: 1, Delay: time.Millisecond}},
		Schedule: ScheduleConfig{PerCheckTimeout: time.Second},
	}

	tests := []struct {
		name      string
		responder httpmock.Responder
		wantErr   bool
	}{
		{
			name: "battery fetched with token",
			responder: func(req *http.Request) (*http.Response, error) {
				if req.Header.Get("Authorization") != "Bearer secret" {
					return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
				}
				return httpmock.NewStringResponse(http.StatusOK, remoteBattery), nil
			},
		},
		{
			name:      "server error",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, ""),
			wantErr:   true,
		},
		{
			name:      "malformed body",
			responder: httpmock.NewStringResponder(http.StatusOK, "checks: [\n"),
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.RegisterResponder(http.MethodGet, url, tt.responder)

			battery, err := NewHttpLoader(cfg).Load(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "api-health", battery.Checks[0].ID)
		})
	}
}
