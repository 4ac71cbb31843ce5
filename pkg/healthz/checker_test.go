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

package healthz

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func TestChecker_isMetricsHealthy(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()
	tests := []struct {
		name      string
		responder httpmock.Responder
		want      bool
	}{
		{
			name:      "healthy",
			responder: httpmock.NewStringResponder(http.StatusOK, http.StatusText(http.StatusOK)),
			want:      true,
		},
		{
			name:      "unhealthy",
			responder: httpmock.NewStringResponder(http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)),
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.RegisterResponder(http.MethodGet, "http://localhost:8080/metrics", tt.responder)
			c := checker{
				addr:   "localhost:8080",
				client: &http.Client{},
			}

			if got := c.isMetricsHealthy(ctx); got != tt.want {
				t.Errorf("Checker.isMetricsHealthy() = %v, want %v", got, tt.want)
			}
			httpmock.Reset()
		})
	}
}

func TestChecker_isSchedulerHealthy(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()
	tests := []struct {
		name      string
		responder httpmock.Responder
		want      bool
	}{
		{
			name:      "running",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"state":"running","cycles_run":3}`),
			want:      true,
		},
		{
			name:      "gate check",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"state":"gate_check"}`),
			want:      true,
		},
		{
			name:      "stopping",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"state":"stopping"}`),
			want:      false,
		},
		{
			name:      "invalid body",
			responder: httpmock.NewStringResponder(http.StatusOK, `running`),
			want:      false,
		},
		{
			name:      "error status",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, ``),
			want:      false,
		},
		{
			name:      "unreachable",
			responder: httpmock.NewErrorResponder(http.ErrServerClosed),
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.RegisterResponder(http.MethodGet, "http://localhost:8080/status", tt.responder)
			c := checker{
				addr:   "localhost:8080",
				client: &http.Client{},
			}

			if got := c.isSchedulerHealthy(ctx); got != tt.want {
				t.Errorf("Checker.isSchedulerHealthy() = %v, want %v", got, tt.want)
			}
			httpmock.Reset()
		})
	}
}

func TestChecker_CheckOverallHealth(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "http://localhost:9090/metrics", httpmock.NewStringResponder(http.StatusOK, ""))
	httpmock.RegisterResponder(http.MethodGet, "http://localhost:9090/status", httpmock.NewStringResponder(http.StatusOK, `{"state":"running"}`))

	if !New(":9090").CheckOverallHealth(context.Background()) {
		t.Error("Checker.CheckOverallHealth() = false, want true")
	}
}

func Test_formatAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{
			name: "empty",
			addr: "",
			want: "localhost:8080",
		},
		{
			name: "localhost",
			addr: "localhost",
			want: "localhost",
		},
		{
			name: "ipv4",
			addr: "10.0.1.2:8080",
			want: "localhost:8080",
		},
		{
			name: "ipv6",
			addr: "::1",
			want: "::1",
		},
		{
			name: "ipv6 with port",
			addr: "[::1]:8080",
			want: "localhost:8080",
		},
		{
			name: "port",
			addr: ":9090",
			want: "localhost:9090",
		},
		{
			name: "host and port",
			addr: "example.com:8080",
			want: "localhost:8080",
		},
		{
			name: "kubernetes service",
			addr: "example-service",
			want: "localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAddress(tt.addr); got != tt.want {
				t.Errorf("formatAddress() = %v, want %v", got, tt.want)
			}
		})
	}
}
