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
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/caas-team/sentinel/internal/logger"
)

// Checker probes a running sentinel through its control api
type Checker interface {
	// CheckOverallHealth returns true if the sentinel serves metrics and its scheduler is alive
	CheckOverallHealth(ctx context.Context) bool
}

// healthyStates are the scheduler states of a live sentinel
var healthyStates = map[string]bool{
	"gate_check": true,
	"running":    true,
}

// checker is used to check the health of the sentinel's endpoints
type checker struct {
	addr   string
	client *http.Client
}

// New creates a new healthz checker
// address is the address of the API
func New(address string) Checker {
	return &checker{
		addr:   formatAddress(address),
		client: &http.Client{},
	}
}

func (c *checker) CheckOverallHealth(ctx context.Context) bool {
	return c.isMetricsHealthy(ctx) && c.isSchedulerHealthy(ctx)
}

// isMetricsHealthy checks if the metrics endpoint is healthy
func (c *checker) isMetricsHealthy(ctx context.Context) bool {
	resp, ok := c.get(ctx, "/metrics")
	if !ok {
		return false
	}
	defer closeBody(ctx, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// isSchedulerHealthy checks if the scheduler is gating or running
func (c *checker) isSchedulerHealthy(ctx context.Context) bool {
	log := logger.FromContext(ctx)
	resp, ok := c.get(ctx, "/status")
	if !ok {
		return false
	}
	defer closeBody(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		log.Error("Failed to decode status", "error", err)
		return false
	}
	if !healthyStates[status.State] {
		log.Warn("Scheduler is not running", "state", status.State)
		return false
	}
	return true
}

func (c *checker) get(ctx context.Context, path string) (*http.Response, bool) {
	log := logger.FromContext(ctx).With("path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s%s", c.addr, path), http.NoBody)
	if err != nil {
		log.Error("Failed to create request", "error", err)
		return nil, false
	}

	resp, err := c.client.Do(req) //nolint:bodyclose // closed by the caller
	if err != nil {
		log.Error("Failed to send request", "error", err)
		return nil, false
	}
	return resp, true
}

func closeBody(ctx context.Context, b io.ReadCloser) {
	if err := b.Close(); err != nil {
		logger.FromContext(ctx).Error("Failed to close response body", "error", err)
	}
}

// formatAddress formats the address to be used in the healthz checker
func formatAddress(addr string) string {
	// Localhost is a special case, since it's the only address that doesn't need to be formatted
	if addr == "localhost" || addr == "127.0.0.1" || addr == net.IPv6loopback.String() {
		return addr
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return net.JoinHostPort("localhost", "8080")
	}

	return net.JoinHostPort("localhost", port)
}
