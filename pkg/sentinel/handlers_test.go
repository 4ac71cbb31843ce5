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

package sentinel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/cycle"
)

// serve registers the routes of s and returns its router
func serve(t *testing.T, s *Sentinel) http.Handler {
	t.Helper()
	require.NoError(t, s.api.RegisterRoutes(context.Background(), s.routes...))
	return s.api.Handler()
}

func do(h http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Status(t *testing.T) {
	s, _ := newTestSentinel(testConfig(time.Minute), mockCheck("a", pass), mockCheck("b", fail))
	h := serve(t, s)

	rec := do(h, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var before Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	assert.Equal(t, StateInitializing, before.State)
	assert.Nil(t, before.LastCycle)

	s.setState(StateRunning)
	s.RunCycle(context.Background())

	rec = do(h, http.MethodGet, "/status")
	var after Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, StateRunning, after.State)
	assert.Equal(t, uint64(1), after.CyclesRun)
	require.NotNil(t, after.LastCycle)
	assert.Equal(t, 2, after.LastCycle.TotalChecks)
	assert.Equal(t, 1, after.LastCycle.PassedChecks)
	assert.Equal(t, []string{"b"}, after.Failing)
	assert.NotNil(t, after.LastCycleAt)
}

func TestHandlers_Run(t *testing.T) {
	tests := []struct {
		name       string
		state      State
		wantStatus int
	}{
		{name: "running", state: StateRunning, wantStatus: http.StatusOK},
		{name: "during gate", state: StateGateCheck, wantStatus: http.StatusConflict},
		{name: "stopping", state: StateStopping, wantStatus: http.StatusConflict},
		{name: "aborted", state: StateAborted, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, history := newTestSentinel(testConfig(time.Minute), mockCheck("a", pass))
			h := serve(t, s)
			s.setState(tt.state)

			rec := do(h, http.MethodPost, "/run")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Nil(t, history.Last())
				return
			}

			var report cycle.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, cycle.TriggerManual, report.Trigger)
			assert.Equal(t, 1, report.PassedChecks)
			assert.Equal(t, report.ID, history.Last().ID, "manual cycles are persisted")
		})
	}
}

func TestHandlers_Checks(t *testing.T) {
	s, _ := newTestSentinel(testConfig(time.Minute), mockCheck("b", pass), mockCheck("a", pass))
	h := serve(t, s)

	rec := do(h, http.MethodGet, "/checks")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []CheckInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	assert.Equal(t, []CheckInfo{
		{ID: "b", Name: "b", Type: "mock", Category: checks.CategoryHealth, TimeoutMs: 1000},
		{ID: "a", Name: "a", Type: "mock", Category: checks.CategoryHealth, TimeoutMs: 1000},
	}, infos)
}

func TestHandlers_Report(t *testing.T) {
	s, history := newTestSentinel(testConfig(time.Minute), mockCheck("a", pass))
	h := serve(t, s)
	for seq := uint64(1); seq <= 12; seq++ {
		require.NoError(t, history.Record(context.Background(), &cycle.Report{ID: fmt.Sprint(seq), Seq: seq}))
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantSeqs   []uint64
	}{
		{name: "five most recent", query: "?n=5", wantStatus: http.StatusOK, wantSeqs: []uint64{12, 11, 10, 9, 8}},
		{name: "default", query: "", wantStatus: http.StatusOK, wantSeqs: []uint64{12, 11, 10, 9, 8, 7, 6, 5, 4, 3}},
		{name: "more than stored", query: "?n=1000", wantStatus: http.StatusOK, wantSeqs: []uint64{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}},
		{name: "zero", query: "?n=0", wantStatus: http.StatusBadRequest},
		{name: "negative", query: "?n=-3", wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "?n=five", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, "/report"+tt.query)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var reports []cycle.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
			var seqs []uint64
			for _, r := range reports {
				seqs = append(seqs, r.Seq)
			}
			assert.Equal(t, tt.wantSeqs, seqs)
		})
	}
}

func TestHandlers_ReportEmpty(t *testing.T) {
	s, _ := newTestSentinel(testConfig(time.Minute), mockCheck("a", pass))
	rec := do(serve(t, s), http.MethodGet, "/report?n=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandlers_Metrics(t *testing.T) {
	s, _ := newTestSentinel(testConfig(time.Minute), mockCheck("api-health", func(context.Context) checks.Result {
		return checks.Pass(map[string]float64{"targets_healthy": 3})
	}))
	h := serve(t, s)
	s.setState(StateRunning)
	s.RunCycle(context.Background())

	rec := do(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `sentinel_check_metric{check="api-health",metric="targets_healthy"} 3`)
	assert.Contains(t, body, `sentinel_check_status{category="health",check="api-health"} 1`)
	assert.Contains(t, body, `sentinel_cycles_total{trigger="manual"} 1`)
	assert.Contains(t, body, `sentinel_scheduler_state{state="running"} 1`)
	assert.Contains(t, body, `sentinel_cycle_checks{status="pass"} 1`)
}

func TestHandlers_OpenAPI(t *testing.T) {
	s, _ := newTestSentinel(testConfig(time.Minute))
	h := serve(t, s)

	rec := do(h, http.MethodGet, "/openapi", "Accept", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{"/status", "/run", "/checks", "/report", "/metrics", "/openapi"} {
		assert.Contains(t, paths, p)
	}

	rec = do(h, http.MethodGet, "/openapi")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/yaml", rec.Header().Get("Content-Type"))
	var ydoc map[string]any
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &ydoc))
	assert.Equal(t, "3.0.0", ydoc["openapi"])
}

func TestHandlers_Root(t *testing.T) {
	s, _ := newTestSentinel(testConfig(time.Minute))
	rec := do(serve(t, s), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ok"))
}
