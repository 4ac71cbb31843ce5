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
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/api"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/cycle"
	"github.com/caas-team/sentinel/pkg/store"
)

type encoder interface {
	Encode(v any) error
}

// CheckInfo is the static description of a registered check
type CheckInfo struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Category  checks.Category `json:"category"`
	TimeoutMs int64           `json:"timeout_ms"`
}

func (s *Sentinel) apiRoutes() []api.Route {
	return []api.Route{
		{
			Path: "/status", Method: http.MethodGet, Handler: s.handleStatus,
			Doc: &api.Doc{Summary: "Scheduler state and last cycle summary", Tags: []string{"Sentinel"}, Response: Status{}},
		},
		{
			Path: "/run", Method: http.MethodPost, Handler: s.handleRun,
			Doc: &api.Doc{
				Summary:  "Runs one cycle immediately and returns its report",
				Tags:     []string{"Sentinel"},
				Response: cycle.Report{},
				Errors:   map[int]string{http.StatusConflict: "The scheduler is not running"},
			},
		},
		{
			Path: "/checks", Method: http.MethodGet, Handler: s.handleChecks,
			Doc: &api.Doc{Summary: "Registered checks in registration order", Tags: []string{"Sentinel"}, Response: []CheckInfo{}},
		},
		{
			Path: "/report", Method: http.MethodGet, Handler: s.handleReport,
			Doc: &api.Doc{
				Summary:     "Most recent persisted cycle reports, most recent first",
				Tags:        []string{"Sentinel"},
				Response:    []cycle.Report{},
				QueryParams: map[string]string{"n": "Number of reports, 1 to 100, defaults to 10"},
				Errors:      map[int]string{http.StatusBadRequest: "Invalid number of reports"},
			},
		},
		{
			Path: "/metrics", Method: api.MethodAny,
			Handler: promhttp.HandlerFor(
				s.metrics.GetRegistry(),
				promhttp.HandlerOpts{Registry: s.metrics.GetRegistry()},
			).ServeHTTP,
			Doc: &api.Doc{Summary: "Prometheus metrics", Tags: []string{"Metrics"}, ContentType: "text/plain"},
		},
		{
			Path: "/openapi", Method: http.MethodGet, Handler: s.handleOpenAPI,
			Doc: &api.Doc{Summary: "This document", Tags: []string{"Meta"}, ContentType: "text/yaml"},
		},
	}
}

func (s *Sentinel) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Status())
}

func (s *Sentinel) handleRun(w http.ResponseWriter, r *http.Request) {
	if state := s.State(); state != StateRunning {
		logger.FromContext(r.Context()).WarnContext(r.Context(), "Rejecting manual cycle", "state", state)
		writeError(w, r, http.StatusConflict)
		return
	}
	writeJSON(w, r, http.StatusOK, s.RunCycle(r.Context()))
}

func (s *Sentinel) handleChecks(w http.ResponseWriter, r *http.Request) {
	meta := s.executor.Checks()
	infos := make([]CheckInfo, 0, len(meta))
	for _, m := range meta {
		infos = append(infos, CheckInfo{
			ID:        m.ID,
			Name:      m.Name,
			Type:      m.Type,
			Category:  m.Category,
			TimeoutMs: m.Timeout.Milliseconds(),
		})
	}
	writeJSON(w, r, http.StatusOK, infos)
}

func (s *Sentinel) handleReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	n := store.DefaultRecent
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			log.DebugContext(r.Context(), "Invalid number of reports requested", "n", raw)
			writeError(w, r, http.StatusBadRequest)
			return
		}
		n = store.ClampRecent(v)
	}

	reports, err := s.history.Recent(r.Context(), n)
	if err != nil {
		log.ErrorContext(r.Context(), "Failed to read report history", "error", err)
		writeError(w, r, http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []*cycle.Report{}
	}
	writeJSON(w, r, http.StatusOK, reports)
}

func (s *Sentinel) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	oapi, err := api.OpenAPI(r.Context(), s.routes...)
	if err != nil {
		log.Error("Failed to create openapi", "error", err)
		writeError(w, r, http.StatusInternalServerError)
		return
	}

	// the document only marshals correctly to json, yaml is derived from it
	raw, err := oapi.MarshalJSON()
	if err != nil {
		log.Error("Failed to marshal openapi", "error", err)
		writeError(w, r, http.StatusInternalServerError)
		return
	}

	var marshaler encoder
	var body any
	switch r.Header.Get("Accept") {
	case "application/json":
		w.Header().Add("Content-Type", "application/json")
		marshaler = json.NewEncoder(w)
		body = json.RawMessage(raw)
	default:
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			log.Error("Failed to convert openapi", "error", err)
			writeError(w, r, http.StatusInternalServerError)
			return
		}
		w.Header().Add("Content-Type", "text/yaml")
		marshaler = yaml.NewEncoder(w)
		body = generic
	}

	if err := marshaler.Encode(body); err != nil {
		log.Error("Failed to encode openapi", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int) {
	w.WriteHeader(status)
	if _, err := w.Write([]byte(http.StatusText(status))); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
	}
}
