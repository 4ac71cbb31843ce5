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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/caas-team/sentinel/pkg/cycle"
)

//go:generate moq -out metrics_moq.go . Metrics
type Metrics interface {
	// GetRegistry returns the prometheus registry instance
	// containing the registered prometheus collectors
	GetRegistry() *prometheus.Registry
	// ObserveCycle records the scheduler level counters of a finished cycle
	ObserveCycle(report *cycle.Report)
	// SetState exposes the current scheduler state
	SetState(state string)
}

var _ Metrics = (*PrometheusMetrics)(nil)

type PrometheusMetrics struct {
	registry *prometheus.Registry
	cycles   *prometheus.CounterVec
	duration prometheus.Histogram
	stateMu  sync.Mutex
	state    *prometheus.GaugeVec
}

// NewMetrics initializes the metrics and returns the PrometheusMetrics
func NewMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	m := &PrometheusMetrics{
		registry: registry,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_cycles_total",
			Help: "Number of cycles run by trigger",
		}, []string{"trigger"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Wall time of a full cycle",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_scheduler_state",
			Help: "Current scheduler state, 1 for the active state",
		}, []string{"state"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles,
		m.duration,
		m.state,
	)

	return m
}

// GetRegistry returns the registry to register prometheus metrics
func (m *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) ObserveCycle(report *cycle.Report) {
	m.cycles.WithLabelValues(string(report.Trigger)).Inc()
	m.duration.Observe(float64(report.DurationMs) / 1000)
}

func (m *PrometheusMetrics) SetState(state string) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.state.Reset()
	m.state.WithLabelValues(state).Set(1)
}
