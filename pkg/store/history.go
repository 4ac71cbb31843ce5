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

package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/cycle"
)

// writeRetry retries a failed append exactly once
var writeRetry = helper.RetryConfig{
	Count: 1,
	Delay: 100 * time.Millisecond,
}

// History is the single writer of the report store.
// It owns the last report cell read by the control api.
type History struct {
	store    Store
	mu       sync.Mutex
	last     atomic.Pointer[cycle.Report]
	failures prometheus.Counter
}

// NewHistory creates a history writing to the given store
func NewHistory(s Store) *History {
	return &History{
		store: s,
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_store_write_failures_total",
			Help: "Number of cycle reports that could not be persisted",
		}),
	}
}

// Record publishes the report as the last one and appends it to the store.
// A failed append is retried once; if it still fails the report is only
// kept as the last report and the error is returned.
func (h *History) Record(ctx context.Context, report *cycle.Report) error {
	log := logger.FromContext(ctx).With("cycle", report.ID, "seq", report.Seq)
	h.last.Store(report)

	h.mu.Lock()
	defer h.mu.Unlock()

	err := helper.Retry(func(ctx context.Context) error {
		return h.store.Append(ctx, report)
	}, writeRetry)(ctx)
	if err != nil {
		h.failures.Inc()
		log.ErrorContext(ctx, "Failed to persist cycle report, dropping it from history", "error", err)
		return err
	}
	log.DebugContext(ctx, "Cycle report persisted")
	return nil
}

// Last returns the most recent report or nil if no cycle has run yet
func (h *History) Last() *cycle.Report {
	return h.last.Load()
}

// Recent returns up to n persisted reports, most recent first
func (h *History) Recent(ctx context.Context, n int) ([]*cycle.Report, error) {
	return h.store.Recent(ctx, ClampRecent(n))
}

// LastSeq returns the sequence number of the most recent persisted report
func (h *History) LastSeq(ctx context.Context) (uint64, error) {
	return h.store.LastSeq(ctx)
}

// GetMetricCollectors returns the collectors of the history
func (h *History) GetMetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{h.failures}
}

// Close closes the underlying store once pending writes are done
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Close()
}
