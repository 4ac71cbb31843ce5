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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/cycle"
)

var _ prometheus.Collector = (*ReportCollector)(nil)

var (
	cycleChecksDesc = prometheus.NewDesc(
		"sentinel_cycle_checks",
		"Number of checks per status in the latest cycle",
		[]string{"status"}, nil,
	)
	checkStatusDesc = prometheus.NewDesc(
		"sentinel_check_status",
		"Status of the check in the latest cycle: 1 pass, 0.5 warn, 0 otherwise",
		[]string{"check", "category"}, nil,
	)
	checkLatencyDesc = prometheus.NewDesc(
		"sentinel_check_latency_seconds",
		"Latency of the check in the latest cycle as observed by the executor",
		[]string{"check"}, nil,
	)
	checkMetricDesc = prometheus.NewDesc(
		"sentinel_check_metric",
		"Numeric observation reported by the check in the latest cycle",
		[]string{"check", "metric"}, nil,
	)
)

// ReportCollector exports the latest cycle report on every scrape
type ReportCollector struct {
	latest     func() *cycle.Report
	categories map[string]checks.Category
}

// NewReportCollector creates a collector for the report returned by latest
func NewReportCollector(latest func() *cycle.Report, meta []checks.Metadata) *ReportCollector {
	categories := make(map[string]checks.Category, len(meta))
	for _, m := range meta {
		categories[m.ID] = m.Category
	}
	return &ReportCollector{latest: latest, categories: categories}
}

func (c *ReportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cycleChecksDesc
	ch <- checkStatusDesc
	ch <- checkLatencyDesc
	ch <- checkMetricDesc
}

func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	report := c.latest()
	if report == nil {
		return
	}

	counts := map[checks.Status]int{
		checks.StatusPass:      report.PassedChecks,
		checks.StatusWarn:      report.WarnChecks,
		checks.StatusFail:      report.FailedChecks,
		checks.StatusException: report.ExceptionChecks,
		checks.StatusTimeout:   report.TimeoutChecks,
	}
	for _, s := range checks.Statuses {
		ch <- prometheus.MustNewConstMetric(cycleChecksDesc, prometheus.GaugeValue, float64(counts[s]), string(s))
	}

	for _, res := range report.Results {
		ch <- prometheus.MustNewConstMetric(checkStatusDesc, prometheus.GaugeValue,
			statusValue(res.Status), res.CheckID, string(c.categories[res.CheckID]))
		ch <- prometheus.MustNewConstMetric(checkLatencyDesc, prometheus.GaugeValue,
			float64(res.LatencyMs)/1000, res.CheckID)
		for name, v := range res.Metrics {
			ch <- prometheus.MustNewConstMetric(checkMetricDesc, prometheus.GaugeValue, v, res.CheckID, name)
		}
	}
}

func statusValue(s checks.Status) float64 {
	switch s {
	case checks.StatusPass:
		return 1
	case checks.StatusWarn:
		return 0.5
	default:
		return 0
	}
}
