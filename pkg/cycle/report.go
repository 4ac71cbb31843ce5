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

package cycle

import (
	"time"

	"github.com/caas-team/sentinel/pkg/checks"
)

// Trigger tells why a cycle was run
type Trigger string

const (
	TriggerGate     Trigger = "gate"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// Report is the sealed outcome of one pass over all registered checks.
// Results are ordered by registration, not by completion.
type Report struct {
	ID              string          `json:"cycle_id"`
	Seq             uint64          `json:"seq"`
	Trigger         Trigger         `json:"trigger"`
	StartedAt       time.Time       `json:"started_at"`
	DurationMs      int64           `json:"duration_ms"`
	TotalChecks     int             `json:"total_checks"`
	PassedChecks    int             `json:"passed_checks"`
	FailedChecks    int             `json:"failed_checks"`
	WarnChecks      int             `json:"warn_checks"`
	ExceptionChecks int             `json:"exception_checks"`
	TimeoutChecks   int             `json:"timeout_checks"`
	// Degraded is set when the cycle budget curtailed the pass
	Degraded        bool            `json:"degraded"`
	Results         []checks.Result `json:"results"`
}

// Summary is a report without its results
type Summary struct {
	ID              string    `json:"cycle_id"`
	Seq             uint64    `json:"seq"`
	Trigger         Trigger   `json:"trigger"`
	StartedAt       time.Time `json:"started_at"`
	DurationMs      int64     `json:"duration_ms"`
	TotalChecks     int       `json:"total_checks"`
	PassedChecks    int       `json:"passed_checks"`
	FailedChecks    int       `json:"failed_checks"`
	WarnChecks      int       `json:"warn_checks"`
	ExceptionChecks int       `json:"exception_checks"`
	TimeoutChecks   int       `json:"timeout_checks"`
	Degraded        bool      `json:"degraded"`
}

// seal computes the aggregate counts from the results
func (r *Report) seal() {
	r.TotalChecks = len(r.Results)
	r.PassedChecks, r.FailedChecks, r.WarnChecks, r.ExceptionChecks, r.TimeoutChecks = 0, 0, 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case checks.StatusPass:
			r.PassedChecks++
		case checks.StatusWarn:
			r.WarnChecks++
		case checks.StatusException:
			r.ExceptionChecks++
		case checks.StatusTimeout:
			r.TimeoutChecks++
		default:
			r.FailedChecks++
		}
	}
}

// Summary returns the aggregate view of the report
func (r *Report) Summary() Summary {
	return Summary{
		ID:              r.ID,
		Seq:             r.Seq,
		Trigger:         r.Trigger,
		StartedAt:       r.StartedAt,
		DurationMs:      r.DurationMs,
		TotalChecks:     r.TotalChecks,
		PassedChecks:    r.PassedChecks,
		FailedChecks:    r.FailedChecks,
		WarnChecks:      r.WarnChecks,
		ExceptionChecks: r.ExceptionChecks,
		TimeoutChecks:   r.TimeoutChecks,
		Degraded:        r.Degraded,
	}
}

// Result returns the result of the given check
func (r *Report) Result(checkID string) (checks.Result, bool) {
	for _, res := range r.Results {
		if res.CheckID == checkID {
			return res, true
		}
	}
	return checks.Result{}, false
}

// Clone returns a deep copy of the report
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Results = make([]checks.Result, len(r.Results))
	for i, res := range r.Results {
		if res.Metrics != nil {
			m := make(map[string]float64, len(res.Metrics))
			for k, v := range res.Metrics {
				m[k] = v
			}
			res.Metrics = m
		}
		c.Results[i] = res
	}
	return &c
}
