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

package checks

import (
	"fmt"
	"strings"
)

// Status is the outcome of a single check run
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	// StatusException is set by the executor when the check faulted
	StatusException Status = "exception"
	// StatusTimeout is set by the executor when it canceled the check
	StatusTimeout Status = "timeout"
)

// Statuses lists all statuses in severity order
var Statuses = []Status{StatusPass, StatusWarn, StatusFail, StatusException, StatusTimeout}

// Failing returns true for statuses that count as a regression
func (s Status) Failing() bool {
	return s == StatusFail || s == StatusException || s == StatusTimeout
}

// Result is the outcome of one check run
type Result struct {
	CheckID string `json:"check_id"`
	Status  Status `json:"status"`
	// LatencyMs is the wall time observed by the executor
	LatencyMs int64 `json:"latency_ms"`
	// Metrics holds numeric observations used for trends and drift
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Error   string             `json:"error_message,omitempty"`
	Notes   string             `json:"notes,omitempty"`
}

// Pass returns a passing result with the given metrics
func Pass(metrics map[string]float64) Result {
	return Result{Status: StatusPass, Metrics: metrics}
}

// Warn returns a warning result with the given metrics and notes
func Warn(metrics map[string]float64, format string, args ...any) Result {
	return Result{Status: StatusWarn, Metrics: metrics, Notes: fmt.Sprintf(format, args...)}
}

// Fail returns a failed result for the given error
func Fail(metrics map[string]float64, err error) Result {
	res := Result{Status: StatusFail, Metrics: metrics}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// WithNotes appends the given notes to the result
func (r Result) WithNotes(notes ...string) Result {
	all := append([]string{}, notes...)
	if r.Notes != "" {
		all = append([]string{r.Notes}, all...)
	}
	r.Notes = strings.Join(all, "; ")
	return r
}
