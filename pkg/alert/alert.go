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

package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/cycle"
)

// Kind is the kind of an alert
type Kind string

const (
	// KindRegression is sent when checks start failing
	KindRegression Kind = "regression"
	// KindRecovery is sent when failing checks pass again
	KindRecovery Kind = "recovery"
)

// Notifier delivers alerts to an external channel
type Notifier interface {
	// Name identifies the notifier in logs and metrics
	Name() string
	// Notify delivers the alert once
	Notify(ctx context.Context, a Alert) error
}

// ErrNotifier is returned when a notifier could not deliver an alert
type ErrNotifier struct {
	Notifier string
	Err      error
}

func (e ErrNotifier) Error() string {
	return fmt.Sprintf("notifier %s failed: %v", e.Notifier, e.Err)
}

func (e ErrNotifier) Unwrap() error {
	return e.Err
}

// Alert is the payload sent to every notifier
type Alert struct {
	Kind      Kind            `json:"kind"`
	CycleID   string          `json:"cycle_id"`
	Seq       uint64          `json:"seq"`
	StartedAt time.Time       `json:"started_at"`
	Checks    []checks.Result `json:"checks"`
	Summary   cycle.Summary   `json:"summary"`
}

// Title is a one line description of the alert
func (a Alert) Title() string {
	ids := make([]string, 0, len(a.Checks))
	for _, c := range a.Checks {
		ids = append(ids, c.CheckID)
	}
	switch a.Kind {
	case KindRecovery:
		return fmt.Sprintf("[sentinel] recovered: %s", strings.Join(ids, ", "))
	default:
		return fmt.Sprintf("[sentinel] failing: %s", strings.Join(ids, ", "))
	}
}

// Markdown renders the alert for humans
func (a Alert) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cycle `%s` (seq %d) started at %s\n\n", a.CycleID, a.Seq, a.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "%d of %d checks passed, %d failed, %d warned, %d exceptions, %d timeouts.\n\n",
		a.Summary.PassedChecks, a.Summary.TotalChecks, a.Summary.FailedChecks,
		a.Summary.WarnChecks, a.Summary.ExceptionChecks, a.Summary.TimeoutChecks)
	b.WriteString("| check | status | latency | error | notes |\n|---|---|---|---|---|\n")
	for _, c := range a.Checks {
		fmt.Fprintf(&b, "| %s | %s | %dms | %s | %s |\n", c.CheckID, c.Status, c.LatencyMs, c.Error, c.Notes)
	}
	return b.String()
}

func newAlert(kind Kind, report *cycle.Report, results []checks.Result) Alert {
	return Alert{
		Kind:      kind,
		CycleID:   report.ID,
		Seq:       report.Seq,
		StartedAt: report.StartedAt,
		Checks:    results,
		Summary:   report.Summary(),
	}
}
