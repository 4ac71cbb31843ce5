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
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

const (
	// NoteBudgetExceeded marks results curtailed by the cycle budget
	NoteBudgetExceeded = "cycle budget exceeded"
	// NoteCancelled marks results curtailed by a cancellation of the whole cycle
	NoteCancelled = "cycle cancelled"
	// NoteSelfReportedTimeout marks results of checks that claimed a timeout on their own
	NoteSelfReportedTimeout = "check reported timeout itself"
)

var (
	errBudgetExceeded = errors.New(NoteBudgetExceeded)
	errCheckTimeout   = errors.New("check timeout elapsed")
)

// Executor runs one pass over the registered checks.
// It is safe to call Run concurrently, although the scheduler never does.
type Executor struct {
	cfg    *config.Config
	checks []checks.Check
	seq    atomic.Uint64
}

// New creates an executor for the given checks.
// The order of the checks is the registration order used in every report.
func New(cfg *config.Config, cks []checks.Check) *Executor {
	return &Executor{
		cfg:    cfg,
		checks: cks,
	}
}

// ContinueFrom sets the sequence number of the last cycle run before this process
func (e *Executor) ContinueFrom(seq uint64) {
	e.seq.Store(seq)
}

// Checks returns the metadata of all registered checks in registration order
func (e *Executor) Checks() []checks.Metadata {
	meta := make([]checks.Metadata, 0, len(e.checks))
	for _, c := range e.checks {
		m := c.Metadata()
		m.Timeout = e.timeoutOf(c)
		meta = append(meta, m)
	}
	return meta
}

// Run executes every registered check exactly once and returns the sealed report.
//
// At most schedule.maxParallelChecks checks are in flight at any time. Each check is
// bounded by its own timeout and all of them together by the cycle budget. Checks not
// admitted before the budget elapsed are reported as timed out. Run never fails.
func (e *Executor) Run(ctx context.Context, trigger Trigger) *Report {
	log := logger.FromContext(ctx)
	report := &Report{
		ID:        uuid.NewString(),
		Seq:       e.seq.Add(1),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
		Results:   make([]checks.Result, len(e.checks)),
	}
	start := time.Now()
	log.DebugContext(ctx, "Starting cycle", "cycle", report.ID, "seq", report.Seq, "trigger", trigger, "checks", len(e.checks))

	budgetCtx, cancel := context.WithTimeoutCause(ctx, e.cfg.Schedule.CycleBudget, errBudgetExceeded)
	defer cancel()

	var (
		wg       sync.WaitGroup
		degraded atomic.Bool
		sem      = semaphore.NewWeighted(int64(max(e.cfg.Schedule.MaxParallelChecks, 1)))
		admitted = 0
	)
	for i, c := range e.checks {
		if budgetCtx.Err() != nil {
			break
		}
		if err := sem.Acquire(budgetCtx, 1); err != nil {
			break
		}
		admitted++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			res, curtailed := e.runCheck(budgetCtx, c)
			if curtailed {
				degraded.Store(true)
			}
			report.Results[i] = res
		}()
	}
	wg.Wait()

	for i := admitted; i < len(e.checks); i++ {
		res := checks.Result{
			CheckID: e.checks[i].Metadata().ID,
			Status:  checks.StatusTimeout,
			Notes:   cancelNote(budgetCtx),
		}
		if res.Notes == NoteBudgetExceeded {
			degraded.Store(true)
		}
		report.Results[i] = res
	}

	report.Degraded = degraded.Load()
	report.DurationMs = time.Since(start).Milliseconds()
	report.seal()

	log.InfoContext(ctx, "Cycle finished",
		"cycle", report.ID,
		"seq", report.Seq,
		"trigger", trigger,
		"duration_ms", report.DurationMs,
		"total", report.TotalChecks,
		"passed", report.PassedChecks,
		"failed", report.FailedChecks,
		"warn", report.WarnChecks,
		"exception", report.ExceptionChecks,
		"timeout", report.TimeoutChecks,
		"degraded", report.Degraded,
	)
	return report
}

// runCheck runs a single check under its own timeout.
// The returned bool is true if the cycle budget cut the check short.
func (e *Executor) runCheck(ctx context.Context, c checks.Check) (checks.Result, bool) {
	meta := c.Metadata()
	log := logger.FromContext(ctx).With("check", meta.ID)
	timeout := e.timeoutOf(c)

	checkCtx, cancel := context.WithTimeoutCause(ctx, timeout, errCheckTimeout)
	defer cancel()
	checkCtx = logger.IntoContext(checkCtx, log)

	done := make(chan checks.Result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(ctx, "Check panicked", "panic", r)
				done <- checks.Result{Status: checks.StatusException, Error: fmt.Sprintf("panic: %v", r)}
			}
		}()
		done <- c.Run(checkCtx, e.cfg)
	}()

	var res checks.Result
	select {
	case res = <-done:
		if checkCtx.Err() != nil {
			// the check returned after it was cancelled; the executor decides
			return e.cancelled(checkCtx, meta.ID, timeout, start)
		}
		res = normalize(res)
	case <-checkCtx.Done():
		log.WarnContext(ctx, "Check did not finish in time", "timeout", timeout, "cause", context.Cause(checkCtx))
		return e.cancelled(checkCtx, meta.ID, timeout, start)
	}

	res.CheckID = meta.ID
	res.LatencyMs = time.Since(start).Milliseconds()
	log.DebugContext(ctx, "Check finished", "status", res.Status, "latency_ms", res.LatencyMs)
	return res, false
}

// cancelled builds the result of a check whose context is done
func (e *Executor) cancelled(ctx context.Context, id string, timeout time.Duration, start time.Time) (checks.Result, bool) {
	res := checks.Result{
		CheckID:   id,
		Status:    checks.StatusTimeout,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if errors.Is(context.Cause(ctx), errCheckTimeout) {
		res.LatencyMs = timeout.Milliseconds()
		res.Error = fmt.Sprintf("check did not finish within %s", timeout)
		return res, false
	}
	res.Notes = cancelNote(ctx)
	return res, res.Notes == NoteBudgetExceeded
}

// normalize enforces the result contract on what a check returned
func normalize(res checks.Result) checks.Result {
	switch res.Status {
	case checks.StatusPass, checks.StatusWarn, checks.StatusFail, checks.StatusException:
		return res
	case checks.StatusTimeout:
		res.Status = checks.StatusFail
		return res.WithNotes(NoteSelfReportedTimeout)
	default:
		res.Error = fmt.Sprintf("check returned invalid status %q", res.Status)
		res.Status = checks.StatusException
		return res
	}
}

func cancelNote(ctx context.Context) string {
	if errors.Is(context.Cause(ctx), errBudgetExceeded) {
		return NoteBudgetExceeded
	}
	return NoteCancelled
}

// timeoutOf returns the effective timeout of the check
func (e *Executor) timeoutOf(c checks.Check) time.Duration {
	if t := c.Metadata().Timeout; t > 0 {
		return t
	}
	return e.cfg.Schedule.PerCheckTimeout
}
