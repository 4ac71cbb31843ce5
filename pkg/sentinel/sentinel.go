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
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/alert"
	"github.com/caas-team/sentinel/pkg/api"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
	"github.com/caas-team/sentinel/pkg/cycle"
	"github.com/caas-team/sentinel/pkg/metrics"
	"github.com/caas-team/sentinel/pkg/store"
)

const shutdownTimeout = time.Second * 90

// State is the lifecycle state of the scheduler
type State string

const (
	StateInitializing State = "initializing"
	StateGateCheck    State = "gate_check"
	StateAborted      State = "aborted"
	StateRunning      State = "running"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
)

// Sentinel drives the cycle executor on a jittered cadence
type Sentinel struct {
	cfg        *config.Config
	executor   *cycle.Executor
	history    *store.History
	dispatcher *alert.Dispatcher
	metrics    *metrics.PrometheusMetrics
	api        api.API
	routes     []api.Route

	// cycleMu ensures scheduled and manual cycles never overlap
	cycleMu sync.Mutex

	mu          sync.RWMutex
	state       State
	cyclesRun   uint64
	lastCycleAt time.Time
	nextCycleAt time.Time

	// jitter returns a uniform value in [-1, 1]
	jitter func() float64
}

// New creates a new sentinel running the given checks in their order
func New(cfg *config.Config, cks []checks.Check, history *store.History, dispatcher *alert.Dispatcher) *Sentinel {
	executor := cycle.New(cfg, cks)
	m := metrics.NewMetrics()
	m.GetRegistry().MustRegister(metrics.NewReportCollector(history.Last, executor.Checks()))
	m.GetRegistry().MustRegister(history.GetMetricCollectors()...)
	m.GetRegistry().MustRegister(dispatcher.GetMetricCollectors()...)

	s := &Sentinel{
		cfg:        cfg,
		executor:   executor,
		history:    history,
		dispatcher: dispatcher,
		metrics:    m,
		api:        api.New(cfg.Api),
		jitter:     func() float64 { return rand.Float64()*2 - 1 }, //nolint:gosec // no security relevance
	}
	s.routes = s.apiRoutes()
	s.setState(StateInitializing)
	return s
}

// Run starts the sentinel.
//
// It serves the control api, runs the gate cycle and then runs cycles on the
// configured cadence until ctx is done. An in-flight cycle is always completed.
// Run returns ErrGateFailed if no check passed in the gate cycle.
func (s *Sentinel) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)
	ctx = httpclient.IntoContext(ctx, httpclient.New(s.cfg.Schedule.CycleBudget))

	if seq, err := s.history.LastSeq(ctx); err != nil {
		log.WarnContext(ctx, "Could not read last cycle sequence from history", "error", err)
	} else {
		s.executor.ContinueFrom(seq)
	}

	if err := s.api.RegisterRoutes(ctx, s.routes...); err != nil {
		log.ErrorContext(ctx, "Failed to register routes", "error", err)
		return err
	}
	cErr := make(chan error, 1)
	go func() {
		// the server is stopped by shutdown only
		cErr <- s.api.Run(context.WithoutCancel(ctx))
	}()

	s.setState(StateGateCheck)
	report := s.runCycle(ctx, cycle.TriggerGate)
	if report.PassedChecks == 0 {
		s.setState(StateAborted)
		gErr := &ErrGateFailed{Report: report}
		log.ErrorContext(ctx, "Startup gate failed, not entering the scheduling loop", "error", gErr)
		return errors.Join(gErr, s.shutdown(ctx, cErr, StateAborted))
	}
	s.setState(StateRunning)
	log.InfoContext(ctx, "Startup gate passed", "passed", report.PassedChecks, "total", report.TotalChecks)

	for {
		wait := s.nextSleep()
		s.mu.Lock()
		s.nextCycleAt = time.Now().Add(wait)
		s.mu.Unlock()
		log.DebugContext(ctx, "Waiting for next cycle", "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.InfoContext(ctx, "Stopping sentinel", "cause", context.Cause(ctx))
			return s.shutdown(ctx, cErr, StateStopped)
		case err := <-cErr:
			timer.Stop()
			log.ErrorContext(ctx, "Control api stopped unexpectedly", "error", err)
			cErr <- err
			return errors.Join(fmt.Errorf("control api failed: %w", err), s.shutdown(ctx, cErr, StateStopped))
		case <-timer.C:
			s.runCycle(ctx, cycle.TriggerSchedule)
		}
	}
}

// RunCycle runs one cycle outside the cadence and returns its report
func (s *Sentinel) RunCycle(ctx context.Context) *cycle.Report {
	return s.runCycle(ctx, cycle.TriggerManual)
}

// runCycle runs, persists and alerts one cycle.
// The cycle is not canceled by ctx; it is bounded by the cycle budget.
func (s *Sentinel) runCycle(ctx context.Context, trigger cycle.Trigger) *cycle.Report {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	report := s.executor.Run(ctx, trigger)
	s.metrics.ObserveCycle(report)
	// failures are logged and counted by the history
	_ = s.history.Record(ctx, report)
	s.dispatcher.Dispatch(ctx, report)

	s.mu.Lock()
	s.cyclesRun++
	s.lastCycleAt = report.StartedAt
	s.mu.Unlock()
	return report
}

// nextSleep returns the cadence with a random jitter of up to maxJitterPct percent
func (s *Sentinel) nextSleep() time.Duration {
	factor := 1 + s.jitter()*s.cfg.Schedule.MaxJitterPct/100
	return time.Duration(max(float64(s.cfg.Schedule.Cadence)*factor, 0))
}

// shutdown stops the control api, drains pending alerts and closes the history.
// cErr must deliver the result of the api server.
func (s *Sentinel) shutdown(ctx context.Context, cErr <-chan error, final State) error {
	log := logger.FromContext(ctx)
	if final == StateStopped {
		s.setState(StateStopping)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	errA := s.api.Shutdown(ctx)
	if err := <-cErr; err != nil && errA == nil {
		errA = err
	}

	// wait for a manual cycle still holding the lock
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	errD := s.dispatcher.Close(ctx)
	errH := s.history.Close()
	s.setState(final)

	err := errors.Join(errA, errD, errH)
	if err != nil {
		log.ErrorContext(ctx, "Failed to shut down gracefully", "error", err)
		return fmt.Errorf("failed to shutdown gracefully: %w", err)
	}
	log.InfoContext(ctx, "Sentinel stopped")
	return nil
}

func (s *Sentinel) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.metrics.SetState(string(state))
}

// State returns the current lifecycle state
func (s *Sentinel) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status is the view of the scheduler served by the control api
type Status struct {
	State       State          `json:"state"`
	CyclesRun   uint64         `json:"cycles_run"`
	LastCycleAt *time.Time     `json:"last_cycle_at,omitempty"`
	NextCycleAt *time.Time     `json:"next_cycle_at,omitempty"`
	Failing     []string       `json:"failing_checks"`
	LastCycle   *cycle.Summary `json:"last_cycle,omitempty"`
}

// Status returns a snapshot of the scheduler state and the last cycle
func (s *Sentinel) Status() Status {
	s.mu.RLock()
	st := Status{
		State:     s.state,
		CyclesRun: s.cyclesRun,
		Failing:   s.dispatcher.Failing(),
	}
	if !s.lastCycleAt.IsZero() {
		t := s.lastCycleAt
		st.LastCycleAt = &t
	}
	if s.state == StateRunning && !s.nextCycleAt.IsZero() {
		t := s.nextCycleAt
		st.NextCycleAt = &t
	}
	s.mu.RUnlock()

	if last := s.history.Last(); last != nil {
		summary := last.Summary()
		st.LastCycle = &summary
	}
	return st
}
