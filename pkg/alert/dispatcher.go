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
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/config"
	"github.com/caas-team/sentinel/pkg/cycle"
)

// sendTimeout bounds one delivery including its retries
const sendTimeout = 30 * time.Second

// Dispatcher notifies the configured channels about failing and recovered checks.
// Sends never block the caller.
type Dispatcher struct {
	notifiers      []Notifier
	retry          helper.RetryConfig
	notifyRecovery bool
	tracker        *tracker
	wg             sync.WaitGroup
	sent           *prometheus.CounterVec
}

// NewDispatcher creates a dispatcher sending to the given notifiers
func NewDispatcher(cfg config.AlertConfig, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers:      notifiers,
		retry:          cfg.Retry,
		notifyRecovery: cfg.NotifyRecovery,
		tracker:        newTracker(),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_total",
			Help: "Number of alert deliveries by notifier and result",
		}, []string{"notifier", "result"}),
	}
}

// FromConfig creates a dispatcher with a notifier for every configured channel
func FromConfig(cfg config.AlertConfig) *Dispatcher {
	var notifiers []Notifier
	if cfg.Webhook != "" {
		notifiers = append(notifiers, NewWebhook(cfg.Webhook))
	}
	if cfg.IssueRepo != "" {
		notifiers = append(notifiers, NewGitHub(cfg.IssueAPI, cfg.IssueRepo, cfg.IssueToken))
	}
	if len(cfg.KafkaBrokers) > 0 {
		notifiers = append(notifiers, NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic))
	}
	return NewDispatcher(cfg, notifiers...)
}

// Dispatch folds the report into the alert state and sends the resulting alerts.
// It returns the alerts that were handed to the notifiers.
func (d *Dispatcher) Dispatch(ctx context.Context, report *cycle.Report) []Alert {
	log := logger.FromContext(ctx).With("cycle", report.ID)
	newlyFailing, recovered := d.tracker.observe(report)

	var alerts []Alert
	if len(newlyFailing) > 0 {
		alerts = append(alerts, newAlert(KindRegression, report, newlyFailing))
	}
	if len(recovered) > 0 {
		log.InfoContext(ctx, "Checks recovered", "checks", len(recovered))
		if d.notifyRecovery {
			alerts = append(alerts, newAlert(KindRecovery, report, recovered))
		}
	}
	if len(alerts) == 0 {
		return nil
	}
	if len(d.notifiers) == 0 {
		log.WarnContext(ctx, "No notifier configured, alerts are only logged", "alerts", len(alerts))
		return alerts
	}

	sendCtx := logger.IntoContext(context.WithoutCancel(ctx), log)
	for _, a := range alerts {
		log.InfoContext(ctx, "Dispatching alert", "kind", a.Kind, "checks", len(a.Checks))
		for _, n := range d.notifiers {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.send(sendCtx, n, a)
			}()
		}
	}
	return alerts
}

// send delivers the alert with bounded retries
func (d *Dispatcher) send(ctx context.Context, n Notifier, a Alert) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	log := logger.FromContext(ctx).With("notifier", n.Name(), "kind", a.Kind)

	err := helper.Retry(func(ctx context.Context) error {
		return n.Notify(ctx, a)
	}, d.retry)(ctx)
	if err != nil {
		d.sent.WithLabelValues(n.Name(), "failure").Inc()
		log.ErrorContext(ctx, "Failed to deliver alert", "error", ErrNotifier{Notifier: n.Name(), Err: err})
		return
	}
	d.sent.WithLabelValues(n.Name(), "success").Inc()
	log.DebugContext(ctx, "Alert delivered")
}

// Wait blocks until all pending sends are done or the context is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending sends and releases the notifiers
func (d *Dispatcher) Close(ctx context.Context) error {
	errs := []error{d.Wait(ctx)}
	for _, n := range d.notifiers {
		if c, ok := n.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, ErrNotifier{Notifier: n.Name(), Err: err})
			}
		}
	}
	return errors.Join(errs...)
}

// Notifiers returns the names of the configured notifiers
func (d *Dispatcher) Notifiers() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Failing returns the ids of the checks currently considered failing
func (d *Dispatcher) Failing() []string {
	return d.tracker.snapshot()
}

// GetMetricCollectors returns the collectors of the dispatcher
func (d *Dispatcher) GetMetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{d.sent}
}
