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

package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caas-team/sentinel/internal/logger"
)

// Validate validates the whole configuration and returns all violations joined
func (c *Config) Validate(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx).WithGroup("configValidation")

	var errs []error
	invalid := func(err error, key string, value any) {
		log.ErrorContext(ctx, "Invalid configuration", "key", key, "value", value, "error", err)
		errs = append(errs, fmt.Errorf("%w: %s=%v", err, key, value))
	}

	if !isHttpURL(c.Target.Url) {
		invalid(ErrInvalidTargetURL, "target.url", c.Target.Url)
	}
	for _, name := range c.Target.DatastoreNames() {
		if !isHttpURL(c.Target.Datastores[name]) {
			invalid(ErrInvalidDatastoreURL, "target.datastores."+name, c.Target.Datastores[name])
		}
	}

	if c.Schedule.Cadence <= 0 {
		invalid(ErrInvalidCadence, "schedule.cadence", c.Schedule.Cadence)
	}
	if c.Schedule.MaxJitterPct < 0 || c.Schedule.MaxJitterPct > 100 {
		invalid(ErrInvalidJitter, "schedule.maxJitterPct", c.Schedule.MaxJitterPct)
	}
	if c.Schedule.PerCheckTimeout <= 0 {
		invalid(ErrInvalidCheckTimeout, "schedule.perCheckTimeout", c.Schedule.PerCheckTimeout)
	}
	if c.Schedule.CycleBudget <= 0 {
		invalid(ErrInvalidCycleBudget, "schedule.cycleBudget", c.Schedule.CycleBudget)
	}
	if c.Schedule.MaxParallelChecks < 1 {
		invalid(ErrInvalidParallelism, "schedule.maxParallelChecks", c.Schedule.MaxParallelChecks)
	}

	if c.Store.IsMemory() && c.Store.HistorySize < 1 {
		invalid(ErrInvalidHistorySize, "store.historySize", c.Store.HistorySize)
	}

	if c.Alert.Webhook != "" && !isHttpURL(c.Alert.Webhook) {
		invalid(ErrInvalidWebhookURL, "alert.webhook", c.Alert.Webhook)
	}
	if c.Alert.IssueRepo != "" && !isRepoRef(c.Alert.IssueRepo) {
		invalid(ErrInvalidIssueRepo, "alert.issueRepo", c.Alert.IssueRepo)
	}
	if len(c.Alert.KafkaBrokers) > 0 && c.Alert.KafkaTopic == "" {
		invalid(ErrMissingKafkaTopic, "alert.kafkaTopic", c.Alert.KafkaTopic)
	}
	if c.Alert.Retry.Count < 0 {
		invalid(ErrInvalidAlertRetry, "alert.retry.count", c.Alert.Retry.Count)
	}

	if c.Checks.Source != "" && strings.Contains(c.Checks.Source, "://") && !isHttpURL(c.Checks.Source) {
		invalid(ErrInvalidChecksSource, "checks.source", c.Checks.Source)
	}

	return errors.Join(errs...)
}

func isHttpURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isRepoRef returns true for references of the form owner/repo
func isRepoRef(ref string) bool {
	owner, repo, ok := strings.Cut(ref, "/")
	return ok && owner != "" && repo != "" && !strings.Contains(repo, "/")
}
