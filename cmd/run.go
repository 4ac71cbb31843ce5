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

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/alert"
	"github.com/caas-team/sentinel/pkg/config"
	"github.com/caas-team/sentinel/pkg/factory"
	"github.com/caas-team/sentinel/pkg/sentinel"
	"github.com/caas-team/sentinel/pkg/store"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run sentinel",
		Long:  `Sentinel will be started with the provided configuration`,
		RunE:  run(),
	}

	NewFlag("target.url", "targetUrl").StringP("t").Bind(cmd, "", "target: The base url of the monitored service")
	NewFlag("target.token", "targetToken").String().Bind(cmd, "", "target: Bearer token sent to authenticated endpoints")
	NewFlag("target.datastores", "targetDatastores").StringToString().Bind(cmd, nil,
		"target: Health endpoints of the datastores, e.g. vector=http://qdrant:6333/healthz")

	NewFlag("schedule.cadence", "cadence").Duration().Bind(cmd, 60*time.Second, "schedule: The base interval between two cycles")
	NewFlag("schedule.maxJitterPct", "maxJitterPct").Float64().Bind(cmd, 10, "schedule: The maximum jitter added to the cadence in percent")
	NewFlag("schedule.perCheckTimeout", "perCheckTimeout").Duration().Bind(cmd, 10*time.Second,
		"schedule: The timeout of a check that declares none itself")
	NewFlag("schedule.cycleBudget", "cycleBudget").Duration().Bind(cmd, 120*time.Second, "schedule: The maximum duration of one cycle")
	NewFlag("schedule.maxParallelChecks", "maxParallelChecks").Int().Bind(cmd, 4, "schedule: The maximum number of checks running at once")

	NewFlag("checks.source", "checksSource").StringP("c").Bind(cmd, "",
		"checks: File path or http(s) url of the check battery. The default battery is used if empty")
	NewFlag("checks.token", "checksToken").String().Bind(cmd, "", "checks: Bearer token to fetch a remote check battery")
	NewFlag("checks.retry.count", "checksRetryCount").Int().Bind(cmd, 3, "checks: Amount of retries trying to fetch a remote battery")
	NewFlag("checks.retry.delay", "checksRetryDelay").Duration().Bind(cmd, time.Second, "checks: The initial delay between retries")

	NewFlag("store.path", "storePath").String().Bind(cmd, "sentinel.db", `store: Path of the sqlite database, "memory" keeps reports in memory`)
	NewFlag("store.historySize", "storeHistorySize").Int().Bind(cmd, 500, "store: The number of reports retained")

	NewFlag("alert.webhook", "alertWebhook").String().Bind(cmd, "", "alert: Url of the chat webhook")
	NewFlag("alert.issueRepo", "alertIssueRepo").String().Bind(cmd, "", "alert: Repository (owner/repo) to open issues in")
	NewFlag("alert.issueToken", "alertIssueToken").String().Bind(cmd, "", "alert: Token used to open issues")
	NewFlag("alert.issueAPI", "alertIssueApi").String().Bind(cmd, "", "alert: Base url of the issue tracker api")
	NewFlag("alert.kafkaBrokers", "alertKafkaBrokers").StringSlice().Bind(cmd, nil, "alert: Kafka brokers to publish alerts to")
	NewFlag("alert.kafkaTopic", "alertKafkaTopic").String().Bind(cmd, "", "alert: Kafka topic to publish alerts to")
	NewFlag("alert.retry.count", "alertRetryCount").Int().Bind(cmd, 2, "alert: Amount of retries per notifier")
	NewFlag("alert.retry.delay", "alertRetryDelay").Duration().Bind(cmd, time.Second, "alert: The initial delay between retries")
	NewFlag("alert.notifyRecovery", "alertNotifyRecovery").Bool().Bind(cmd, false, "alert: Send a notice when failing checks recover")

	return cmd
}

// run is the entry point to start the sentinel
func run() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.NewLogger()
		ctx, cancel := signal.NotifyContext(logger.IntoContext(cmd.Context(), log), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			log.Error("Failed to parse config", "error", err)
			return err
		}
		if err := cfg.Validate(ctx); err != nil {
			log.Error("Error while validating the config", "error", err)
			return err
		}

		s, err := build(ctx, cfg)
		if err != nil {
			return err
		}

		log.Info("Running sentinel", "target", cfg.Target.Url, "cadence", cfg.Schedule.Cadence)
		return s.Run(ctx)
	}
}

// loadConfig decodes flags, env and config file into the configuration.
// Env values are plain strings, so maps and slices are decoded from
// their comma separated form.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg, viper.DecodeHook(helper.DecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// build wires the check battery, the report store and the notifiers into a sentinel
func build(ctx context.Context, cfg *config.Config) (*sentinel.Sentinel, error) {
	log := logger.FromContext(ctx)

	battery := factory.DefaultBattery(cfg.Target)
	if cfg.Checks.Source != "" {
		var err error
		battery, err = config.NewLoader(cfg).Load(ctx)
		if err != nil {
			log.Error("Failed to load the check battery", "source", cfg.Checks.Source, "error", err)
			return nil, fmt.Errorf("failed to load check battery: %w", err)
		}
	}
	cks, err := factory.NewChecksFromBattery(battery)
	if err != nil {
		log.Error("Invalid check battery", "error", err)
		return nil, err
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		log.Error("Failed to open the report store", "path", cfg.Store.Path, "error", err)
		return nil, err
	}

	return sentinel.New(cfg, cks, store.NewHistory(st), alert.FromConfig(cfg.Alert)), nil
}
