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
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCmd(t *testing.T) {
	root := BuildCmd("v0.0.1")
	assert.Equal(t, "v0.0.1", root.Version)
	assert.NotNil(t, root.PersistentFlags().Lookup("apiAddress"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	tests := []struct {
		command string
		flags   []string
	}{
		{
			command: "run",
			flags: []string{
				"targetUrl", "targetToken", "targetDatastores",
				"cadence", "maxJitterPct", "perCheckTimeout", "cycleBudget", "maxParallelChecks",
				"checksSource", "checksToken", "checksRetryCount", "checksRetryDelay",
				"storePath", "storeHistorySize",
				"alertWebhook", "alertIssueRepo", "alertIssueToken", "alertIssueApi",
				"alertKafkaBrokers", "alertKafkaTopic", "alertRetryCount", "alertRetryDelay", "alertNotifyRecovery",
			},
		},
		{command: "healthcheck"},
		{command: "gen-docs", flags: []string{"path"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cmd, _, err := root.Find([]string{tt.command})
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tt.command, cmd.Name())
			for _, name := range tt.flags {
				assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s not registered", name)
			}
		})
	}
}

func TestInitConfig_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	err := initConfig(t.TempDir() + "/missing.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SENTINEL_TARGET_URL", "http://memory:8000")
	t.Setenv("SENTINEL_TARGET_DATASTORES", "vector=http://qdrant:6333/healthz,graph=http://neo4j:7474")
	t.Setenv("SENTINEL_SCHEDULE_CADENCE", "30s")
	t.Setenv("SENTINEL_ALERT_KAFKABROKERS", "kafka-0:9092,kafka-1:9092")
	t.Setenv("SENTINEL_ALERT_KAFKATOPIC", "sentinel-alerts")

	BuildCmd("test")
	require.NoError(t, initConfig(""))

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://memory:8000", cfg.Target.Url)
	assert.Equal(t, map[string]string{
		"vector": "http://qdrant:6333/healthz",
		"graph":  "http://neo4j:7474",
	}, cfg.Target.Datastores)
	assert.Equal(t, 30*time.Second, cfg.Schedule.Cadence)
	assert.Equal(t, 120*time.Second, cfg.Schedule.CycleBudget)
	assert.Equal(t, 4, cfg.Schedule.MaxParallelChecks)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Alert.KafkaBrokers)
	assert.Equal(t, "sentinel.db", cfg.Store.Path)
	assert.NoError(t, cfg.Validate(context.Background()))
}

func TestLoadConfig_InvalidDatastores(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SENTINEL_TARGET_DATASTORES", "qdrant")

	BuildCmd("test")
	require.NoError(t, initConfig(""))

	_, err := loadConfig()
	assert.Error(t, err)
}
