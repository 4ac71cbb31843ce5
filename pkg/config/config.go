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
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/caas-team/sentinel/internal/helper"
)

// Config is the Sentinel configuration. It is loaded once at startup
// and must not be mutated afterwards; checks and the executor share it read-only.
type Config struct {
	Api      ApiConfig      `yaml:"api" mapstructure:"api"`
	Target   TargetConfig   `yaml:"target" mapstructure:"target"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Checks   ChecksConfig   `yaml:"checks" mapstructure:"checks"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Alert    AlertConfig    `yaml:"alert" mapstructure:"alert"`
}

// ApiConfig is the configuration of the control api
type ApiConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
}

// TargetConfig describes the monitored service and its datastores
type TargetConfig struct {
	// Url is the base url of the monitored service
	Url string `yaml:"url" mapstructure:"url"`
	// Token is sent as bearer token by checks that talk to authenticated endpoints
	Token string `yaml:"token" mapstructure:"token"`
	// Datastores maps a datastore name to its health endpoint
	Datastores map[string]string `yaml:"datastores" mapstructure:"datastores"`
}

// ScheduleConfig bounds the cadence and resource usage of the cycles
type ScheduleConfig struct {
	Cadence           time.Duration `yaml:"cadence" mapstructure:"cadence"`
	MaxJitterPct      float64       `yaml:"maxJitterPct" mapstructure:"maxJitterPct"`
	PerCheckTimeout   time.Duration `yaml:"perCheckTimeout" mapstructure:"perCheckTimeout"`
	CycleBudget       time.Duration `yaml:"cycleBudget" mapstructure:"cycleBudget"`
	MaxParallelChecks int           `yaml:"maxParallelChecks" mapstructure:"maxParallelChecks"`
}

// ChecksConfig points to the check battery definition
type ChecksConfig struct {
	// Source is a file path or an http(s) url of the battery definition.
	// If empty, the default battery is used.
	Source string             `yaml:"source" mapstructure:"source"`
	Token  string             `yaml:"token" mapstructure:"token"`
	Retry  helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig is the configuration of the report store
type StoreConfig struct {
	// Path is either "memory" or the path of the sqlite database
	Path        string `yaml:"path" mapstructure:"path"`
	HistorySize int    `yaml:"historySize" mapstructure:"historySize"`
}

// AlertConfig is the configuration of the alert dispatcher and its notifiers
type AlertConfig struct {
	Webhook        string             `yaml:"webhook" mapstructure:"webhook"`
	IssueRepo      string             `yaml:"issueRepo" mapstructure:"issueRepo"`
	IssueToken     string             `yaml:"issueToken" mapstructure:"issueToken"`
	IssueAPI       string             `yaml:"issueAPI" mapstructure:"issueAPI"`
	KafkaBrokers   []string           `yaml:"kafkaBrokers" mapstructure:"kafkaBrokers"`
	KafkaTopic     string             `yaml:"kafkaTopic" mapstructure:"kafkaTopic"`
	Retry          helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
	NotifyRecovery bool               `yaml:"notifyRecovery" mapstructure:"notifyRecovery"`
}

// MemoryStore is the store path selecting the in-memory report store
const MemoryStore = "memory"

// Endpoint resolves the given path against the target url.
// Absolute urls are returned unchanged.
func (t TargetConfig) Endpoint(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return strings.TrimSuffix(t.Url, "/") + "/" + strings.TrimPrefix(path, "/")
}

// DatastoreNames returns the configured datastore names in stable order
func (t TargetConfig) DatastoreNames() []string {
	names := make([]string, 0, len(t.Datastores))
	for name := range t.Datastores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasAlerting returns true if at least one notifier is configured
func (a AlertConfig) HasAlerting() bool {
	return a.Webhook != "" || a.IssueRepo != "" || len(a.KafkaBrokers) > 0
}

// IsMemory returns true if the in-memory report store is selected
func (s StoreConfig) IsMemory() bool {
	return s.Path == "" || strings.EqualFold(s.Path, MemoryStore)
}
