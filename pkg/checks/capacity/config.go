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

package capacity

import (
	"time"

	"github.com/caas-team/sentinel/pkg/checks"
)

// Config is the configuration of the capacity smoke check
type Config struct {
	Path        string  `json:"path" yaml:"path" mapstructure:"path"`
	Requests    int     `json:"requests" yaml:"requests" mapstructure:"requests"`
	Concurrency int     `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	RPS         float64 `json:"rps" yaml:"rps" mapstructure:"rps"`
	// MaxP95 is the latency budget; a slower service is reported as warning
	MaxP95 time.Duration `json:"maxP95" yaml:"maxP95" mapstructure:"maxP95"`
	// MaxErrorRate is the tolerated share of failed requests
	MaxErrorRate float64 `json:"maxErrorRate" yaml:"maxErrorRate" mapstructure:"maxErrorRate"`
}

func defaultConfig() Config {
	return Config{
		Path:         "/health",
		Requests:     50,
		Concurrency:  5,
		RPS:          25,
		MaxP95:       500 * time.Millisecond,
		MaxErrorRate: 0.02,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate(id string) error {
	if c.Requests < 1 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "requests", Reason: "must be at least 1"}
	}
	if c.Concurrency < 1 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "concurrency", Reason: "must be at least 1"}
	}
	if c.RPS <= 0 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "rps", Reason: "must be positive"}
	}
	if c.MaxP95 <= 0 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "maxP95", Reason: "must be positive"}
	}
	if c.MaxErrorRate < 0 || c.MaxErrorRate > 1 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "maxErrorRate", Reason: "must be within [0, 1]"}
	}
	return nil
}
