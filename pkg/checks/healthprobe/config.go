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

package healthprobe

import (
	"fmt"
	"net/http"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/pkg/checks"
)

// Config is the configuration of the health probe
type Config struct {
	// Paths are probed relative to the target url; absolute urls are probed as they are
	Paths []string `json:"paths" yaml:"paths" mapstructure:"paths"`
	// ExpectStatus is the http status a healthy endpoint answers with
	ExpectStatus int                `json:"expectStatus" yaml:"expectStatus" mapstructure:"expectStatus"`
	Retry        helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

func defaultConfig() Config {
	return Config{
		Paths:        []string{"/health"},
		ExpectStatus: http.StatusOK,
		Retry:        checks.DefaultRetry,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate(id string) error {
	if len(c.Paths) == 0 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "paths", Reason: "at least one path is required"}
	}
	for _, p := range c.Paths {
		if p == "" {
			return checks.ErrInvalidConfig{CheckID: id, Field: "paths", Reason: "paths must not be empty"}
		}
	}
	if c.ExpectStatus < 100 || c.ExpectStatus > 599 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "expectStatus", Reason: fmt.Sprintf("%d is not an http status", c.ExpectStatus)}
	}
	if c.Retry.Count < 0 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "retry.count", Reason: "must not be negative"}
	}
	return nil
}
