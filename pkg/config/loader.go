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
	"strings"
	"time"
)

// Battery is the ordered list of checks a Sentinel runs every cycle.
// The order of the definitions is the registration and dispatch order.
type Battery struct {
	Checks []CheckDefinition `yaml:"checks" json:"checks"`
}

// CheckDefinition declares a single check of the battery
type CheckDefinition struct {
	// Type is the registered check variant, e.g. "health-probe"
	Type string `yaml:"type" json:"type"`
	// ID is the unique and stable id of the check
	ID string `yaml:"id" json:"id"`
	// Name is the human readable name, defaults to the id
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Timeout is the declared timeout, defaults to the per check timeout of the schedule
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// Config is the variant specific configuration
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// Loader loads the check battery once at startup
type Loader interface {
	Load(ctx context.Context) (*Battery, error)
}

// NewLoader returns the loader matching the configured checks source.
// Sources starting with http:// or https:// are fetched remotely, everything else is read from disk.
func NewLoader(cfg *Config) Loader {
	src := strings.ToLower(cfg.Checks.Source)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return NewHttpLoader(cfg)
	}
	return NewFileLoader(cfg)
}
