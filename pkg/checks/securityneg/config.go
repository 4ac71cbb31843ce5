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

package securityneg

import (
	"net/http"

	"github.com/caas-team/sentinel/pkg/checks"
)

// Probe is a request the monitored service must reject
type Probe struct {
	Name    string            `json:"name" yaml:"name" mapstructure:"name"`
	Method  string            `json:"method" yaml:"method" mapstructure:"method"`
	Path    string            `json:"path" yaml:"path" mapstructure:"path"`
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
	Body    string            `json:"body" yaml:"body" mapstructure:"body"`
	// Expect lists the statuses counting as rejection, defaults to 401 and 403
	Expect []int `json:"expect" yaml:"expect" mapstructure:"expect"`
}

// Config is the configuration of the security negatives check
type Config struct {
	// Path is the protected endpoint used by the default probes
	Path   string  `json:"path" yaml:"path" mapstructure:"path"`
	Probes []Probe `json:"probes" yaml:"probes" mapstructure:"probes"`
}

var defaultExpect = []int{http.StatusUnauthorized, http.StatusForbidden}

// defaultProbes returns the probes used when none are configured
func defaultProbes(path string) []Probe {
	return []Probe{
		{Name: "unauthenticated", Method: http.MethodGet, Path: path},
		{Name: "bogus-token", Method: http.MethodGet, Path: path, Headers: map[string]string{"Authorization": "Bearer invalid"}},
		{Name: "path-traversal", Method: http.MethodGet, Path: path + "/..%2f..%2fetc%2fpasswd", Expect: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
		{Name: "sql-injection", Method: http.MethodGet, Path: path + "?q=%27%20OR%201%3D1--", Expect: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden}},
	}
}

func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = "/v1/memories"
	}
	if len(c.Probes) == 0 {
		c.Probes = defaultProbes(c.Path)
	}
	for i := range c.Probes {
		if c.Probes[i].Method == "" {
			c.Probes[i].Method = http.MethodGet
		}
		if c.Probes[i].Path == "" {
			c.Probes[i].Path = c.Path
		}
		if len(c.Probes[i].Expect) == 0 {
			c.Probes[i].Expect = defaultExpect
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate(id string) error {
	seen := map[string]bool{}
	for _, p := range c.Probes {
		if p.Name == "" {
			return checks.ErrInvalidConfig{CheckID: id, Field: "probes", Reason: "every probe needs a name"}
		}
		if seen[p.Name] {
			return checks.ErrInvalidConfig{CheckID: id, Field: "probes", Reason: "duplicate probe " + p.Name}
		}
		seen[p.Name] = true
	}
	return nil
}
