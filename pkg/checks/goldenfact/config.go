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

package goldenfact

import (
	"github.com/caas-team/sentinel/pkg/checks"
)

// Fact is a previously stored fact that must stay retrievable
type Fact struct {
	Query string `json:"query" yaml:"query" mapstructure:"query"`
	// Expect lists fragments that must all appear in one retrieved item
	Expect []string `json:"expect" yaml:"expect" mapstructure:"expect"`
}

// Config is the configuration of the golden fact recall check
type Config struct {
	SearchPath    string  `json:"searchPath" yaml:"searchPath" mapstructure:"searchPath"`
	TopK          int     `json:"topK" yaml:"topK" mapstructure:"topK"`
	Facts         []Fact  `json:"facts" yaml:"facts" mapstructure:"facts"`
	PassPrecision float64 `json:"passPrecision" yaml:"passPrecision" mapstructure:"passPrecision"`
	WarnPrecision float64 `json:"warnPrecision" yaml:"warnPrecision" mapstructure:"warnPrecision"`
}

func defaultConfig() Config {
	return Config{
		SearchPath:    "/v1/memories/search",
		TopK:          5,
		PassPrecision: 0.9,
		WarnPrecision: 0.7,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate(id string) error {
	if c.SearchPath == "" {
		return checks.ErrInvalidConfig{CheckID: id, Field: "searchPath", Reason: "must not be empty"}
	}
	if c.TopK < 1 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "topK", Reason: "must be at least 1"}
	}
	if len(c.Facts) == 0 {
		return checks.ErrInvalidConfig{CheckID: id, Field: "facts", Reason: "at least one fact is required"}
	}
	for _, f := range c.Facts {
		if f.Query == "" || len(f.Expect) == 0 {
			return checks.ErrInvalidConfig{CheckID: id, Field: "facts", Reason: "every fact needs a query and expected fragments"}
		}
	}
	if c.WarnPrecision < 0 || c.PassPrecision > 1 || c.WarnPrecision > c.PassPrecision {
		return checks.ErrInvalidConfig{CheckID: id, Field: "passPrecision", Reason: "thresholds must satisfy 0 <= warnPrecision <= passPrecision <= 1"}
	}
	return nil
}
