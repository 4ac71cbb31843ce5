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

package checks

import (
	"context"
	"time"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/pkg/config"
)

// DefaultRetry provides a default configuration for the retry mechanism
var DefaultRetry = helper.RetryConfig{
	Count: 1,
	Delay: 500 * time.Millisecond,
}

// Check is a single unit of verification work run against the monitored service.
//
// Run is invoked once per cycle with the shared, read-only configuration.
// The context carries the per check timeout and the cycle budget; implementations
// must observe ctx.Done() at every I/O boundary and return promptly once it is closed.
// Run must always return a Result. It must never report StatusTimeout itself;
// timeouts are decided by the executor only.
//
//go:generate moq -out check_moq.go . Check
type Check interface {
	// Metadata returns the static metadata of the check.
	Metadata() Metadata
	// Run performs the check and returns its result.
	Run(ctx context.Context, cfg *config.Config) Result
}

// Category groups checks by what they verify
type Category string

const (
	CategoryHealth        Category = "health"
	CategoryFunctional    Category = "functional"
	CategoryObservability Category = "observability"
	CategorySecurity      Category = "security"
	CategoryConfig        Category = "config"
	CategoryCapacity      Category = "capacity"
)

// Metadata is the static identity of a check
type Metadata struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Type     string        `json:"type" yaml:"type"`
	Category Category      `json:"category" yaml:"category"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// Base is a struct providing the metadata of a check.
// It should be embedded in specific check implementations.
type Base struct {
	meta Metadata
}

// NewBase creates the base of a check from its definition.
// The name defaults to the id of the check.
func NewBase(def config.CheckDefinition, category Category) Base {
	name := def.Name
	if name == "" {
		name = def.ID
	}
	return Base{
		meta: Metadata{
			ID:       def.ID,
			Name:     name,
			Type:     def.Type,
			Category: category,
			Timeout:  def.Timeout,
		},
	}
}

// Metadata returns the static metadata of the check
func (b *Base) Metadata() Metadata {
	return b.meta
}
