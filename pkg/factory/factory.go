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

package factory

import (
	"errors"
	"fmt"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/checks/capacity"
	"github.com/caas-team/sentinel/pkg/checks/configparity"
	"github.com/caas-team/sentinel/pkg/checks/goldenfact"
	"github.com/caas-team/sentinel/pkg/checks/healthprobe"
	"github.com/caas-team/sentinel/pkg/checks/metricswiring"
	"github.com/caas-team/sentinel/pkg/checks/securityneg"
	"github.com/caas-team/sentinel/pkg/config"
)

var (
	// ErrUnknownCheckType is returned when a definition references an unregistered check type
	ErrUnknownCheckType = errors.New("unknown check type")
	// ErrDuplicateCheckID is returned when two definitions share an id
	ErrDuplicateCheckID = errors.New("duplicate check id")
	// ErrMissingCheckID is returned when a definition has no id
	ErrMissingCheckID = errors.New("missing check id")
	// ErrEmptyBattery is returned when no check is defined
	ErrEmptyBattery = errors.New("no checks defined")
)

// Constructor creates a check from its definition
type Constructor func(def config.CheckDefinition) (checks.Check, error)

// registry holds all check variants. Variants are registered explicitly;
// the key is the type used in the battery definition.
var registry = map[string]Constructor{
	healthprobe.CheckType:   healthprobe.NewCheck,
	goldenfact.CheckType:    goldenfact.NewCheck,
	metricswiring.CheckType: metricswiring.NewCheck,
	securityneg.CheckType:   securityneg.NewCheck,
	configparity.CheckType:  configparity.NewCheck,
	capacity.CheckType:      capacity.NewCheck,
}

// Types returns the registered check types
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

func newCheck(def config.CheckDefinition) (checks.Check, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w for check of type %q", ErrMissingCheckID, def.Type)
	}
	f, ok := registry[def.Type]
	if !ok {
		return nil, fmt.Errorf("%w %q of check %s", ErrUnknownCheckType, def.Type, def.ID)
	}
	return f(def)
}

// NewChecksFromBattery creates all checks of the battery.
// The returned checks keep the order of the battery definition.
func NewChecksFromBattery(battery *config.Battery) ([]checks.Check, error) {
	if battery == nil || len(battery.Checks) == 0 {
		return nil, ErrEmptyBattery
	}

	seen := make(map[string]struct{}, len(battery.Checks))
	result := make([]checks.Check, 0, len(battery.Checks))
	var errs []error
	for _, def := range battery.Checks {
		if _, dup := seen[def.ID]; dup && def.ID != "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateCheckID, def.ID))
			continue
		}
		seen[def.ID] = struct{}{}

		check, err := newCheck(def)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = append(result, check)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return result, nil
}

// DefaultBattery returns one health probe for the service and one per datastore
func DefaultBattery(target config.TargetConfig) *config.Battery {
	battery := &config.Battery{
		Checks: []config.CheckDefinition{
			{Type: healthprobe.CheckType, ID: "service-health", Name: "Service health"},
		},
	}
	for _, name := range target.DatastoreNames() {
		battery.Checks = append(battery.Checks, config.CheckDefinition{
			Type: healthprobe.CheckType,
			ID:   name + "-health",
			Name: fmt.Sprintf("Datastore %s health", name),
			Config: map[string]any{
				"paths": []string{target.Datastores[name]},
			},
		})
	}
	return battery
}
