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

package alert

import (
	"sort"
	"sync"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/cycle"
)

// tracker remembers which checks are failing to alert on state changes only
type tracker struct {
	mu      sync.Mutex
	failing map[string]checks.Status
}

func newTracker() *tracker {
	return &tracker{failing: map[string]checks.Status{}}
}

// observe folds the report into the tracked state.
// It returns the results of checks that started failing and of those that recovered.
// Checks missing from the report are forgotten.
func (t *tracker) observe(report *cycle.Report) (newlyFailing, recovered []checks.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]struct{}, len(report.Results))
	for _, res := range report.Results {
		seen[res.CheckID] = struct{}{}
		_, wasFailing := t.failing[res.CheckID]
		switch {
		case res.Status.Failing() && !wasFailing:
			newlyFailing = append(newlyFailing, res)
			t.failing[res.CheckID] = res.Status
		case res.Status.Failing():
			t.failing[res.CheckID] = res.Status
		case wasFailing:
			recovered = append(recovered, res)
			delete(t.failing, res.CheckID)
		}
	}
	for id := range t.failing {
		if _, ok := seen[id]; !ok {
			delete(t.failing, id)
		}
	}
	return newlyFailing, recovered
}

// snapshot returns the ids of the failing checks in stable order
func (t *tracker) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.failing))
	for id := range t.failing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
