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

package sentinel

import (
	"fmt"

	"github.com/caas-team/sentinel/pkg/cycle"
)

// ErrGateFailed is returned by Run if no check passed in the gate cycle
type ErrGateFailed struct {
	Report *cycle.Report
}

func (e *ErrGateFailed) Error() string {
	return fmt.Sprintf("startup gate failed: %d of %d checks passed in cycle %s",
		e.Report.PassedChecks, e.Report.TotalChecks, e.Report.ID)
}
