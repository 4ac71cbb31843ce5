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

package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caas-team/sentinel/pkg/healthz"
)

// ErrUnhealthy is returned by the healthcheck command if the probed sentinel is not healthy
var ErrUnhealthy = errors.New("sentinel is unhealthy")

const healthcheckTimeout = 5 * time.Second

// NewCmdHealthcheck creates a new healthcheck command probing a running sentinel
func NewCmdHealthcheck() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the health of a running sentinel",
		Long:  `Probes the metrics and status endpoints of a running sentinel. Exits non-zero if it is unhealthy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
			defer cancel()

			if !healthz.New(viper.GetString("api.address")).CheckOverallHealth(ctx) {
				return ErrUnhealthy
			}
			return nil
		},
	}

	return cmd
}
