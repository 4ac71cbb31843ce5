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

import "errors"

var (
	// ErrInvalidTargetURL is returned when the target url is not an http(s) url
	ErrInvalidTargetURL = errors.New("invalid target url")
	// ErrInvalidDatastoreURL is returned when a datastore endpoint is not an http(s) url
	ErrInvalidDatastoreURL = errors.New("invalid datastore url")
	// ErrInvalidCadence is returned when the schedule cadence is not positive
	ErrInvalidCadence = errors.New("invalid schedule cadence")
	// ErrInvalidJitter is returned when the jitter percentage is outside [0, 100]
	ErrInvalidJitter = errors.New("invalid max jitter percentage")
	// ErrInvalidCheckTimeout is returned when the per check timeout is not positive
	ErrInvalidCheckTimeout = errors.New("invalid per check timeout")
	// ErrInvalidCycleBudget is returned when the cycle budget is not positive
	ErrInvalidCycleBudget = errors.New("invalid cycle budget")
	// ErrInvalidParallelism is returned when less than one check may run at a time
	ErrInvalidParallelism = errors.New("invalid max parallel checks")
	// ErrInvalidHistorySize is returned when the in-memory history cannot hold a report
	ErrInvalidHistorySize = errors.New("invalid history size")
	// ErrInvalidWebhookURL is returned when the alert webhook is not an http(s) url
	ErrInvalidWebhookURL = errors.New("invalid alert webhook url")
	// ErrInvalidIssueRepo is returned when the issue tracker repo is not of the form owner/repo
	ErrInvalidIssueRepo = errors.New("invalid issue tracker repository")
	// ErrMissingKafkaTopic is returned when kafka brokers are configured without a topic
	ErrMissingKafkaTopic = errors.New("missing kafka topic")
	// ErrInvalidAlertRetry is returned when the alert retry count is negative
	ErrInvalidAlertRetry = errors.New("invalid alert retry count")
	// ErrInvalidChecksSource is returned when the check battery cannot be loaded
	ErrInvalidChecksSource = errors.New("invalid checks source")
)
