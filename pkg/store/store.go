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

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caas-team/sentinel/pkg/config"
	"github.com/caas-team/sentinel/pkg/cycle"
)

const (
	// DefaultRecent is the number of reports returned when none is requested
	DefaultRecent = 10
	// MaxRecent is the upper bound of reports returned by one query
	MaxRecent = 100
)

// ErrStoreClosed is returned when a store is used after Close
var ErrStoreClosed = errors.New("report store is closed")

// Store is an append-only history of cycle reports
type Store interface {
	// Append persists the report. Reports must be appended in cycle order.
	Append(ctx context.Context, report *cycle.Report) error
	// Recent returns up to n reports, most recent first
	Recent(ctx context.Context, n int) ([]*cycle.Report, error)
	// LastSeq returns the sequence number of the most recent report or 0
	LastSeq(ctx context.Context) (uint64, error)
	// Close releases the resources of the store
	Close() error
}

// New creates the store selected by the configuration
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	if cfg.IsMemory() {
		return NewInMemory(cfg.HistorySize), nil
	}
	s, err := NewSQLite(ctx, cfg.Path, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store %q: %w", cfg.Path, err)
	}
	return s, nil
}

// ClampRecent bounds the requested number of reports to [1, MaxRecent].
// Values below 1 select DefaultRecent.
func ClampRecent(n int) int {
	switch {
	case n < 1:
		return DefaultRecent
	case n > MaxRecent:
		return MaxRecent
	default:
		return n
	}
}
