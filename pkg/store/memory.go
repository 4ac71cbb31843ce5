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
	"sync"

	"github.com/caas-team/sentinel/pkg/cycle"
)

var _ Store = (*InMemory)(nil)

// InMemory keeps the last reports in a ring buffer
type InMemory struct {
	mu     sync.RWMutex
	buf    []*cycle.Report
	next   int
	count  int
	closed bool
}

// NewInMemory creates a new in-memory store holding at most size reports
func NewInMemory(size int) *InMemory {
	if size < 1 {
		size = MaxRecent
	}
	return &InMemory{
		buf: make([]*cycle.Report, size),
	}
}

func (i *InMemory) Append(_ context.Context, report *cycle.Report) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrStoreClosed
	}

	i.buf[i.next] = report
	i.next = (i.next + 1) % len(i.buf)
	if i.count < len(i.buf) {
		i.count++
	}
	return nil
}

func (i *InMemory) Recent(_ context.Context, n int) ([]*cycle.Report, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, ErrStoreClosed
	}

	n = min(ClampRecent(n), i.count)
	reports := make([]*cycle.Report, 0, n)
	for k := 1; k <= n; k++ {
		idx := (i.next - k + len(i.buf)) % len(i.buf)
		reports = append(reports, i.buf[idx])
	}
	return reports, nil
}

func (i *InMemory) LastSeq(_ context.Context) (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.count == 0 {
		return 0, nil
	}
	return i.buf[(i.next-1+len(i.buf))%len(i.buf)].Seq, nil
}

func (i *InMemory) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}
