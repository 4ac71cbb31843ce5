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
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/sentinel/pkg/cycle"
)

// flakyStore fails the first failures appends
type flakyStore struct {
	*InMemory
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyStore) Append(ctx context.Context, r *cycle.Report) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.InMemory.Append(ctx, r)
}

func TestHistory_Record(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantErr      bool
		wantCalls    int
		wantPersist  int
		wantFailures float64
	}{
		{name: "first write succeeds", failures: 0, wantCalls: 1, wantPersist: 1},
		{name: "retried once", failures: 1, wantCalls: 2, wantPersist: 1},
		{name: "dropped after retry", failures: 2, wantErr: true, wantCalls: 2, wantPersist: 0, wantFailures: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := &flakyStore{InMemory: NewInMemory(10), failures: tt.failures}
			h := NewHistory(s)
			report := newReport(1)

			err := h.Record(ctx, report)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Same(t, report, h.Last(), "last report is updated even if persisting fails")
			assert.Equal(t, tt.wantCalls, s.calls)
			persisted, err := h.Recent(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, persisted, tt.wantPersist)
			assert.Equal(t, tt.wantFailures, testutil.ToFloat64(h.failures))
		})
	}
}

func TestHistory_ConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewInMemory(100))

	var wg sync.WaitGroup
	for seq := uint64(1); seq <= 50; seq++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Record(ctx, newReport(seq)))
		}()
	}
	wg.Wait()

	reports, err := h.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, reports, 50)
	assert.NotNil(t, h.Last())
	assert.Len(t, h.GetMetricCollectors(), 1)
	assert.NoError(t, h.Close())
}

func TestHistory_LastEmpty(t *testing.T) {
	h := NewHistory(NewInMemory(1))
	assert.Nil(t, h.Last())

	seq, err := h.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seq)
}
