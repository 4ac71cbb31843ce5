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
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/cycle"
)

func testAlert() Alert {
	report := &cycle.Report{
		ID:           "3f1c",
		Seq:          12,
		StartedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		TotalChecks:  2,
		PassedChecks: 1,
		FailedChecks: 1,
	}
	return newAlert(KindRegression, report, []checks.Result{
		{CheckID: "golden-recall", Status: checks.StatusFail, LatencyMs: 120, Error: "precision 0.50 below 0.70"},
	})
}

func TestAlert_Render(t *testing.T) {
	a := testAlert()
	assert.Equal(t, "[sentinel] failing: golden-recall", a.Title())
	assert.Contains(t, a.Markdown(), "| golden-recall | fail | 120ms | precision 0.50 below 0.70 |  |")
	assert.Contains(t, a.Markdown(), "1 of 2 checks passed, 1 failed")

	a.Kind = KindRecovery
	assert.Equal(t, "[sentinel] recovered: golden-recall", a.Title())
}

func TestWebhook_Notify(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	const url = "https://hooks.example.com/sentinel"
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "accepted", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "rejected", status: http.StatusBadGateway, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			httpmock.RegisterResponder(http.MethodPost, url, func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
				return httpmock.NewStringResponse(tt.status, ""), nil
			})

			err := NewWebhook(url).Notify(context.Background(), testAlert())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "regression", got["kind"])
			assert.Equal(t, "3f1c", got["cycle_id"])
			assert.Equal(t, "[sentinel] failing: golden-recall", got["text"])
		})
	}
}

func TestGitHub_Notify(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name    string
		api     string
		wantURL string
		status  int
		wantErr bool
	}{
		{name: "default api", api: "", wantURL: "https://api.github.com/repos/caas-team/memory/issues", status: http.StatusCreated},
		{name: "enterprise api", api: "https://git.example.com/api/v3/", wantURL: "https://git.example.com/api/v3/repos/caas-team/memory/issues", status: http.StatusCreated},
		{name: "forbidden", api: "", wantURL: "https://api.github.com/repos/caas-team/memory/issues", status: http.StatusForbidden, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			var got issue
			httpmock.RegisterResponder(http.MethodPost, tt.wantURL, func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "Bearer gh-token", req.Header.Get("Authorization"))
				require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
				return httpmock.NewStringResponse(tt.status, `{}`), nil
			})

			err := NewGitHub(tt.api, "caas-team/memory", "gh-token").Notify(context.Background(), testAlert())
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "[sentinel] failing: golden-recall", got.Title)
			assert.Equal(t, []string{"sentinel", "regression"}, got.Labels)
			assert.Contains(t, got.Body, "golden-recall")
		})
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_Notify(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w}

	require.NoError(t, k.Notify(context.Background(), testAlert()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "3f1c", string(w.msgs[0].Key))
	assert.Equal(t, []kafka.Header{{Key: "kind", Value: []byte("regression")}}, w.msgs[0].Headers)

	var got Alert
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, uint64(12), got.Seq)
	assert.Equal(t, "golden-recall", got.Checks[0].CheckID)

	w.err = kafka.LeaderNotAvailable
	assert.ErrorIs(t, k.Notify(context.Background(), testAlert()), kafka.LeaderNotAvailable)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
	assert.Equal(t, "kafka", k.Name())
}

func TestErrNotifier(t *testing.T) {
	err := ErrNotifier{Notifier: "webhook", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "notifier webhook failed: context deadline exceeded", err.Error())
}
