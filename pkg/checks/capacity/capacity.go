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

package capacity

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

var _ checks.Check = (*check)(nil)

// CheckType is the registered type of the capacity smoke check
const CheckType = "capacity-smoke"

type check struct {
	checks.Base
	config Config
}

// NewCheck creates a capacity smoke check from its definition
func NewCheck(def config.CheckDefinition) (checks.Check, error) {
	cfg := defaultConfig()
	decoded, err := helper.Decode[Config](def.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config of check %s: %w", def.ID, err)
	}
	if decoded.Path != "" {
		cfg.Path = decoded.Path
	}
	if decoded.Requests != 0 {
		cfg.Requests = decoded.Requests
	}
	if decoded.Concurrency != 0 {
		cfg.Concurrency = decoded.Concurrency
	}
	if decoded.RPS != 0 {
		cfg.RPS = decoded.RPS
	}
	if decoded.MaxP95 != 0 {
		cfg.MaxP95 = decoded.MaxP95
	}
	if _, ok := def.Config["maxErrorRate"]; ok {
		cfg.MaxErrorRate = decoded.MaxErrorRate
	}
	if err := cfg.Validate(def.ID); err != nil {
		return nil, err
	}

	return &check{
		Base:   checks.NewBase(def, checks.CategoryCapacity),
		config: cfg,
	}, nil
}

// Run issues a paced burst of requests and evaluates latency and error rate
func (ch *check) Run(ctx context.Context, cfg *config.Config) checks.Result {
	log := logger.FromContext(ctx).With("check", ch.Metadata().ID)
	client := httpclient.FromContext(ctx)
	url := cfg.Target.Endpoint(ch.config.Path)
	limiter := rate.NewLimiter(rate.Limit(ch.config.RPS), ch.config.Concurrency)

	var (
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, ch.config.Requests)
		failures  int
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ch.config.Concurrency)
	for i := 0; i < ch.config.Requests; i++ {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			took, err := get(gctx, client, url, cfg.Target.Token)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return nil
			}
			latencies = append(latencies, took)
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return checks.Fail(nil, ctx.Err())
	}

	sent := len(latencies) + failures
	if sent == 0 {
		return checks.Fail(nil, fmt.Errorf("no request could be sent within the check deadline"))
	}
	errorRate := float64(failures) / float64(sent)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50, p95 := percentile(latencies, 0.50), percentile(latencies, 0.95)

	metrics := map[string]float64{
		"requests_total": float64(sent),
		"error_rate":     errorRate,
		"p50_ms":         float64(p50.Milliseconds()),
		"p95_ms":         float64(p95.Milliseconds()),
		"throughput_rps": float64(sent) / elapsed.Seconds(),
	}
	log.DebugContext(ctx, "Capacity smoke finished", "sent", sent, "failures", failures, "p95", p95)

	switch {
	case errorRate > ch.config.MaxErrorRate:
		return checks.Fail(metrics, fmt.Errorf("error rate %.3f exceeds %.3f", errorRate, ch.config.MaxErrorRate))
	case p95 > ch.config.MaxP95:
		return checks.Warn(metrics, "p95 latency %s exceeds %s", p95, ch.config.MaxP95)
	default:
		return checks.Pass(metrics)
	}
}

// percentile returns the nearest rank percentile of sorted latencies
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

func get(ctx context.Context, client *http.Client, url, token string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	took := time.Since(start)

	if resp.StatusCode >= http.StatusBadRequest {
		return took, checks.ErrUnexpectedStatus{URL: url, Status: resp.StatusCode}
	}
	return took, nil
}
