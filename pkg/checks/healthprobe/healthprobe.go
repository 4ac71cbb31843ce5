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

package healthprobe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

var _ checks.Check = (*check)(nil)

// CheckType is the registered type of the health probe
const CheckType = "health-probe"

type check struct {
	checks.Base
	config Config
}

// NewCheck creates a health probe from its definition
func NewCheck(def config.CheckDefinition) (checks.Check, error) {
	cfg := defaultConfig()
	if def.Config != nil {
		decoded, err := helper.Decode[Config](def.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config of check %s: %w", def.ID, err)
		}
		if decoded.Paths != nil {
			cfg.Paths = decoded.Paths
		}
		if decoded.ExpectStatus != 0 {
			cfg.ExpectStatus = decoded.ExpectStatus
		}
		if _, ok := def.Config["retry"]; ok {
			cfg.Retry = decoded.Retry
		}
	}
	if err := cfg.Validate(def.ID); err != nil {
		return nil, err
	}

	return &check{
		Base:   checks.NewBase(def, checks.CategoryHealth),
		config: cfg,
	}, nil
}

// Run probes all configured endpoints concurrently
func (ch *check) Run(ctx context.Context, cfg *config.Config) checks.Result {
	log := logger.FromContext(ctx).With("check", ch.Metadata().ID)
	client := httpclient.FromContext(ctx)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		healthy    int
		maxLatency time.Duration
		errs       []error
	)
	for _, p := range ch.config.Paths {
		url := cfg.Target.Endpoint(p)
		token := ""
		if url != p {
			token = cfg.Target.Token
		}

		getHealthRetry := helper.Retry(func(ctx context.Context) error {
			return getHealth(ctx, client, url, token, ch.config.ExpectStatus)
		}, ch.config.Retry)

		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := getHealthRetry(ctx)
			took := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if took > maxLatency {
				maxLatency = took
			}
			if err != nil {
				log.WarnContext(ctx, "Health probe failed", "url", url, "error", err)
				errs = append(errs, err)
				return
			}
			healthy++
		}()
	}
	wg.Wait()

	metrics := map[string]float64{
		"targets_total":   float64(len(ch.config.Paths)),
		"targets_healthy": float64(healthy),
		"latency_ms_max":  float64(maxLatency.Milliseconds()),
	}
	if len(errs) > 0 {
		return checks.Fail(metrics, errors.Join(errs...))
	}
	return checks.Pass(metrics)
}

func getHealth(ctx context.Context, client *http.Client, url, token string, expect int) error {
	log := logger.FromContext(ctx).With("url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		log.Error("Error while creating request", "error", err)
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		log.Debug("Error while requesting health", "error", err)
		return err
	}
	defer func() {
		if cErr := resp.Body.Close(); cErr != nil {
			log.Error("Failed to close response body", "error", cErr)
		}
	}()

	if resp.StatusCode != expect {
		return checks.ErrUnexpectedStatus{URL: url, Status: resp.StatusCode}
	}
	return nil
}
