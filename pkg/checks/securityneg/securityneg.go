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

package securityneg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

var _ checks.Check = (*check)(nil)

// CheckType is the registered type of the security negatives check
const CheckType = "security-negatives"

type check struct {
	checks.Base
	config Config
}

// NewCheck creates a security negatives check from its definition
func NewCheck(def config.CheckDefinition) (checks.Check, error) {
	cfg, err := helper.Decode[Config](def.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config of check %s: %w", def.ID, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(def.ID); err != nil {
		return nil, err
	}

	return &check{
		Base:   checks.NewBase(def, checks.CategorySecurity),
		config: cfg,
	}, nil
}

// Run sends every probe and verifies that the service rejects it.
// The configured target token is never attached to a probe.
func (ch *check) Run(ctx context.Context, cfg *config.Config) checks.Result {
	log := logger.FromContext(ctx).With("check", ch.Metadata().ID)
	client := httpclient.FromContext(ctx)

	var accepted, errored []string
	rejected := 0
	for _, p := range ch.config.Probes {
		if ctx.Err() != nil {
			return checks.Fail(nil, ctx.Err())
		}

		status, err := send(ctx, client, cfg.Target.Endpoint(p.Path), p)
		switch {
		case err != nil:
			log.WarnContext(ctx, "Security probe could not be sent", "probe", p.Name, "error", err)
			errored = append(errored, p.Name)
		case slices.Contains(p.Expect, status):
			rejected++
		default:
			log.WarnContext(ctx, "Security probe was not rejected", "probe", p.Name, "status", status)
			accepted = append(accepted, fmt.Sprintf("%s (%d)", p.Name, status))
		}
	}

	metrics := map[string]float64{
		"probes_total":    float64(len(ch.config.Probes)),
		"probes_rejected": float64(rejected),
	}
	switch {
	case len(accepted) > 0:
		return checks.Fail(metrics, fmt.Errorf("probes not rejected: %s", strings.Join(accepted, ", ")))
	case len(errored) > 0:
		return checks.Fail(metrics, fmt.Errorf("probes failed to send: %s", strings.Join(errored, ", ")))
	default:
		return checks.Pass(metrics)
	}
}

func send(ctx context.Context, client *http.Client, url string, p Probe) (int, error) {
	var body io.Reader = http.NoBody
	if p.Body != "" {
		body = strings.NewReader(p.Body)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, url, body)
	if err != nil {
		return 0, err
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
