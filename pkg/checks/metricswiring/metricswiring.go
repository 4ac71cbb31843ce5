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

package metricswiring

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/common/expfmt"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

var _ checks.Check = (*check)(nil)

// CheckType is the registered type of the metrics wiring check
const CheckType = "metrics-wiring"

// Config is the configuration of the metrics wiring check
type Config struct {
	// MetricsPath is the scrape endpoint of the monitored service
	MetricsPath string `json:"metricsPath" yaml:"metricsPath" mapstructure:"metricsPath"`
	// Required lists the metric families that must be exported
	Required []string `json:"required" yaml:"required" mapstructure:"required"`
}

type check struct {
	checks.Base
	config Config
}

// NewCheck creates a metrics wiring check from its definition
func NewCheck(def config.CheckDefinition) (checks.Check, error) {
	cfg, err := helper.Decode[Config](def.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config of check %s: %w", def.ID, err)
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if len(cfg.Required) == 0 {
		return nil, checks.ErrInvalidConfig{CheckID: def.ID, Field: "required", Reason: "at least one metric family is required"}
	}

	return &check{
		Base:   checks.NewBase(def, checks.CategoryObservability),
		config: cfg,
	}, nil
}

// Run scrapes the service and verifies that all required families are exported
func (ch *check) Run(ctx context.Context, cfg *config.Config) checks.Result {
	log := logger.FromContext(ctx).With("check", ch.Metadata().ID)
	url := cfg.Target.Endpoint(ch.config.MetricsPath)

	families, err := scrape(ctx, httpclient.FromContext(ctx), url, cfg.Target.Token)
	if err != nil {
		log.WarnContext(ctx, "Failed to scrape metrics", "url", url, "error", err)
		return checks.Fail(nil, err)
	}

	var missing []string
	for _, name := range ch.config.Required {
		if _, ok := families[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	metrics := map[string]float64{
		"families_total":   float64(len(families)),
		"families_missing": float64(len(missing)),
	}
	if len(missing) > 0 {
		return checks.Fail(metrics, fmt.Errorf("missing metric families: %s", strings.Join(missing, ", ")))
	}
	return checks.Pass(metrics)
}

// scrape returns the names of all metric families exported at url
func scrape(ctx context.Context, client *http.Client, url, token string) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", string(expfmt.FmtText))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, checks.ErrUnexpectedStatus{URL: url, Status: resp.StatusCode}
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics exposition: %w", err)
	}

	names := make(map[string]struct{}, len(mfs))
	for name := range mfs {
		names[name] = struct{}{}
	}
	return names, nil
}
