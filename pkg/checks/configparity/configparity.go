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

package configparity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

var _ checks.Check = (*check)(nil)

// CheckType is the registered type of the config parity check
const CheckType = "config-parity"

// Config is the configuration of the config parity check
type Config struct {
	// Path is the endpoint exposing the runtime configuration as a json object
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// Expected is the baseline; keys may be dotted paths into nested objects
	Expected map[string]any `json:"expected" yaml:"expected" mapstructure:"expected"`
	// WarnOnly reports drift as a warning instead of a failure
	WarnOnly bool `json:"warnOnly" yaml:"warnOnly" mapstructure:"warnOnly"`
}

type check struct {
	checks.Base
	config Config
}

// NewCheck creates a config parity check from its definition
func NewCheck(def config.CheckDefinition) (checks.Check, error) {
	cfg, err := helper.Decode[Config](def.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config of check %s: %w", def.ID, err)
	}
	if cfg.Path == "" {
		cfg.Path = "/v1/config"
	}
	if len(cfg.Expected) == 0 {
		return nil, checks.ErrInvalidConfig{CheckID: def.ID, Field: "expected", Reason: "baseline must not be empty"}
	}
	expected, err := normalize(cfg.Expected)
	if err != nil {
		return nil, checks.ErrInvalidConfig{CheckID: def.ID, Field: "expected", Reason: err.Error()}
	}
	cfg.Expected = expected.(map[string]any)

	return &check{
		Base:   checks.NewBase(def, checks.CategoryConfig),
		config: cfg,
	}, nil
}

// Run fetches the runtime configuration and compares it with the baseline
func (ch *check) Run(ctx context.Context, cfg *config.Config) checks.Result {
	log := logger.FromContext(ctx).With("check", ch.Metadata().ID)
	url := cfg.Target.Endpoint(ch.config.Path)

	actual, err := fetch(ctx, httpclient.FromContext(ctx), url, cfg.Target.Token)
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch runtime configuration", "url", url, "error", err)
		return checks.Fail(nil, err)
	}

	keys := make([]string, 0, len(ch.config.Expected))
	for k := range ch.config.Expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var drift []string
	for _, key := range keys {
		got, ok := lookup(actual, key)
		if !ok {
			drift = append(drift, fmt.Sprintf("%s: missing", key))
			continue
		}
		if diff := cmp.Diff(ch.config.Expected[key], got); diff != "" {
			drift = append(drift, fmt.Sprintf("%s: (-want +got)\n%s", key, diff))
		}
	}

	metrics := map[string]float64{
		"keys_checked":    float64(len(keys)),
		"keys_mismatched": float64(len(drift)),
	}
	if len(drift) == 0 {
		return checks.Pass(metrics)
	}

	notes := strings.Join(drift, "\n")
	if ch.config.WarnOnly {
		return checks.Warn(metrics, "%s", notes)
	}
	return checks.Fail(metrics, fmt.Errorf("%d configuration keys drifted from baseline", len(drift))).WithNotes(notes)
}

// lookup resolves a dotted key in nested objects.
// A literal key containing dots takes precedence over the nested path.
func lookup(doc map[string]any, key string) (any, bool) {
	if v, ok := doc[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	nested, ok := doc[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}

// normalize converts v into the shape encoding/json produces, so that
// numbers from yaml and json compare equal.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fetch(ctx context.Context, client *http.Client, url, token string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
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

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode runtime configuration: %w", err)
	}
	return doc, nil
}
