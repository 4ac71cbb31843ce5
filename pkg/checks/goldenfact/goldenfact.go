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

package goldenfact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/httpclient"
	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/checks"
	"github.com/caas-team/sentinel/pkg/config"
)

var _ checks.Check = (*check)(nil)

// CheckType is the registered type of the golden fact recall check
const CheckType = "golden-fact-recall"

type check struct {
	checks.Base
	config Config
}

type searchRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	RequestID string `json:"request_id"`
}

type searchResponse struct {
	Results []struct {
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewCheck creates a golden fact recall check from its definition
func NewCheck(def config.CheckDefinition) (checks.Check, error) {
	cfg := defaultConfig()
	decoded, err := helper.Decode[Config](def.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config of check %s: %w", def.ID, err)
	}
	cfg.Facts = decoded.Facts
	if decoded.SearchPath != "" {
		cfg.SearchPath = decoded.SearchPath
	}
	if decoded.TopK != 0 {
		cfg.TopK = decoded.TopK
	}
	if decoded.PassPrecision != 0 {
		cfg.PassPrecision = decoded.PassPrecision
	}
	if decoded.WarnPrecision != 0 {
		cfg.WarnPrecision = decoded.WarnPrecision
	}
	if err := cfg.Validate(def.ID); err != nil {
		return nil, err
	}

	return &check{
		Base:   checks.NewBase(def, checks.CategoryFunctional),
		config: cfg,
	}, nil
}

// Run queries every golden fact and scores the recall precision.
// Facts are queried one after another to keep the load on the service flat.
func (ch *check) Run(ctx context.Context, cfg *config.Config) checks.Result {
	log := logger.FromContext(ctx).With("check", ch.Metadata().ID)
	client := httpclient.FromContext(ctx)
	url := cfg.Target.Endpoint(ch.config.SearchPath)

	var (
		recalled int
		missed   []string
		errs     []error
		elapsed  time.Duration
	)
	for _, fact := range ch.config.Facts {
		if ctx.Err() != nil {
			return checks.Fail(nil, ctx.Err())
		}

		start := time.Now()
		items, err := search(ctx, client, url, cfg.Target.Token, fact.Query, ch.config.TopK)
		elapsed += time.Since(start)
		if err != nil {
			log.WarnContext(ctx, "Search for golden fact failed", "query", fact.Query, "error", err)
			errs = append(errs, err)
			missed = append(missed, fact.Query)
			continue
		}
		if recalls(items, fact.Expect) {
			recalled++
			continue
		}
		missed = append(missed, fact.Query)
	}

	total := len(ch.config.Facts)
	precision := float64(recalled) / float64(total)
	metrics := map[string]float64{
		"precision":      precision,
		"facts_total":    float64(total),
		"facts_recalled": float64(recalled),
		"latency_ms_avg": float64(elapsed.Milliseconds()) / float64(total),
	}

	switch {
	case len(errs) == total:
		return checks.Fail(metrics, errors.Join(errs...))
	case precision >= ch.config.PassPrecision:
		return checks.Pass(metrics)
	case precision >= ch.config.WarnPrecision:
		return checks.Warn(metrics, "precision %.2f below %.2f, missed: %s", precision, ch.config.PassPrecision, strings.Join(missed, ", "))
	default:
		res := checks.Fail(metrics, fmt.Errorf("precision %.2f below %.2f", precision, ch.config.WarnPrecision))
		return res.WithNotes("missed: " + strings.Join(missed, ", "))
	}
}

// recalls returns true if one item contains every expected fragment, ignoring case
func recalls(items []string, expect []string) bool {
	for _, item := range items {
		content := strings.ToLower(item)
		found := true
		for _, e := range expect {
			if !strings.Contains(content, strings.ToLower(e)) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func search(ctx context.Context, client *http.Client, url, token, query string, topK int) ([]string, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: topK, RequestID: uuid.NewString()})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
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

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	items := make([]string, 0, len(sr.Results))
	for _, r := range sr.Results {
		items = append(items, r.Content)
	}
	return items, nil
}
