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

package config

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/caas-team/sentinel/internal/helper"
	"github.com/caas-team/sentinel/internal/logger"
)

var _ Loader = (*HttpLoader)(nil)

// HttpLoader fetches the check battery from a remote url
type HttpLoader struct {
	url    string
	token  string
	retry  helper.RetryConfig
	client *http.Client
}

// NewHttpLoader returns a loader fetching the configured checks source
func NewHttpLoader(cfg *Config) *HttpLoader {
	return &HttpLoader{
		url:    cfg.Checks.Source,
		token:  cfg.Checks.Token,
		retry:  cfg.Checks.Retry,
		client: &http.Client{Timeout: cfg.Schedule.PerCheckTimeout},
	}
}

// Load fetches the battery, retrying with exponential backoff
func (hl *HttpLoader) Load(ctx context.Context) (*Battery, error) {
	log := logger.FromContext(ctx).With("url", hl.url)

	var battery *Battery
	getBattery := helper.Retry(func(ctx context.Context) (err error) {
		battery, err = hl.getBattery(ctx)
		return err
	}, hl.retry)

	if err := getBattery(ctx); err != nil {
		log.ErrorContext(ctx, "Could not get remote check battery", "error", err)
		return nil, err
	}

	log.InfoContext(ctx, "Successfully got remote check battery", "checks", len(battery.Checks))
	return battery, nil
}

func (hl *HttpLoader) getBattery(ctx context.Context) (*Battery, error) {
	log := logger.FromContext(ctx).With("url", hl.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hl.url, http.NoBody)
	if err != nil {
		log.Error("Could not create http GET request", "error", err.Error())
		return nil, err
	}
	if hl.token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", hl.token))
	}

	res, err := hl.client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		log.Error("Http get request failed", "error", err.Error())
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err = Body.Close()
		if err != nil {
			log.Error("Failed to close response body", "error", err.Error())
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		log.Error("Http get request failed", "status", res.Status)
		return nil, fmt.Errorf("request failed, status is %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Error("Could not read response body", "error", err.Error())
		return nil, err
	}

	battery := &Battery{}
	if err := yaml.Unmarshal(body, battery); err != nil {
		log.Error("Could not unmarshal response", "error", err.Error())
		return nil, err
	}

	return battery, nil
}
