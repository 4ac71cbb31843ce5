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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/caas-team/sentinel/internal/httpclient"
)

var _ Notifier = (*GitHub)(nil)

// DefaultGitHubAPI is used if no issue api is configured
const DefaultGitHubAPI = "https://api.github.com"

// GitHub opens an issue per alert in a repository
type GitHub struct {
	api    string
	repo   string
	token  string
	client *http.Client
}

// NewGitHub creates an issue notifier for the repository "owner/name"
func NewGitHub(api, repo, token string) *GitHub {
	if api == "" {
		api = DefaultGitHubAPI
	}
	return &GitHub{
		api:    strings.TrimSuffix(api, "/"),
		repo:   repo,
		token:  token,
		client: httpclient.New(sendTimeout),
	}
}

func (g *GitHub) Name() string {
	return "github"
}

type issue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

func (g *GitHub) Notify(ctx context.Context, a Alert) error {
	body, err := json.Marshal(issue{
		Title:  a.Title(),
		Body:   a.Markdown(),
		Labels: []string{"sentinel", string(a.Kind)},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/repos/%s/issues", g.api, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("issue api responded with status %d", resp.StatusCode)
	}
	return nil
}
