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

package httpclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	custom := New(5 * time.Second)

	tests := []struct {
		name string
		ctx  context.Context
		want *http.Client
	}{
		{
			name: "client in context",
			ctx:  IntoContext(context.Background(), custom),
			want: custom,
		},
		{
			name: "nil client in context",
			ctx:  IntoContext(context.Background(), nil),
			want: http.DefaultClient,
		},
		{
			name: "no client in context",
			ctx:  context.Background(),
			want: http.DefaultClient,
		},
		{
			name: "nil context",
			ctx:  nil,
			want: http.DefaultClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, FromContext(tt.ctx))
		})
	}
}

func TestNew(t *testing.T) {
	c := New(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Timeout)
}
