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
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caas-team/sentinel/internal/logger"
)

var _ Loader = (*FileLoader)(nil)

// FileLoader reads the check battery from a yaml file
type FileLoader struct {
	path string
	fsys fs.FS
}

// NewFileLoader returns a loader reading from the configured checks source
func NewFileLoader(cfg *Config) *FileLoader {
	return &FileLoader{
		path: cfg.Checks.Source,
		fsys: os.DirFS("."),
	}
}

// Load reads and parses the battery file
func (f *FileLoader) Load(ctx context.Context) (*Battery, error) {
	log := logger.FromContext(ctx).With("file", f.path)
	log.InfoContext(ctx, "Reading check battery from file")

	b, err := f.read()
	if err != nil {
		log.ErrorContext(ctx, "Failed to read check battery file", "error", err)
		return nil, fmt.Errorf("failed to read check battery file: %w", err)
	}

	var battery Battery
	if err := yaml.Unmarshal(b, &battery); err != nil {
		log.ErrorContext(ctx, "Failed to parse check battery file", "error", err)
		return nil, fmt.Errorf("failed to parse check battery file: %w", err)
	}

	return &battery, nil
}

func (f *FileLoader) read() ([]byte, error) {
	if f.fsys != nil && fs.ValidPath(f.path) {
		return fs.ReadFile(f.fsys, f.path)
	}
	return os.ReadFile(f.path)
}
