// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package responsefile resolves mock response documents referenced by test
// plans. Contents are opaque text; the conversation controller decides how a
// document is wrapped into an API or function result.
package responsefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound indicates the resolved response file does not exist.
var ErrNotFound = errors.New("response file not found")

// Load reads the response file at path, resolved relative to baseDir when
// baseDir is non-empty. The content is returned verbatim as text.
func Load(path, baseDir string) (string, error) {
	full := path
	if baseDir != "" {
		full = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, full)
		}
		return "", fmt.Errorf("failed to read response file %s: %w", full, err)
	}
	return string(data), nil
}

// Store is a per-test cache of response file contents, keyed by the logical
// path declared in the plan. It is populated once before the conversation
// starts and read-only afterwards, so concurrent reads need no locking.
type Store struct {
	baseDir string
	content map[string]string
}

// NewStore creates an empty store resolving paths against baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, content: make(map[string]string)}
}

// Preload loads every path into the cache, failing on the first file that
// cannot be read. Paths already cached are not re-read.
func (s *Store) Preload(paths []string) error {
	for _, path := range paths {
		if _, ok := s.content[path]; ok {
			continue
		}
		content, err := Load(path, s.baseDir)
		if err != nil {
			return err
		}
		s.content[path] = content
	}
	return nil
}

// Get returns the cached content for path.
func (s *Store) Get(path string) (string, bool) {
	content, ok := s.content[path]
	return content, ok
}
