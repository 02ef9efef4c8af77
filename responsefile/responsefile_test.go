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

package responsefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "responses/weather.json", `{"temperature": 21}`)

	t.Run("relative to base dir", func(t *testing.T) {
		t.Parallel()
		got, err := Load("responses/weather.json", dir)
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if want := `{"temperature": 21}`; got != want {
			t.Errorf("Load() = %q, want %q", got, want)
		}
	})

	t.Run("absolute path without base dir", func(t *testing.T) {
		t.Parallel()
		got, err := Load(filepath.Join(dir, "responses/weather.json"), "")
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if want := `{"temperature": 21}`; got != want {
			t.Errorf("Load() = %q, want %q", got, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load("responses/absent.json", dir)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})
}

func TestStorePreload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.json", "alpha")
	writeFile(t, dir, "b.json", "beta")

	store := NewStore(dir)
	if err := store.Preload([]string{"a.json", "b.json", "a.json"}); err != nil {
		t.Fatalf("Preload() failed: %v", err)
	}

	got, ok := store.Get("a.json")
	if !ok || got != "alpha" {
		t.Errorf("Get(a.json) = %q, %v; want alpha, true", got, ok)
	}

	// Cache consistency: a later change on disk must not leak into the store.
	writeFile(t, dir, "a.json", "changed")
	if err := store.Preload([]string{"a.json"}); err != nil {
		t.Fatalf("Preload() failed: %v", err)
	}
	got, _ = store.Get("a.json")
	if got != "alpha" {
		t.Errorf("Get(a.json) after re-preload = %q, want cached alpha", got)
	}

	if _, ok := store.Get("missing.json"); ok {
		t.Error("Get(missing.json) reported content, want none")
	}
}

func TestStorePreloadMissingFile(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	err := store.Preload([]string{"absent.json"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Preload() error = %v, want ErrNotFound", err)
	}
}
