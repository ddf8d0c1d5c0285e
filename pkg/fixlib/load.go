// Copyright 2025 walteh LLC
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

package fixlib

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📂 LoadFile reads one fix-set definition from a YAML file.
func LoadFile(path string) (FixSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FixSet{}, errors.Errorf("reading fix set file: %w", err)
	}

	var set FixSet
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&set); err != nil {
		return FixSet{}, errors.Errorf("parsing fix set %s: %w", path, err)
	}
	if err := set.validate(); err != nil {
		return FixSet{}, errors.Errorf("fix set %s: %w", path, err)
	}
	return set, nil
}

// 📂 LoadPath registers the fix sets found at path: a single YAML file, or
// every .yaml/.yml file directly inside a directory.
func (r *Registry) LoadPath(ctx context.Context, path string) error {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("reading fix path: %w", err)
	}

	if !info.IsDir() {
		set, err := LoadFile(path)
		if err != nil {
			return err
		}
		if err := r.Register(set); err != nil {
			return err
		}
		logger.Debug().Str("path", path).Str("set", set.Name).Msg("loaded fix set")
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return errors.Errorf("reading fix directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadPath(ctx, filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
