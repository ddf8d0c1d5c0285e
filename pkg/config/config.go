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

// Package config loads and validates patchrc configuration files. Formats
// are dispatched by extension: .json, .yaml/.yml, .hcl; a bare .patchrc file
// is tried as YAML first, then HCL.
package config

import (
	"github.com/walteh/patchrc/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.Base("invalid configuration")

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".patchrc"

// 🔧 BatchConfig configures multi-file runs.
type BatchConfig struct {
	// Include selects files by doublestar glob, relative to the working
	// directory.
	Include []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`
	// Ignore removes files matched by Include.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`
	// Workers bounds concurrently processed files. Zero means one worker
	// per CPU. Two workers never share a file.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" hcl:"workers,optional"`
}

// 📚 Config is the complete patchrc configuration.
type Config struct {
	// FuzzyThreshold is the default similarity cutoff for fuzzy patterns.
	FuzzyThreshold float64 `json:"fuzzy_threshold,omitempty" yaml:"fuzzy_threshold,omitempty" hcl:"fuzzy_threshold,optional"`
	// MultiLineWindow bounds how many lines an exact pattern may span.
	MultiLineWindow int `json:"multi_line_window,omitempty" yaml:"multi_line_window,omitempty" hcl:"multi_line_window,optional"`
	// HistoryDepth caps retained undo entries per file.
	HistoryDepth int `json:"history_depth,omitempty" yaml:"history_depth,omitempty" hcl:"history_depth,optional"`
	// HistoryFile persists undo/redo state across runs.
	HistoryFile string `json:"history_file,omitempty" yaml:"history_file,omitempty" hcl:"history_file,optional"`
	// BackupDir receives restore-point snapshots.
	BackupDir string `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty" hcl:"backup_dir,optional"`
	// BackupKeep caps retained restore points per file.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty" hcl:"backup_keep,optional"`
	// FixPaths are extra fix-set files or directories to load.
	FixPaths []string `json:"fix_paths,omitempty" yaml:"fix_paths,omitempty" hcl:"fix_paths,optional"`
	// Batch configures multi-file runs.
	Batch *BatchConfig `json:"batch,omitempty" yaml:"batch,omitempty" hcl:"batch,block"`

	location string
}

// Location returns the path this config was loaded from, if any.
func (c *Config) Location() string { return c.location }

// 🎯 Validate checks ranges and fills defaults for unset fields.
func (c *Config) Validate() error {
	if c.FuzzyThreshold == 0 {
		c.FuzzyThreshold = match.DefaultFuzzyThreshold
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return errors.Errorf("%w: fuzzy_threshold %v outside (0,1]", ErrInvalidConfig, c.FuzzyThreshold)
	}
	if c.MultiLineWindow < 0 {
		return errors.Errorf("%w: multi_line_window %d is negative", ErrInvalidConfig, c.MultiLineWindow)
	}
	if c.MultiLineWindow == 0 {
		c.MultiLineWindow = 1
	}
	if c.HistoryDepth < 0 {
		return errors.Errorf("%w: history_depth %d is negative", ErrInvalidConfig, c.HistoryDepth)
	}
	if c.HistoryDepth == 0 {
		c.HistoryDepth = 100
	}
	if c.HistoryFile == "" {
		c.HistoryFile = ".patchrc-history.json"
	}
	if c.BackupDir == "" {
		c.BackupDir = ".patchrc-backups"
	}
	if c.BackupKeep < 0 {
		return errors.Errorf("%w: backup_keep %d is negative", ErrInvalidConfig, c.BackupKeep)
	}
	if c.BackupKeep == 0 {
		c.BackupKeep = 10
	}
	if c.Batch != nil && c.Batch.Workers < 0 {
		return errors.Errorf("%w: batch workers %d is negative", ErrInvalidConfig, c.Batch.Workers)
	}
	return nil
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
