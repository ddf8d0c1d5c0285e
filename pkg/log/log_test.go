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

package log

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_file_result",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileResult(context.Background(), FileResult{
					Path:     "main.py",
					Status:   "patched",
					Applied:  2,
					Added:    1,
					Replaced: 1,
				})
			},
			wantLogs: []string{"✓ main.py", "patched", "+1 -0 ~1"},
		},
		{
			name: "log_batch_start",
			op: func(t *testing.T, logger *Logger) {
				logger.StartBatch(context.Background(), BatchRun{
					Label:   "security",
					Include: []string{"**/*.py"},
				})
			},
			wantLogs: []string{"[security]"},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Errorf("error %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"❌ error test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("applying queued patches")
			},
			wantLogs: []string{"patchrc • applying queued patches"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			tt.op(t, logger)

			output := buf.String()
			for _, want := range tt.wantLogs {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.InfoLevel)

	ctx := NewContext(context.Background(), logger)
	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestFileResultSymbols(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name   string
		result FileResult
		want   string
	}{
		{name: "patched", result: FileResult{Path: "a.py", Status: "patched"}, want: "✓"},
		{name: "failed", result: FileResult{Path: "a.py", Status: "failed"}, want: "✗"},
		{name: "conflict", result: FileResult{Path: "a.py", Status: "conflict"}, want: "!"},
		{name: "restored", result: FileResult{Path: "a.py", Status: "restored"}, want: "⟳"},
		{name: "unchanged", result: FileResult{Path: "a.py", Status: "unchanged"}, want: "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)
			logger.LogFileResult(context.Background(), tt.result)
			assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), tt.want))
		})
	}
}

func TestBatchSummary(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	buf := &bytes.Buffer{}
	logger := New(buf, zerolog.InfoLevel)
	ctx := context.Background()

	logger.StartBatch(ctx, BatchRun{Label: "apply"})
	logger.LogFileResult(ctx, FileResult{Path: "a.py", Status: "patched"})
	logger.LogFileResult(ctx, FileResult{Path: "b.py", Status: "unchanged"})
	logger.EndBatch(ctx)

	assert.Contains(t, buf.String(), "1 patched, 1 unchanged, 0 failed")
}
