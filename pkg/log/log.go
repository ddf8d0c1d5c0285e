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
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 12 // Width for status text
)

// 🎯 FileResult represents one patched file for logging
type FileResult struct {
	Path      string // File path
	Status    string // patched / unchanged / conflict / failed / restored
	Applied   int    // Operations applied
	Skipped   int    // Operations skipped on conflict
	Added     int    // Lines added
	Deleted   int    // Lines deleted
	Replaced  int    // Lines replaced
	BackupRef string // Restore point, when one was created
}

// 📦 BatchRun represents a multi-file run for logging
type BatchRun struct {
	Label   string   // Run label (fix set name or "apply")
	Include []string // File selection globs
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *BatchRun
	results []FileResult
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileResult formats a file result for display
func (l *Logger) formatFileResult(r FileResult) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch r.Status {
	case "failed":
		symbol = '✗'
		symbolColor = color.FgRed
	case "conflict":
		symbol = '!'
		symbolColor = color.FgYellow
	case "patched":
		symbol = '✓'
		symbolColor = color.FgGreen
	case "restored":
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	stats := fmt.Sprintf("+%d -%d ~%d", r.Added, r.Deleted, r.Replaced)

	// Build the line
	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, r.Path),
		fmt.Sprintf("%-*s", statusWidth, r.Status),
		color.New(color.Faint).Sprint(stats))
}

// 📝 LogFileResult logs one file's outcome
func (l *Logger) LogFileResult(ctx context.Context, r FileResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.results = append(l.results, r)

	fmt.Fprintln(l.console, l.formatFileResult(r))

	l.zlog.Info().
		Str("file", r.Path).
		Str("status", r.Status).
		Int("applied", r.Applied).
		Int("skipped", r.Skipped).
		Int("added", r.Added).
		Int("deleted", r.Deleted).
		Int("replaced", r.Replaced).
		Str("backup_ref", r.BackupRef).
		Msg("file result")
}

// 📝 StartBatch starts a new multi-file run
func (l *Logger) StartBatch(ctx context.Context, run BatchRun) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &run
	l.results = nil

	fmt.Fprintf(l.console, "[%s]\n",
		color.New(color.FgCyan).Sprint(run.Label))

	l.zlog.Info().
		Str("label", run.Label).
		Strs("include", run.Include).
		Msg("starting batch run")
}

// 📝 EndBatch ends the current run and prints its summary
func (l *Logger) EndBatch(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	var patched, failed, other int
	for _, r := range l.results {
		switch r.Status {
		case "patched":
			patched++
		case "failed", "conflict":
			failed++
		default:
			other++
		}
	}

	summary := fmt.Sprintf("%d patched, %d unchanged, %d failed", patched, other, failed)
	printer := pterm.Success.WithWriter(l.console)
	if failed > 0 {
		printer = pterm.Warning.WithWriter(l.console)
	}
	printer.Println(summary)

	l.zlog.Info().
		Str("label", l.current.Label).
		Int("files", len(l.results)).
		Int("patched", patched).
		Int("failed", failed).
		Msg("batch run complete")

	l.current = nil
	l.results = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	patchrcText := color.New(color.Bold, color.FgCyan).Sprint("patchrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", patchrcText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
