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

import "github.com/walteh/patchrc/pkg/patch"

// builtinSets returns the compiled-in fix library.
func builtinSets() []FixSet {
	return []FixSet{
		{
			Name:        "security",
			Category:    "security",
			Description: "Common security hardening fixes",
			Fixes: []Fix{
				{
					ID:          "fix-sql-injection",
					Name:        "SQL Injection Protection",
					Description: "Replace string formatting in SQL statements with parameterized queries",
					Severity:    "high",
					Files:       []string{"**/*.py"},
					Operations: []patch.Encoded{{
						Type:        "replace_by_pattern",
						Pattern:     `cursor\.execute\(\s*["'](.*?)["']\s*%\s*(.*?)\s*\)`,
						Replacement: `cursor.execute("$1", $2)`,
						Scope:       "all",
					}},
				},
				{
					ID:          "fix-unsafe-yaml-load",
					Name:        "Safe YAML Loading",
					Description: "Replace yaml.load with yaml.safe_load",
					Severity:    "high",
					Files:       []string{"**/*.py"},
					Operations: []patch.Encoded{{
						Type:        "replace_by_pattern",
						Pattern:     `yaml\.load\(([^)]*)\)`,
						Replacement: `yaml.safe_load($1)`,
						Scope:       "all",
					}},
				},
				{
					ID:          "fix-hardcoded-secrets",
					Name:        "Remove Hardcoded Secrets",
					Description: "Replace hardcoded passwords and API keys with environment lookups",
					Severity:    "critical",
					Files:       []string{"**/*.py"},
					Operations: []patch.Encoded{{
						Type:        "replace_by_pattern",
						Pattern:     `(password|api_key|secret)\s*=\s*["'][^"']+["']`,
						Replacement: `$1 = os.getenv("$1".upper(), "")`,
						Scope:       "all",
					}},
				},
			},
		},
		{
			Name:        "code-quality",
			Category:    "code_quality",
			Description: "Code quality and style improvements",
			Fixes: []Fix{
				{
					ID:          "fix-print-logging",
					Name:        "Replace Print With Logging",
					Description: "Route print calls through the logging module",
					Severity:    "low",
					Files:       []string{"**/*.py"},
					Operations: []patch.Encoded{{
						Type:        "replace_by_pattern",
						Pattern:     `print\((.*)\)`,
						Replacement: `logging.info($1)`,
						Scope:       "all",
					}},
				},
				{
					ID:          "fix-bare-except",
					Name:        "Narrow Bare Except Clauses",
					Description: "Catch Exception instead of everything",
					Severity:    "medium",
					Files:       []string{"**/*.py"},
					Operations: []patch.Encoded{{
						Type:        "replace_by_pattern",
						Pattern:     `except\s*:`,
						Replacement: `except Exception:`,
						Scope:       "all",
					}},
				},
			},
		},
	}
}
