// Copyright 2020 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
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

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/config"
	"github.com/riftscan/engine/internal/rules"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverExcludesDefaults(t *testing.T) {
	t.Run("Should skip node_modules, .git and oversized files by default", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "app.yaml"), "key: value\n")
		writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "module.exports = {}\n")
		writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
		big := filepath.Join(root, "big.yaml")
		assert.NoError(t, os.WriteFile(big, make([]byte, MaxDefaultFileSize+1), 0o644))

		o := &Orchestrator{}
		paths, err := o.discover(root, Options{})
		assert.NoError(t, err)

		assert.Contains(t, paths, filepath.Join(root, "app.yaml"))
		assert.NotContains(t, paths, big)
		for _, p := range paths {
			assert.NotContains(t, p, "node_modules")
			assert.NotContains(t, p, ".git")
		}
	})

	t.Run("Should honor exclude globs", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "vendor", "lib.yaml"), "k: v\n")
		writeFile(t, filepath.Join(root, "app.yaml"), "k: v\n")

		o := &Orchestrator{}
		paths, err := o.discover(root, Options{ExcludeGlobs: []string{"vendor/**"}})
		assert.NoError(t, err)

		assert.Contains(t, paths, filepath.Join(root, "app.yaml"))
		assert.NotContains(t, paths, filepath.Join(root, "vendor", "lib.yaml"))
	})

	t.Run("Should include everything when default excludes are disabled", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "x\n")

		o := &Orchestrator{}
		paths, err := o.discover(root, Options{NoDefaultExclude: true})
		assert.NoError(t, err)
		assert.Contains(t, paths, filepath.Join(root, "node_modules", "dep", "index.js"))
	})
}

func TestSortFindingsDeterministic(t *testing.T) {
	t.Run("Should order by file, then line, then column, then rule id", func(t *testing.T) {
		findings := []engine.Finding{
			{RuleID: "r2", SourceLocation: engine.Location{Filename: "b.yaml", Line: 1, Column: 1}},
			{RuleID: "r1", SourceLocation: engine.Location{Filename: "a.yaml", Line: 5, Column: 1}},
			{RuleID: "r1", SourceLocation: engine.Location{Filename: "a.yaml", Line: 1, Column: 2}},
			{RuleID: "r1", SourceLocation: engine.Location{Filename: "a.yaml", Line: 1, Column: 1}},
		}

		sortFindings(findings)

		want := []string{"a.yaml:1:1", "a.yaml:1:2", "a.yaml:5:1", "b.yaml:1:1"}
		got := make([]string, 0, len(findings))
		for _, f := range findings {
			got = append(got, f.SourceLocation.Filename+":"+itoa(f.SourceLocation.Line)+":"+itoa(f.SourceLocation.Column))
		}

		assert.Equal(t, want, got)
	})
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}

	return digits
}

func TestRunEndToEnd(t *testing.T) {
	t.Run("Should find a match from a native text_regex rule and apply the cache on rerun", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "config.yaml"), "api_key: \"abc123\"\n")

		rulesDir := t.TempDir()
		writeFile(t, filepath.Join(rulesDir, "secrets.yaml"), `
id: hardcoded-secret
severity: high
message: hardcoded secret detected
pattern_regex: "api_key:"
`)

		ruleSet, compileErrs := rules.Load(rulesDir)
		assert.Empty(t, compileErrs)
		assert.Len(t, ruleSet.Rules, 1)

		cfg := config.Defaults()
		cfg.CachePath = filepath.Join(t.TempDir(), "cache.json")

		orch, err := New(cfg, ruleSet, nil)
		assert.NoError(t, err)

		findings, err := orch.Run(context.Background(), root, Options{})
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "hardcoded-secret", findings[0].RuleID)

		findingsAgain, err := orch.Run(context.Background(), root, Options{})
		assert.NoError(t, err)
		assert.Equal(t, findings, findingsAgain)
	})

	t.Run("Should suppress a finding on a line carrying the ignore token", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "config.yaml"), "api_key: \"abc123\" # sast-ignore: test fixture\n")

		rulesDir := t.TempDir()
		writeFile(t, filepath.Join(rulesDir, "secrets.yaml"), `
id: hardcoded-secret
severity: high
pattern_regex: "api_key:"
`)

		ruleSet, compileErrs := rules.Load(rulesDir)
		assert.Empty(t, compileErrs)

		cfg := config.Defaults()
		cfg.CachePath = ""

		orch, err := New(cfg, ruleSet, nil)
		assert.NoError(t, err)

		findings, err := orch.Run(context.Background(), root, Options{})
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})
}
