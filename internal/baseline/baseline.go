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

// Package baseline filters findings already accepted as known: either recorded by stable id in a
// baseline file, or suppressed inline at the source line with a "sast-ignore" comment token.
package baseline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"

	engine "github.com/riftscan/engine"
)

// IgnoreToken is the inline suppression comment marker, matched anywhere on the finding's source
// line (e.g. "eval(x) // sast-ignore: known-safe-in-tests").
const IgnoreToken = "sast-ignore"

// Baseline is a set of previously-accepted finding ids.
type Baseline struct {
	IDs map[string]bool `json:"ids"`
}

// Load reads a baseline file. A missing file is treated as an empty baseline, not an error.
func Load(path string) (*Baseline, error) {
	b := &Baseline{IDs: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}

	if err != nil {
		return nil, err
	}

	var raw struct {
		IDs []string `json:"ids"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for _, id := range raw.IDs {
		b.IDs[id] = true
	}

	return b, nil
}

// Save writes b to path as the {"ids": [...]} JSON shape Load reads back.
func Save(path string, b *Baseline) error {
	ids := make([]string, 0, len(b.IDs))
	for id := range b.IDs {
		ids = append(ids, id)
	}

	data, err := json.MarshalIndent(struct {
		IDs []string `json:"ids"`
	}{IDs: ids}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// FromFindings builds a Baseline that accepts exactly findings' current ids, for "accept
// everything found today" workflows.
func FromFindings(findings []engine.Finding) *Baseline {
	b := &Baseline{IDs: make(map[string]bool, len(findings))}
	for _, f := range findings {
		b.IDs[f.ID] = true
	}

	return b
}

// Filter drops every finding whose id is in b, returning the rest.
func (b *Baseline) Filter(findings []engine.Finding) []engine.Finding {
	if b == nil {
		return findings
	}

	out := findings[:0:0]

	for _, f := range findings {
		if !b.IDs[f.ID] {
			out = append(out, f)
		}
	}

	return out
}

// SuppressInline drops every finding whose source line, taken from content, carries IgnoreToken.
// content is the file's bytes as the caller already holds them; SuppressInline re-scans it once per call.
func SuppressInline(findings []engine.Finding, content []byte) []engine.Finding {
	return SuppressInlineWithToken(findings, content, IgnoreToken)
}

// SuppressInlineWithToken is SuppressInline with token in place of IgnoreToken.
func SuppressInlineWithToken(findings []engine.Finding, content []byte, token string) []engine.Finding {
	lines := splitLines(content)
	out := findings[:0:0]

	for _, f := range findings {
		if line := lineAt(lines, f.SourceLocation.Line); line != "" && strings.Contains(line, token) {
			continue
		}

		out = append(out, f)
	}

	return out
}

func splitLines(content []byte) []string {
	var lines []string

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return lines
}

func lineAt(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}

	return lines[n-1]
}
