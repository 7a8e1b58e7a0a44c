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

package matchers

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/text"
)

// metavarPattern recognizes a Semgrep-style metavariable reference inside a query string that
// regexp.QuoteMeta has already escaped ("$X" appears there as `\$X`).
var metavarPattern = regexp.MustCompile(`\\\$[A-Z][A-Z0-9_]*`)

// compiledQuery caches the regex a query string compiles to, since the same AstQuery is
// evaluated once per applicable file.
type compiledQuery struct {
	re     *regexp.Regexp
	groups []string // metavariable name for each capture group, in order
}

var (
	queryCacheMu sync.Mutex
	queryCache   = map[string]*compiledQuery{}
)

// compileQuery turns a query string into a regex: each "$NAME" metavariable becomes a capture
// group (its name recorded in groups), and each "…" ellipsis becomes a non-greedy wildcard. This is a pattern-surface
// approximation of full Semgrep AST matching — it matches against the function body's
// disassembled IR text (see ir.Function/ir.Instruction.String) rather than walking the parsed
// tree structurally, which keeps the matcher independent of any one language's grammar while
// still anchoring on the same textual representation internal/ir already produces for
// debugging. Consistency of repeated metavariable occurrences is enforced by Go's regexp
// backreference-free engine via repeated groups compared after matching, not by the regex
// itself.
func compileQuery(query string) *compiledQuery {
	queryCacheMu.Lock()
	defer queryCacheMu.Unlock()

	if cached, ok := queryCache[query]; ok {
		return cached
	}

	var groups []string

	escaped := regexp.QuoteMeta(query)
	escaped = strings.ReplaceAll(escaped, regexp.QuoteMeta("…"), `.*?`)
	escaped = strings.ReplaceAll(escaped, regexp.QuoteMeta("..."), `.*?`)

	escaped = metavarPattern.ReplaceAllStringFunc(escaped, func(raw string) string {
		name := strings.TrimPrefix(raw, `\$`)
		groups = append(groups, name)
		return `([A-Za-z_][A-Za-z0-9_.]*)`
	})

	compiled := &compiledQuery{groups: groups}
	if re, err := regexp.Compile(escaped); err == nil {
		compiled.re = re
	}

	queryCache[query] = compiled

	return compiled
}

// EvalAstQuery implements the AstQuery matcher: the query is compiled to a metavariable-aware
// pattern and matched against every function's disassembled source in the file's AST/IR. A
// match is reported at the first place the matched instruction's text occurs verbatim in the
// file's source, or at line 1, column 1 when it does not occur there, with repeated metavariable
// occurrences required to bind to the same text. Files without FileIR.Code yield no findings.
func EvalAstQuery(rule *rules.CompiledRule, file *ir.FileIR, path string, content []byte) ([]engine.Finding, error) {
	q := rule.Matcher.AstQuery
	if file.Code == nil {
		return nil, nil
	}

	cq := compileQuery(q.Query)
	if cq.re == nil {
		return nil, fmt.Errorf("ast_query %q did not compile to a usable pattern", q.Query)
	}

	textFile, err := text.NewTextFile(path, content)
	if err != nil {
		return nil, err
	}

	var findings []engine.Finding

	for _, member := range file.Code.Members {
		fn, ok := member.(*ir.Function)
		if !ok {
			continue
		}

		for _, blk := range fn.Blocks {
			for _, instr := range blk.Instrs {
				surf := instr.String()

				match := cq.re.FindStringSubmatch(surf)
				if match == nil || !bindingsConsistent(cq.groups, match[1:]) {
					continue
				}

				idx := strings.Index(textFile.Content(), surf)
				line, column := 1, 1

				if idx >= 0 {
					line, column = textFile.FindLineAndColumn(idx)
				}

				findings = append(findings, engine.NewFinding(
					rule.ID, rule.ID, rule.Severity, surf, "", rule.Message,
					engine.Location{Filename: path, Line: line, Column: column},
				))
			}
		}
	}

	return findings, nil
}

// bindingsConsistent reports whether every metavariable that occurs more than once in groups
// was bound to the same text in match.
func bindingsConsistent(groups, match []string) bool {
	bound := make(map[string]string, len(groups))

	for i, name := range groups {
		if i >= len(match) {
			return false
		}

		if existing, seen := bound[name]; seen && existing != match[i] {
			return false
		}

		bound[name] = match[i]
	}

	return true
}
