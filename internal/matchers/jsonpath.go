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

// Package matchers evaluates every MatcherKind variant against a parsed FileIR, producing
// engine.Finding values.
package matchers

import (
	"encoding/json"
	"fmt"
	"strings"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
	"github.com/tidwall/gjson"
)

// ProjectDoc reconstructs the IR-Doc's flat event stream into the nested object JsonPathEq/
// JsonPathRegex navigate. Repeated paths (e.g. multiple Dockerfile RUN directives) collapse
// into a JSON array in encounter order.
func ProjectDoc(nodes []ir.DocNode) map[string]interface{} {
	root := map[string]interface{}{}
	for _, n := range nodes {
		insertPath(root, strings.Split(n.Path, "."), n.Value)
	}

	return root
}

func insertPath(m map[string]interface{}, keys []string, value interface{}) {
	key := keys[0]
	if len(keys) == 1 {
		if existing, ok := m[key]; ok {
			if arr, isArr := existing.([]interface{}); isArr {
				m[key] = append(arr, value)
			} else {
				m[key] = []interface{}{existing, value}
			}
		} else {
			m[key] = value
		}

		return
	}

	child, ok := m[key].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		m[key] = child
	}

	insertPath(child, keys[1:], value)
}

// findNode returns the first DocNode whose Path matches query, where a "*" query segment
// matches any single path segment. Used to recover the line/column/excerpt a gjson match
// should be attributed to, since gjson itself only sees the projected JSON, not the original
// DocNode metadata.
func findNode(nodes []ir.DocNode, query string) (ir.DocNode, bool) {
	queryParts := strings.Split(query, ".")

	for _, n := range nodes {
		if pathMatches(strings.Split(n.Path, "."), queryParts) {
			return n, true
		}
	}

	return ir.DocNode{}, false
}

func pathMatches(path, query []string) bool {
	if len(path) != len(query) {
		return false
	}

	for i, q := range query {
		if q != "*" && q != path[i] {
			return false
		}
	}

	return true
}

// EvalJSONPathEq implements the JsonPathEq matcher: the file's IR-Doc is projected to a nested
// object, marshaled to JSON and queried with gjson; a match is reported when the selected value
// deep-equals the rule's expected value.
func EvalJSONPathEq(rule *rules.CompiledRule, file *ir.FileIR) ([]engine.Finding, error) {
	m := rule.Matcher.JSONPathEq

	data, err := json.Marshal(ProjectDoc(file.Doc))
	if err != nil {
		return nil, fmt.Errorf("project doc: %w", err)
	}

	result := gjson.GetBytes(data, m.Path)
	if !result.Exists() || !valueEquals(result, m.Value) {
		return nil, nil
	}

	node, _ := findNode(file.Doc, m.Path)

	return []engine.Finding{newDocFinding(rule, file.Path, node, result.Raw)}, nil
}

// EvalJSONPathRegex implements the JsonPathRegex matcher: same projection as JsonPathEq, but
// the selected leaf must be a string matching the rule's regex.
func EvalJSONPathRegex(rule *rules.CompiledRule, file *ir.FileIR) ([]engine.Finding, error) {
	m := rule.Matcher.JSONPathRegex

	data, err := json.Marshal(ProjectDoc(file.Doc))
	if err != nil {
		return nil, fmt.Errorf("project doc: %w", err)
	}

	var findings []engine.Finding

	for _, result := range gjsonMatches(data, m.Path) {
		if result.Type != gjson.String || !m.Regex.MatchString(result.String()) {
			continue
		}

		node, _ := findNode(file.Doc, m.Path)
		findings = append(findings, newDocFinding(rule, file.Path, node, result.String()))
	}

	return findings, nil
}

// gjsonMatches returns every value selected by path, expanding a top-level array result into
// its elements so JsonPathRegex can check each one independently (e.g. multiple FROM lines).
func gjsonMatches(data []byte, path string) []gjson.Result {
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil
	}

	if result.IsArray() {
		return result.Array()
	}

	return []gjson.Result{result}
}

func valueEquals(result gjson.Result, expected interface{}) bool {
	switch v := expected.(type) {
	case string:
		return result.String() == v
	case bool:
		return result.Bool() == v
	case float64:
		return result.Num == v
	case int:
		return result.Num == float64(v)
	default:
		return false
	}
}

func newDocFinding(rule *rules.CompiledRule, path string, node ir.DocNode, excerpt string) engine.Finding {
	line, column := 1, 1
	if node.Meta.Line > 0 {
		line, column = node.Meta.Line, node.Meta.Column
	}

	return engine.NewFinding(rule.ID, rule.ID, rule.Severity, excerpt, "", rule.Message, engine.Location{
		Filename: path,
		Line:     line,
		Column:   column,
	})
}
