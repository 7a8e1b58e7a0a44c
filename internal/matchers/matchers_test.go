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
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/antchfx/xpath"
	"github.com/stretchr/testify/assert"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
)

func TestEvalTextRegex(t *testing.T) {
	rule := &rules.CompiledRule{
		ID:       "hardcoded-secret",
		Severity: engine.SeverityHigh,
		Matcher:  rules.MatcherKind{Kind: rules.TextRegexKind, TextRegex: &rules.TextRegex{Regex: regexp.MustCompile(`api_key\s*=`)}},
	}

	t.Run("Should report one finding per match with recovered line/column", func(t *testing.T) {
		content := []byte("x = 1\napi_key = \"abc\"\n")

		findings, err := EvalTextRegex(rule, "config.py", content)
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "hardcoded-secret", findings[0].RuleID)
		assert.Equal(t, 2, findings[0].SourceLocation.Line)
	})

	t.Run("Should report nothing when the pattern never matches", func(t *testing.T) {
		findings, err := EvalTextRegex(rule, "config.py", []byte("nothing interesting here\n"))
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})
}

func TestEvalJSONPathEq(t *testing.T) {
	file := &ir.FileIR{
		Path: "policy.json",
		Doc: []ir.DocNode{
			{Path: "public", Value: true, Meta: ir.DocMeta{Line: 2, Column: 3}},
		},
	}

	t.Run("Should match when the projected value equals the rule's expected value", func(t *testing.T) {
		rule := &rules.CompiledRule{
			ID:      "public-bucket",
			Matcher: rules.MatcherKind{Kind: rules.JSONPathEqKind, JSONPathEq: &rules.JSONPathEq{Path: "public", Value: true}},
		}

		findings, err := EvalJSONPathEq(rule, file)
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, 2, findings[0].SourceLocation.Line)
	})

	t.Run("Should report nothing when the value differs", func(t *testing.T) {
		rule := &rules.CompiledRule{
			ID:      "public-bucket",
			Matcher: rules.MatcherKind{Kind: rules.JSONPathEqKind, JSONPathEq: &rules.JSONPathEq{Path: "public", Value: false}},
		}

		findings, err := EvalJSONPathEq(rule, file)
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("Should report nothing when the path doesn't exist", func(t *testing.T) {
		rule := &rules.CompiledRule{
			ID:      "public-bucket",
			Matcher: rules.MatcherKind{Kind: rules.JSONPathEqKind, JSONPathEq: &rules.JSONPathEq{Path: "missing", Value: true}},
		}

		findings, err := EvalJSONPathEq(rule, file)
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})
}

func TestEvalXPath(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "AndroidManifest.xml")
	assert.NoError(t, os.WriteFile(manifest, []byte(
		`<manifest><application usesCleartextTraffic="true"></application></manifest>`,
	), 0o644))

	t.Run("Should report one finding per selected node, routed through the structured-data rule", func(t *testing.T) {
		expr := xpath.MustCompile(`//application[@usesCleartextTraffic='true']`)
		rule := &rules.CompiledRule{
			ID:       "cleartext-traffic",
			Severity: engine.SeverityHigh,
			Matcher:  rules.MatcherKind{Kind: rules.XPathKind, XPath: &rules.XPath{Expressions: []*xpath.Expr{expr}}},
		}

		findings, err := EvalXPath(rule, manifest)
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "cleartext-traffic", findings[0].RuleID)
	})

	t.Run("Should report nothing when the expression selects no node", func(t *testing.T) {
		expr := xpath.MustCompile(`//application[@usesCleartextTraffic='false']`)
		rule := &rules.CompiledRule{
			ID:      "cleartext-traffic",
			Matcher: rules.MatcherKind{Kind: rules.XPathKind, XPath: &rules.XPath{Expressions: []*xpath.Expr{expr}}},
		}

		findings, err := EvalXPath(rule, manifest)
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("Should report one finding when NotMatch is set and the expression selects nothing", func(t *testing.T) {
		expr := xpath.MustCompile(`//application[@usesCleartextTraffic='false']`)
		rule := &rules.CompiledRule{
			ID:      "cleartext-traffic",
			Matcher: rules.MatcherKind{Kind: rules.XPathKind, XPath: &rules.XPath{Expressions: []*xpath.Expr{expr}, NotMatch: true}},
		}

		findings, err := EvalXPath(rule, manifest)
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
	})
}

func TestProjectDocCollapsesRepeatedPaths(t *testing.T) {
	t.Run("Should collapse repeated paths into an array in encounter order", func(t *testing.T) {
		nodes := []ir.DocNode{
			{Path: "RUN", Value: "apt-get update"},
			{Path: "RUN", Value: "apt-get install -y curl"},
		}

		projected := ProjectDoc(nodes)
		arr, ok := projected["RUN"].([]interface{})
		assert.True(t, ok)
		assert.Equal(t, []interface{}{"apt-get update", "apt-get install -y curl"}, arr)
	})
}
