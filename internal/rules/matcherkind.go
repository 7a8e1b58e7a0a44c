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

// Package rules loads rule files from disk and compiles them into CompiledRule values with
// exactly one MatcherKind variant populated.
package rules

import (
	"regexp"

	"github.com/antchfx/xpath"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/lang"
)

// Kind discriminates the variant populated in a MatcherKind.
type Kind int

const (
	TextRegexKind Kind = iota
	TextRegexMultiKind
	JSONPathEqKind
	JSONPathRegexKind
	AstQueryKind
	RegoWasmKind
	TaintKind
	XPathKind
)

func (k Kind) String() string {
	switch k {
	case TextRegexKind:
		return "text_regex"
	case TextRegexMultiKind:
		return "text_regex_multi"
	case JSONPathEqKind:
		return "json_path_eq"
	case JSONPathRegexKind:
		return "json_path_regex"
	case AstQueryKind:
		return "ast_query"
	case RegoWasmKind:
		return "rego_wasm"
	case TaintKind:
		return "taint"
	case XPathKind:
		return "xpath"
	default:
		return "unknown"
	}
}

// TextRegex searches the raw source for a single regular expression within scope ("" means the
// whole file).
type TextRegex struct {
	Regex *regexp.Regexp
	Scope string
}

// TextRegexMulti matches a candidate region iff every Allow regex matches, no Deny regex
// matches, every Inside regex matches a containing region, and no NotInside regex does.
type TextRegexMulti struct {
	Allow     []*regexp.Regexp
	Deny      []*regexp.Regexp
	Inside    []*regexp.Regexp
	NotInside []*regexp.Regexp
}

// JSONPathEq matches when the IR-Doc, projected to a nested object, has Value at Path.
type JSONPathEq struct {
	Path  string
	Value interface{}
}

// JSONPathRegex matches when the string leaf at Path matches Regex.
type JSONPathRegex struct {
	Path  string
	Regex *regexp.Regexp
}

// AstQuery is a tree-pattern query over a language-specific AST. Metavariables of the form
// "$NAME" bind to subtrees and must be consistent across occurrences within one match.
type AstQuery struct {
	Language            lang.Language
	Query               string
	MetavariablePattern map[string]string
}

// RegoWasm evaluates a compiled Rego policy inside a WASM sandbox.
type RegoWasm struct {
	WasmPath   string
	Entrypoint string
}

// TaintPattern is a match predicate used for taint sources/sinks/sanitizers/reclassifiers.
type TaintPattern struct {
	Allow     []*regexp.Regexp
	Deny      []*regexp.Regexp
	Inside    []*regexp.Regexp
	NotInside []*regexp.Regexp
	Focus     string // optional metavariable name
}

// Matches reports whether surface (the source text of a DFG node's defining instruction)
// satisfies the pattern: every Allow regex matches, no Deny regex matches.
func (p TaintPattern) Matches(surface string) bool {
	for _, re := range p.Allow {
		if !re.MatchString(surface) {
			return false
		}
	}

	for _, re := range p.Deny {
		if re.MatchString(surface) {
			return false
		}
	}

	return true
}

// TaintRule is the compiled form of a Semgrep-style taint rule.
type TaintRule struct {
	Sources    []TaintPattern
	Sanitizers []TaintPattern
	Reclass    []TaintPattern
	Sinks      []TaintPattern
}

// XPath evaluates pre-compiled XPath expressions against a file parsed as XML (Android manifests
// and other structured, XML-shaped configuration). NotMatch selects "report when nothing
// matches" semantics instead of "report every match".
type XPath struct {
	Expressions []*xpath.Expr
	NotMatch    bool
}

// MatcherKind is a closed tagged variant: Kind discriminates which single pointer field below
// is non-nil. Using a tagged struct instead of an interface keeps the set of evaluation
// strategies closed and lets internal/matchers exhaustively switch on Kind.
type MatcherKind struct {
	Kind Kind

	TextRegex      *TextRegex
	TextRegexMulti *TextRegexMulti
	JSONPathEq     *JSONPathEq
	JSONPathRegex  *JSONPathRegex
	AstQuery       *AstQuery
	RegoWasm       *RegoWasm
	Taint          *TaintRule
	XPath          *XPath
}

// CompiledRule is an execution-ready rule: identity, applicability and exactly one matcher.
type CompiledRule struct {
	ID              string
	Severity        engine.Severity
	Category        string
	Message         string
	Remediation     string
	Fix             string
	Languages       map[lang.Language]bool // empty means language-agnostic
	Interprocedural bool
	Matcher         MatcherKind
}

// AppliesTo reports whether the rule should run against files tagged l. An empty Languages set
// means the rule is generic (runs on anything that parses to IR-Doc).
func (r *CompiledRule) AppliesTo(l lang.Language) bool {
	if len(r.Languages) == 0 {
		return true
	}

	return r.Languages[l]
}
