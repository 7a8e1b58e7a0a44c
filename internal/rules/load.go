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

package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/antchfx/xpath"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/lang"
	"gopkg.in/yaml.v3"
)

// RuleSet is the immutable, read-only-after-construction collection of compiled rules shared
// across worker goroutines.
type RuleSet struct {
	Rules []*CompiledRule
}

// Hash is the rule-set half of the cache key described in spec §6: a sha256 hex digest of every
// rule id sorted, so the same set of rules in any load order hashes identically, and any added,
// removed or renamed rule changes the hash and invalidates the cache.
func (s *RuleSet) Hash() string {
	ids := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		ids = append(ids, r.ID)
	}

	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// rawFile is the top-level shape of a rule file: either a bare list of rules, or an object with
// a "rules" key holding the list.
type rawFile struct {
	Rules []rawRule `yaml:"rules"`
}

type rawTaintPattern struct {
	Allow     []string `yaml:"allow"`
	Deny      []string `yaml:"deny"`
	Inside    []string `yaml:"inside"`
	NotInside []string `yaml:"not_inside"`
	Focus     string   `yaml:"focus"`
}

type rawJSONPathEq struct {
	Path  string      `yaml:"path"`
	Value interface{} `yaml:"value"`
}

type rawJSONPathRegex struct {
	Path  string `yaml:"path"`
	Regex string `yaml:"regex"`
}

type rawTextRegexMulti struct {
	Allow     []string `yaml:"allow"`
	Deny      []string `yaml:"deny"`
	Inside    []string `yaml:"inside"`
	NotInside []string `yaml:"not_inside"`
}

type rawRule struct {
	ID              string   `yaml:"id"`
	Message         string   `yaml:"message"`
	Severity        string   `yaml:"severity"`
	Category        string   `yaml:"category"`
	Remediation     string   `yaml:"remediation"`
	Fix             string   `yaml:"fix"`
	Languages       []string `yaml:"languages"`
	Interprocedural bool     `yaml:"interprocedural"`

	// Native matcher shapes.
	PatternRegex   string             `yaml:"pattern_regex"`
	Scope          string             `yaml:"scope"`
	JSONPathEq     *rawJSONPathEq     `yaml:"json_path_eq"`
	JSONPathRegex  *rawJSONPathRegex  `yaml:"json_path_regex"`
	TextRegexMulti *rawTextRegexMulti `yaml:"text_regex_multi"`

	// Semgrep-compatible shape.
	Patterns            []string          `yaml:"patterns"`
	PatternEither       []string          `yaml:"pattern-either"`
	PatternSources      []rawTaintPattern `yaml:"pattern-sources"`
	PatternSinks        []rawTaintPattern `yaml:"pattern-sinks"`
	PatternSanitizers   []rawTaintPattern `yaml:"pattern-sanitizers"`
	PatternReclass      []rawTaintPattern `yaml:"pattern-reclass"`
	AstLanguage         string            `yaml:"ast_language"`
	AstQuery            string            `yaml:"ast_query"`
	MetavariablePattern map[string]string `yaml:"metavariable-pattern"`

	// OPA bundle shape.
	WasmPath   string `yaml:"wasm_path"`
	Entrypoint string `yaml:"entrypoint"`

	// XML/structured-data shape.
	XPathQueries  []string `yaml:"xpath_queries"`
	XPathNotMatch bool     `yaml:"xpath_not_match"`
}

// Load walks dir for .yml/.yaml/.json rule files, compiling every rule it finds. Malformed
// rules are reported in the returned []error but do not stop compilation of the rest.
func Load(dir string) (*RuleSet, []error) {
	var (
		set  RuleSet
		errl []error
	)

	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yml" && ext != ".yaml" && ext != ".json" {
			return nil
		}

		raws, err := readRawFile(path)
		if err != nil {
			errl = append(errl, &errs.RuleCompileError{RuleID: path, Details: "read rule file", Cause: err})
			return nil
		}

		for _, raw := range raws {
			compiled, err := compile(raw)
			if err != nil {
				errl = append(errl, &errs.RuleCompileError{RuleID: raw.ID, Details: err.Error()})
				continue
			}

			set.Rules = append(set.Rules, compiled)
		}

		return nil
	})
	if walkErr != nil {
		errl = append(errl, &errs.IoFatal{Details: "walk rules directory", Cause: walkErr})
	}

	return &set, errl
}

func readRawFile(path string) ([]rawRule, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var f rawFile
		if err := json.Unmarshal(content, &f); err == nil && len(f.Rules) > 0 {
			return f.Rules, nil
		}

		var single rawRule
		if err := json.Unmarshal(content, &single); err != nil {
			return nil, fmt.Errorf("decode json rule: %w", err)
		}

		return []rawRule{single}, nil
	}

	var f rawFile
	if err := yaml.Unmarshal(content, &f); err == nil && len(f.Rules) > 0 {
		return f.Rules, nil
	}

	var list []rawRule
	if err := yaml.Unmarshal(content, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var single rawRule
	if err := yaml.Unmarshal(content, &single); err != nil {
		return nil, fmt.Errorf("decode yaml rule: %w", err)
	}

	return []rawRule{single}, nil
}

// compile auto-detects raw's shape and produces a CompiledRule with exactly one MatcherKind
// populated. Detection order: wasm_path -> OPA bundle; pattern-sources/pattern-sinks -> taint;
// patterns/pattern-either/ast_query -> AST query; then native xpath_queries/json_path_eq/
// json_path_regex/text_regex_multi/pattern_regex in turn.
func compile(raw rawRule) (*CompiledRule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("missing required field: id")
	}

	rule := &CompiledRule{
		ID:              raw.ID,
		Severity:        engine.Severity(strings.ToUpper(raw.Severity)),
		Category:        raw.Category,
		Message:         raw.Message,
		Remediation:     raw.Remediation,
		Fix:             raw.Fix,
		Interprocedural: raw.Interprocedural,
		Languages:       toLanguageSet(raw.Languages),
	}

	switch {
	case raw.WasmPath != "":
		rule.Matcher = MatcherKind{
			Kind:     RegoWasmKind,
			RegoWasm: &RegoWasm{WasmPath: raw.WasmPath, Entrypoint: raw.Entrypoint},
		}
	case len(raw.PatternSources) > 0 || len(raw.PatternSinks) > 0:
		taint := &TaintRule{
			Sources:    toTaintPatterns(raw.PatternSources),
			Sanitizers: toTaintPatterns(raw.PatternSanitizers),
			Reclass:    toTaintPatterns(raw.PatternReclass),
			Sinks:      toTaintPatterns(raw.PatternSinks),
		}
		rule.Matcher = MatcherKind{Kind: TaintKind, Taint: taint}
	case len(raw.Patterns) > 0 || len(raw.PatternEither) > 0 || raw.AstQuery != "":
		rule.Matcher = MatcherKind{
			Kind: AstQueryKind,
			AstQuery: &AstQuery{
				Language:            lang.Language(raw.AstLanguage),
				Query:               firstNonEmpty(raw.AstQuery, strings.Join(raw.Patterns, " "), strings.Join(raw.PatternEither, " | ")),
				MetavariablePattern: raw.MetavariablePattern,
			},
		}
	case len(raw.XPathQueries) > 0:
		exprs := make([]*xpath.Expr, 0, len(raw.XPathQueries))
		for _, q := range raw.XPathQueries {
			expr, err := xpath.Compile(q)
			if err != nil {
				return nil, fmt.Errorf("compile xpath_queries: %w", err)
			}

			exprs = append(exprs, expr)
		}

		rule.Matcher = MatcherKind{
			Kind:  XPathKind,
			XPath: &XPath{Expressions: exprs, NotMatch: raw.XPathNotMatch},
		}
	case raw.JSONPathEq != nil:
		rule.Matcher = MatcherKind{
			Kind:       JSONPathEqKind,
			JSONPathEq: &JSONPathEq{Path: raw.JSONPathEq.Path, Value: raw.JSONPathEq.Value},
		}
	case raw.JSONPathRegex != nil:
		re, err := regexp.Compile(raw.JSONPathRegex.Regex)
		if err != nil {
			return nil, fmt.Errorf("compile json_path_regex: %w", err)
		}

		rule.Matcher = MatcherKind{
			Kind:          JSONPathRegexKind,
			JSONPathRegex: &JSONPathRegex{Path: raw.JSONPathRegex.Path, Regex: re},
		}
	case raw.TextRegexMulti != nil:
		multi, err := compileTextRegexMulti(raw.TextRegexMulti)
		if err != nil {
			return nil, err
		}

		rule.Matcher = MatcherKind{Kind: TextRegexMultiKind, TextRegexMulti: multi}
	case raw.PatternRegex != "":
		re, err := regexp.Compile(raw.PatternRegex)
		if err != nil {
			return nil, fmt.Errorf("compile pattern_regex: %w", err)
		}

		rule.Matcher = MatcherKind{Kind: TextRegexKind, TextRegex: &TextRegex{Regex: re, Scope: raw.Scope}}
	default:
		return nil, fmt.Errorf("unsupported matcher: no recognized matcher key present")
	}

	return rule, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

func toLanguageSet(langs []string) map[lang.Language]bool {
	if len(langs) == 0 {
		return nil
	}

	set := make(map[lang.Language]bool, len(langs))
	for _, l := range langs {
		set[lang.Language(l)] = true
	}

	return set
}

func toTaintPatterns(raw []rawTaintPattern) []TaintPattern {
	patterns := make([]TaintPattern, 0, len(raw))
	for _, p := range raw {
		patterns = append(patterns, TaintPattern{
			Allow:     compileAll(p.Allow),
			Deny:      compileAll(p.Deny),
			Inside:    compileAll(p.Inside),
			NotInside: compileAll(p.NotInside),
			Focus:     p.Focus,
		})
	}

	return patterns
}

func compileAll(exprs []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		if re, err := regexp.Compile(e); err == nil {
			compiled = append(compiled, re)
		}
	}

	return compiled
}

func compileTextRegexMulti(raw *rawTextRegexMulti) (*TextRegexMulti, error) {
	return &TextRegexMulti{
		Allow:     compileAll(raw.Allow),
		Deny:      compileAll(raw.Deny),
		Inside:    compileAll(raw.Inside),
		NotInside: compileAll(raw.NotInside),
	}, nil
}
