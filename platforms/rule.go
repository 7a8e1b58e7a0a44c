package platforms

import (
	"bytes"
	"fmt"
	"os"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	engine "github.com/riftscan/engine"
)

// MatchType represents the possible ways a StructuredDataRule can be satisfied by a document.
type MatchType int

const (
	// RegularMatch reports a finding for every node the expression selects.
	RegularMatch MatchType = iota

	// NotMatch reports a finding when an expression selects nothing.
	NotMatch
)

// StructuredDataRule evaluates a set of XPath expressions against an XML document. It
// implements engine.Rule; internal/matchers.EvalXPath builds one from a compiled
// rules.CompiledRule with Matcher.Kind == rules.XPathKind and calls Run, so it is scheduled
// by internal/matchers.Eval like any other matcher kind.
type StructuredDataRule struct {
	engine.Metadata
	Type        MatchType
	Expressions []*xpath.Expr
}

// Run implements engine.Rule. The file at path is parsed as XML and evaluated against every
// expression in the rule according to Type.
func (rule StructuredDataRule) Run(path string) ([]engine.Finding, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	var findings []engine.Finding

	switch rule.Type {
	case RegularMatch:
		for _, expression := range rule.Expressions {
			for _, node := range xmlquery.QuerySelectorAll(doc, expression) {
				findings = append(findings,
					PopulateFindingWithRuleMetadata(rule, path, node.OutputXML(true), 1, 1))
			}
		}
	case NotMatch:
		for _, expression := range rule.Expressions {
			if len(xmlquery.QuerySelectorAll(doc, expression)) == 0 {
				findings = append(findings, PopulateFindingWithRuleMetadata(rule, path, "", 1, 1))
			}
		}
	}

	return findings, nil
}

// NewStructuredDataRule compiles queryStrings as XPath expressions for use against an XML
// document.
func NewStructuredDataRule(matchType MatchType, queryStrings []string) StructuredDataRule {
	var exprs []*xpath.Expr
	for _, query := range queryStrings {
		exprs = append(exprs, xpath.MustCompile(query))
	}

	return StructuredDataRule{
		Type:        matchType,
		Expressions: exprs,
	}
}
