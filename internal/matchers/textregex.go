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
	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/text"
)

// EvalTextRegex implements the TextRegex matcher: every non-overlapping match of the rule's
// regex against the raw source becomes one finding, with column as the match start on its line.
func EvalTextRegex(rule *rules.CompiledRule, path string, content []byte) ([]engine.Finding, error) {
	textFile, err := text.NewTextFile(path, content)
	if err != nil {
		return nil, err
	}

	m := rule.Matcher.TextRegex

	var findings []engine.Finding

	for _, idx := range m.Regex.FindAllIndex(content, -1) {
		line, column := textFile.FindLineAndColumn(idx[0])
		findings = append(findings, engine.NewFinding(
			rule.ID, rule.ID, rule.Severity, textFile.ExtractSample(idx[0]), "", rule.Message,
			engine.Location{Filename: path, Line: line, Column: column},
		))
	}

	return findings, nil
}

// EvalTextRegexMulti implements the TextRegexMulti matcher: a finding is reported once per file
// iff every Allow regex matches somewhere in the file, no Deny regex matches anywhere, every
// Inside regex matches (the file itself stands in for the containing region at this matcher's
// granularity), and no NotInside regex does. The reported location is the first Allow match.
func EvalTextRegexMulti(rule *rules.CompiledRule, path string, content []byte) ([]engine.Finding, error) {
	m := rule.Matcher.TextRegexMulti

	for _, re := range m.Deny {
		if re.Match(content) {
			return nil, nil
		}
	}

	for _, re := range m.Inside {
		if !re.Match(content) {
			return nil, nil
		}
	}

	for _, re := range m.NotInside {
		if re.Match(content) {
			return nil, nil
		}
	}

	var firstIdx []int

	for _, re := range m.Allow {
		idx := re.FindIndex(content)
		if idx == nil {
			return nil, nil
		}

		if firstIdx == nil || idx[0] < firstIdx[0] {
			firstIdx = idx
		}
	}

	if firstIdx == nil {
		return nil, nil
	}

	textFile, err := text.NewTextFile(path, content)
	if err != nil {
		return nil, err
	}

	line, column := textFile.FindLineAndColumn(firstIdx[0])

	return []engine.Finding{engine.NewFinding(
		rule.ID, rule.ID, rule.Severity, textFile.ExtractSample(firstIdx[0]), "", rule.Message,
		engine.Location{Filename: path, Line: line, Column: column},
	)}, nil
}
