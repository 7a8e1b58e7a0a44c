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
	"github.com/riftscan/engine/platforms"
)

// EvalXPath adapts an XPathKind rule onto platforms.StructuredDataRule, reusing its
// xmlquery-based Run against path exactly as written: an XPathKind rule is a CompiledRule
// carrying the same (Expressions, match-everything-or-match-nothing) shape StructuredDataRule
// already knows how to evaluate, so the orchestrator's compiled-rule dispatch schedules it
// alongside every other matcher kind instead of needing its own code path.
func EvalXPath(rule *rules.CompiledRule, path string) ([]engine.Finding, error) {
	matchType := platforms.RegularMatch
	if rule.Matcher.XPath.NotMatch {
		matchType = platforms.NotMatch
	}

	sdr := platforms.StructuredDataRule{
		Metadata: engine.Metadata{
			ID:          rule.ID,
			Name:        rule.ID,
			Severity:    rule.Severity,
			Description: rule.Message,
		},
		Type:        matchType,
		Expressions: rule.Matcher.XPath.Expressions,
	}

	return sdr.Run(path)
}
