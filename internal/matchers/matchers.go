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
	"context"
	"fmt"
	"os"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/internal/wasmrt"
)

// Budgets bounds a single (file, rule) evaluation, threaded down from EngineConfig.
type Budgets struct {
	MaxTaintSteps    int
	PerRuleTimeoutMs int
	Wasm             wasmrt.Budget
}

// Eval dispatches rule against file by MatcherKind.Kind, the one exhaustive switch point every
// matcher variant funnels through.
func Eval(ctx context.Context, rt *wasmrt.Runtime, rule *rules.CompiledRule, file *ir.FileIR, budgets Budgets) ([]engine.Finding, error) {
	var content []byte

	if rule.Matcher.Kind == rules.TextRegexKind || rule.Matcher.Kind == rules.TextRegexMultiKind ||
		rule.Matcher.Kind == rules.AstQueryKind || rule.Matcher.Kind == rules.TaintKind {
		var err error

		content, err = os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
	}

	switch rule.Matcher.Kind {
	case rules.TextRegexKind:
		return EvalTextRegex(rule, file.Path, content)
	case rules.TextRegexMultiKind:
		return EvalTextRegexMulti(rule, file.Path, content)
	case rules.JSONPathEqKind:
		return EvalJSONPathEq(rule, file)
	case rules.JSONPathRegexKind:
		return EvalJSONPathRegex(rule, file)
	case rules.AstQueryKind:
		return EvalAstQuery(rule, file, file.Path, content)
	case rules.TaintKind:
		return EvalTaint(rule, file, file.Path, content, budgets.MaxTaintSteps, budgets.PerRuleTimeoutMs)
	case rules.RegoWasmKind:
		return EvalRegoWasm(ctx, rt, rule, file, budgets.Wasm)
	case rules.XPathKind:
		return EvalXPath(rule, file.Path)
	default:
		return nil, fmt.Errorf("unknown matcher kind %v", rule.Matcher.Kind)
	}
}
