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

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/internal/wasmrt"
)

// EvalRegoWasm implements the RegoWasm matcher: the FileIR is projected to the Rego input shape
// and the rule's compiled policy is evaluated inside rt's sandbox. Each returned result becomes
// one finding, attributed to the referenced IR node's location when present, otherwise line 1.
func EvalRegoWasm(ctx context.Context, rt *wasmrt.Runtime, rule *rules.CompiledRule, file *ir.FileIR, budget wasmrt.Budget) ([]engine.Finding, error) {
	m := rule.Matcher.RegoWasm

	input := wasmrt.Input{FileType: string(file.Language), Nodes: make([]wasmrt.IRNodeInput, len(file.Doc))}
	for i, n := range file.Doc {
		input.Nodes[i] = wasmrt.IRNodeInput{
			Type:  n.Kind,
			Path:  n.Path,
			Value: n.Value,
			Meta:  wasmrt.MetaInput{File: n.Meta.File, Line: n.Meta.Line, Column: n.Meta.Column},
		}
	}

	results, err := rt.Eval(ctx, m.WasmPath, m.Entrypoint, input, budget)
	if err != nil {
		return nil, err
	}

	findings := make([]engine.Finding, 0, len(results))

	for _, r := range results {
		line, column := 1, 1

		if r.NodeRef != nil && *r.NodeRef >= 0 && *r.NodeRef < len(file.Doc) {
			line = file.Doc[*r.NodeRef].Meta.Line
			column = file.Doc[*r.NodeRef].Meta.Column
		}

		findings = append(findings, engine.NewFinding(
			rule.ID, rule.ID, rule.Severity, r.Message, "", r.Message,
			engine.Location{Filename: file.Path, Line: line, Column: column},
		))
	}

	return findings, nil
}
