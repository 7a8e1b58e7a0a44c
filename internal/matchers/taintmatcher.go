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
	"time"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/ast"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/internal/taint"
	"github.com/riftscan/engine/text"
)

// EvalTaint implements the TaintRule matcher for every function in file: it builds each
// function's data-flow graph, runs the taint engine over it and reports one finding per
// confirmed hit, citing the sink's location with the sink's source line as the excerpt.
func EvalTaint(rule *rules.CompiledRule, file *ir.FileIR, path string, content []byte, maxSteps int, perRuleTimeoutMs int) ([]engine.Finding, error) {
	if file.Code == nil {
		return nil, nil
	}

	textFile, err := text.NewTextFile(path, content)
	if err != nil {
		return nil, err
	}

	dataflows := make(map[string]*ir.DataFlow)
	for _, member := range file.Code.Members {
		if fn, ok := member.(*ir.Function); ok {
			dataflows[fn.Name()] = ir.BuildDataFlow(fn)
		}
	}

	callees := func(name string) *ir.DataFlow { return dataflows[name] }
	surface := func(v ir.Value) string {
		if v == nil {
			return ""
		}

		return v.String()
	}

	summaries := make(map[string]*taint.Summary)

	var findings []engine.Finding

	deadline := time.Now().Add(time.Duration(perRuleTimeoutMs) * time.Millisecond)

	for _, df := range dataflows {
		result := taint.Run(df, rule.Matcher.Taint, surface, taint.Budget{MaxSteps: maxSteps, Deadline: deadline}, callees, summaries)

		for _, hit := range result.Hits {
			sinkValue := df.Nodes[hit.SinkNode].Value
			byteOffset, line, column := locateValue(sinkValue)

			findings = append(findings, engine.NewFinding(
				rule.ID, rule.ID, rule.Severity, textFile.ExtractSample(byteOffset), "", rule.Message,
				engine.Location{Filename: path, Line: line, Column: column},
			))
		}
	}

	return findings, nil
}

// positioned is satisfied by every ir.Value: each embeds the unexported ir.node struct, which
// promotes a Pos() ast.Position method.
type positioned interface {
	Pos() ast.Position
}

// locateValue resolves an ir.Value back to its source byte offset, line and column, or (0, 1,
// 1) if the value carries no position (e.g. a value synthesized rather than parsed).
func locateValue(v ir.Value) (byteOffset, line, column int) {
	p, ok := v.(positioned)
	if !ok {
		return 0, 1, 1
	}

	start := p.Pos().Start()

	return int(start.Byte), int(start.Row), int(start.Column) + 1
}
