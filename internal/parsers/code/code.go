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

// Package code parses source files in one of the eight code languages into an internal/ir.FileIR.
//
// Today only JavaScript reaches the full depth (FileIR.Code: AST + CFG, with DFG/CallGraph
// derivable on demand via internal/ir.BuildDataFlow/BuildCallGraph) since internal/horusec-javascript
// is the only language frontend this engine inherited a working statement/expression-level AST
// builder for. Python, Go, Java, TypeScript, PHP and Ruby get a tree-sitter parse
// (internal/cst) walked into a flat IR-Doc (one DocNode per named top-level CST node and one per
// named child of each, FileIR.Code left nil) — enough for TextRegex and JsonPath rules to run
// against them, but not for AstQuery or taint analysis, which both need FileIR.Code. Rust files
// are not parsed: internal/cst.Parse has no Rust grammar, so Parse returns a *errs.ParseError for
// them. Extending the IR builder
// (internal/ir.NewFile/Build) to a second language's CST shape is tracked as follow-up work, not
// attempted here: it is a from-scratch grammar-to-AST mapping per language, the same size of work
// internal/horusec-javascript/ast.go already represents for JavaScript alone.
package code

import (
	"fmt"

	"github.com/riftscan/engine/internal/cst"
	"github.com/riftscan/engine/internal/errs"
	javascript "github.com/riftscan/engine/internal/horusec-javascript"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
)

// Parse dispatches to the per-language frontend for language and returns the resulting FileIR.
func Parse(path string, content []byte, language lang.Language) (*ir.FileIR, error) {
	if language == lang.Javascript {
		return parseJavascript(path, content)
	}

	return parseGeneric(path, content, language)
}

func parseJavascript(path string, content []byte) (*ir.FileIR, error) {
	astFile, err := javascript.ParseFile(path, content)
	if err != nil {
		return nil, &errs.ParseError{File: path, Details: "invalid javascript", Cause: err}
	}

	file := ir.NewFileIR(path, lang.Javascript)

	irFile := ir.NewFile(astFile)
	irFile.Build()
	file.Code = irFile

	return file, nil
}

// parseGeneric runs a tree-sitter parse of content and flattens every named top-level CST node
// (and, one level down, the named children of each of them) into DocNodes: Path is the
// node's grammar type (e.g. "function_definition", "import_statement"), Value its source text.
func parseGeneric(path string, content []byte, language lang.Language) (*ir.FileIR, error) {
	root, err := cst.Parse(content, language)
	if err != nil {
		return nil, &errs.ParseError{File: path, Details: fmt.Sprintf("invalid %s", language), Cause: err}
	}

	file := ir.NewFileIR(path, language)

	cst.IterNamedChilds(root, func(node *cst.Node) {
		emitDocNode(file, path, node)

		cst.IterNamedChilds(node, func(child *cst.Node) {
			emitDocNode(file, path, child)
		})
	})

	return file, nil
}

func emitDocNode(file *ir.FileIR, path string, node *cst.Node) {
	start := node.StartPoint()

	file.Doc = append(file.Doc, ir.DocNode{
		Kind:  string(file.Language),
		Path:  node.Type(),
		Value: string(node.Value()),
		Meta:  ir.DocMeta{File: path, Line: int(start.Row) + 1, Column: int(start.Column) + 1},
	})
}
