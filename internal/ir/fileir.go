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

// Package ir holds every representation a parser can hand to the rest of the engine: the flat,
// language-agnostic IR-Doc event stream every parser produces, and (for code languages) the
// richer AST/CFG/DFG/CallGraph built on top of internal/ast.
package ir

import (
	"github.com/riftscan/engine/internal/lang"
)

// DocMeta is the origin of a DocNode: file, 1-based line and 1-based column.
type DocMeta struct {
	File   string
	Line   int
	Column int
}

// DocNode is a single event extracted from a document. Kind is the language tag the event came
// from (e.g. "dockerfile", "yaml", "hcl", "python"); Path is a dotted/pointer-like location
// within the document (a Dockerfile directive name, a YAML/JSON-pointer-like path); Value is a
// JSON-shaped value (string, float64, bool, nil, []interface{}, map[string]interface{}).
type DocNode struct {
	Kind  string
	Path  string
	Value interface{}
	Meta  DocMeta
}

// ASTHandle indexes into an Arena. It is never a pointer: CFG/DFG/CallGraph reference AST nodes
// by index so that arenas stay immutable after parsing and free of ownership ambiguity.
type ASTHandle int

// NoAST is the zero-value sentinel for FileIR.AST when a file has no associated AST (every
// document-only language: Dockerfile, YAML, JSON, HCL).
const NoAST ASTHandle = -1

// Arena is the per-file, append-only store of AST nodes referenced by ASTHandle.
type Arena struct {
	nodes []interface{}
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends n to the arena and returns its handle.
func (a *Arena) Add(n interface{}) ASTHandle {
	a.nodes = append(a.nodes, n)
	return ASTHandle(len(a.nodes) - 1)
}

// Get resolves a handle back to its node, or nil if h is out of range.
func (a *Arena) Get(h ASTHandle) interface{} {
	if h < 0 || int(h) >= len(a.nodes) {
		return nil
	}

	return a.nodes[h]
}

// Len reports how many nodes the arena holds.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// FileIR is what every parser produces for one input file: the path, detected language, the
// IR-Doc event stream and, for code languages, the AST/CFG/DFG/CallGraph/Symbols graphs that
// back taint analysis and AST-query matchers.
type FileIR struct {
	Path     string
	Language lang.Language
	Doc      []DocNode
	AST      ASTHandle
	Arena    *Arena

	// Code is non-nil only for languages that carry an AST/CFG/DFG (lang.Language.IsCode()).
	// Each Function in Code.Members has its own CFG (Function.Blocks); the DFG and call graph
	// are derived on demand via BuildDataFlow/BuildCallGraph rather than stored precomputed,
	// since not every rule needs them.
	Code *File

	// Symbols maps a local name to its canonical qualified path (e.g. "escape" -> "html.escape")
	// once alias resolution (L2) has run. Empty for document-only languages.
	Symbols map[string]string
}

// NewFileIR returns a FileIR with no AST and an empty symbol table, ready for a parser to
// append Doc nodes to.
func NewFileIR(path string, language lang.Language) *FileIR {
	return &FileIR{
		Path:     path,
		Language: language,
		AST:      NoAST,
		Symbols:  make(map[string]string),
	}
}
