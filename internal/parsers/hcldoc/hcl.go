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

// Package hcldoc turns an HCL document (Terraform .tf files and friends) into a flat
// internal/ir.DocNode stream, one node per attribute, addressed by a dotted path built from the
// enclosing block types and labels (e.g. "resource.aws_s3_bucket.data.acl").
package hcldoc

import (
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
)

// Parse decodes content as HCL and emits one DocNode per attribute found in the document, at any
// nesting depth. Attributes whose expression cannot be evaluated without variable context (a
// reference to another resource, a function call) are still recorded, with Value set to the raw
// source text of the expression instead of a decoded constant.
func Parse(path string, content []byte) (*ir.FileIR, error) {
	p := hclparse.NewParser()

	hclFile, diags := p.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, &errs.ParseError{File: path, Details: diags.Error()}
	}

	file := ir.NewFileIR(path, lang.HCL)

	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return file, nil
	}

	walkBody(file, path, "", body, content)

	return file, nil
}

func walkBody(file *ir.FileIR, path, prefix string, body *hclsyntax.Body, src []byte) {
	for name, attr := range body.Attributes {
		rng := attr.Expr.Range()

		file.Doc = append(file.Doc, ir.DocNode{
			Kind:  "hcl",
			Path:  joinPath(prefix, name),
			Value: evalAttr(attr, src),
			Meta:  ir.DocMeta{File: path, Line: rng.Start.Line, Column: rng.Start.Column},
		})
	}

	for _, blk := range body.Blocks {
		walkBody(file, path, joinPath(prefix, blockPath(blk)), blk.Body, src)
	}
}

func blockPath(blk *hclsyntax.Block) string {
	parts := append([]string{blk.Type}, blk.Labels...)
	return strings.Join(parts, ".")
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

// evalAttr evaluates attr's expression with no variables in scope, returning a JSON-shaped Go
// value on success or the expression's raw source text when evaluation needs context this
// document-level walk does not have (a traversal, a function call referencing other resources).
func evalAttr(attr *hclsyntax.Attribute, src []byte) interface{} {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return string(attr.Expr.Range().SliceBytes(src))
	}

	return ctyToGo(val)
}

func ctyToGo(val cty.Value) interface{} {
	switch {
	case val.Type() == cty.String:
		return val.AsString()
	case val.Type() == cty.Bool:
		return val.True()
	case val.Type() == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f
	case val.Type().IsTupleType() || val.Type().IsListType():
		var out []interface{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			out = append(out, ctyToGo(v))
		}

		return out
	default:
		return val.GoString()
	}
}
