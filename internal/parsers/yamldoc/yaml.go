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

// Package yamldoc turns a YAML document into a flat internal/ir.DocNode stream, one node per
// scalar leaf, with a dotted path back to its position in the document and real line/column
// taken straight from yaml.v3's node positions (no re-derivation needed, unlike JSON).
package yamldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
)

// Parse decodes content as one or more YAML documents (separated by "---") and emits one
// DocNode per scalar leaf across all of them.
func Parse(path string, content []byte) (*ir.FileIR, error) {
	file := ir.NewFileIR(path, lang.YAML)

	dec := yaml.NewDecoder(bytes.NewReader(content))

	for {
		var doc yaml.Node

		err := dec.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return file, &errs.ParseError{File: path, Details: "invalid yaml", Cause: err}
		}

		walk(file, path, "", &doc)
	}

	return file, nil
}

func walk(file *ir.FileIR, path, prefix string, n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			walk(file, path, prefix, c)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			val := n.Content[i+1]
			walk(file, path, joinPath(prefix, key.Value), val)
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			walk(file, path, fmt.Sprintf("%s[%d]", prefix, i), c)
		}
	case yaml.ScalarNode:
		file.Doc = append(file.Doc, ir.DocNode{
			Kind:  "yaml",
			Path:  prefix,
			Value: scalarValue(n),
			Meta:  ir.DocMeta{File: path, Line: n.Line, Column: n.Column},
		})
	case yaml.AliasNode:
		if n.Alias != nil {
			walk(file, path, prefix, n.Alias)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

// scalarValue decodes a scalar yaml.Node into the same JSON-shaped value set DocNode.Value uses
// elsewhere (string, float64, bool, nil), falling back to the raw tag text on decode failure.
func scalarValue(n *yaml.Node) interface{} {
	switch n.Tag {
	case "!!bool":
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return b
		}
	case "!!int", "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	case "!!null":
		return nil
	}

	return n.Value
}
