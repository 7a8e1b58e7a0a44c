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

// Package jsondoc turns a JSON document into a flat internal/ir.DocNode stream, one node per
// scalar leaf, using gjson.ParseBytes/ForEach to walk the value tree rather than
// encoding/json.Unmarshal: gjson keeps each value's byte offset (Result.Index) in the original
// source, which FindLineAndColumn turns into the line/column encoding/json itself cannot give us
// without re-implementing a position-tracking decoder.
package jsondoc

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
	"github.com/riftscan/engine/text"
)

// Parse decodes content as JSON and emits one DocNode per scalar leaf (string, number, bool,
// null), dotted-path addressed like yamldoc's, except that an array element gets a ".N" path
// segment (e.g. "tags.0") where yamldoc writes "tags[0]".
func Parse(path string, content []byte) (*ir.FileIR, error) {
	if !gjson.ValidBytes(content) {
		return nil, &errs.ParseError{File: path, Details: "invalid json"}
	}

	textFile, err := text.NewTextFile(path, content)
	if err != nil {
		return nil, &errs.ParseError{File: path, Details: "not valid utf-8 text", Cause: err}
	}

	file := ir.NewFileIR(path, lang.JSON)

	root := gjson.ParseBytes(content)
	walk(file, &textFile, "", root)

	return file, nil
}

func walk(file *ir.FileIR, textFile *text.TextFile, prefix string, value gjson.Result) {
	switch value.Type {
	case gjson.JSON:
		if value.IsArray() {
			i := 0
			value.ForEach(func(_, v gjson.Result) bool {
				walk(file, textFile, arrayPath(prefix, i), v)
				i++
				return true
			})

			return
		}

		value.ForEach(func(k, v gjson.Result) bool {
			walk(file, textFile, joinPath(prefix, k.String()), v)
			return true
		})
	default:
		line, column := textFile.FindLineAndColumn(int(value.Index))

		file.Doc = append(file.Doc, ir.DocNode{
			Kind:  "json",
			Path:  prefix,
			Value: value.Value(),
			Meta:  ir.DocMeta{File: file.Path, Line: line, Column: column},
		})
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

func arrayPath(prefix string, idx int) string {
	return joinPath(prefix, strconv.Itoa(idx))
}
