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

// Package dockerfile turns a Dockerfile into a flat internal/ir.DocNode stream, one node per
// instruction line. It is a line-oriented approximation of the Dockerfile grammar rather than a
// full BuildKit-style parser: good enough for every matcher that looks at instruction name plus
// argument text (TextRegex, JsonPath over the projected doc), not a build-graph.
package dockerfile

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
	"github.com/riftscan/engine/text"
)

// Parse reads content as a Dockerfile and returns one FileIR with one DocNode per instruction.
// Line continuations ("\" at end of line) are joined before the instruction is recorded, so a
// multi-line RUN produces a single node whose Meta.Line is the instruction's first line.
func Parse(path string, content []byte) (*ir.FileIR, error) {
	if _, err := text.NewTextFile(path, content); err != nil {
		return nil, &errs.ParseError{File: path, Details: "not valid utf-8 text", Cause: err}
	}

	file := ir.NewFileIR(path, lang.Dockerfile)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	var pending strings.Builder
	pendingStartLine := 0

	flush := func() {
		instr := strings.TrimSpace(pending.String())
		pending.Reset()

		if instr == "" || strings.HasPrefix(instr, "#") {
			return
		}

		name, arg, _ := strings.Cut(instr, " ")

		file.Doc = append(file.Doc, ir.DocNode{
			Kind:  "dockerfile",
			Path:  strings.ToUpper(name),
			Value: strings.TrimSpace(arg),
			Meta:  ir.DocMeta{File: path, Line: pendingStartLine, Column: 1},
		})
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if pending.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}

			pendingStartLine = lineNo
		}

		if strings.HasSuffix(strings.TrimRight(line, " \t"), "\\") {
			pending.WriteString(strings.TrimSuffix(strings.TrimRight(line, " \t"), "\\"))
			pending.WriteByte(' ')
			continue
		}

		pending.WriteString(line)
		flush()
	}

	if pending.Len() > 0 {
		flush()
	}

	return file, nil
}
