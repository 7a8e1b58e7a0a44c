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

package parsers

import (
	"fmt"

	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
	"github.com/riftscan/engine/internal/parsers/code"
	"github.com/riftscan/engine/internal/parsers/dockerfile"
	"github.com/riftscan/engine/internal/parsers/hcldoc"
	"github.com/riftscan/engine/internal/parsers/jsondoc"
	"github.com/riftscan/engine/internal/parsers/yamldoc"
)

// Parse detects path's language and runs the matching parser over content, returning a FileIR.
// Returns a *errs.ParseError (with the partial FileIR, when one was built) for an unrecognized
// extension or a file the frontend could not parse; the orchestrator treats both as non-fatal.
func Parse(path string, content []byte) (*ir.FileIR, error) {
	language := DetectLanguage(path)

	switch language {
	case lang.Dockerfile:
		return dockerfile.Parse(path, content)
	case lang.YAML:
		return yamldoc.Parse(path, content)
	case lang.JSON:
		return jsondoc.Parse(path, content)
	case lang.HCL:
		return hcldoc.Parse(path, content)
	case lang.Unknown:
		return nil, &errs.ParseError{File: path, Details: "no parser for this file type"}
	default:
		if !language.IsCode() {
			return nil, &errs.ParseError{File: path, Details: fmt.Sprintf("no parser wired for language %s", language)}
		}

		return code.Parse(path, content, language)
	}
}
