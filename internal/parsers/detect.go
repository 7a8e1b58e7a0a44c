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

// Package parsers dispatches a file to the document or code parser for its detected language and
// hands back a populated internal/ir.FileIR.
package parsers

import (
	"path/filepath"
	"strings"

	"github.com/riftscan/engine/internal/lang"
)

// extByLang maps a lowercased file extension to its language tag. Filenames that carry no
// useful extension (Dockerfile) are matched by base name in DetectLanguage instead.
var extByLang = map[string]lang.Language{
	".yml":  lang.YAML,
	".yaml": lang.YAML,
	".json": lang.JSON,
	".tf":   lang.HCL,
	".hcl":  lang.HCL,
	".py":   lang.Python,
	".rs":   lang.Rust,
	".ts":   lang.TypeScript,
	".tsx":  lang.TypeScript,
	".js":   lang.Javascript,
	".jsx":  lang.Javascript,
	".java": lang.Java,
	".php":  lang.PHP,
	".go":   lang.Go,
	".rb":   lang.Ruby,
}

// DetectLanguage maps a file path to the language tag that routes it to a parser, or
// lang.Unknown when no parser claims it.
func DetectLanguage(path string) lang.Language {
	base := strings.ToLower(filepath.Base(path))

	switch {
	case base == "dockerfile" || strings.HasPrefix(base, "dockerfile."):
		return lang.Dockerfile
	}

	if l, ok := extByLang[strings.ToLower(filepath.Ext(path))]; ok {
		return l
	}

	return lang.Unknown
}
