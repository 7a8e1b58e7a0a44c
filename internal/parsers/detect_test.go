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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftscan/engine/internal/lang"
)

func TestDetectLanguage(t *testing.T) {
	testCases := []struct {
		path string
		want lang.Language
	}{
		{"Dockerfile", lang.Dockerfile},
		{"Dockerfile.prod", lang.Dockerfile},
		{"values.yaml", lang.YAML},
		{"values.yml", lang.YAML},
		{"package.json", lang.JSON},
		{"main.tf", lang.HCL},
		{"module.hcl", lang.HCL},
		{"app.py", lang.Python},
		{"lib.rs", lang.Rust},
		{"index.ts", lang.TypeScript},
		{"index.tsx", lang.TypeScript},
		{"app.js", lang.Javascript},
		{"App.java", lang.Java},
		{"index.php", lang.PHP},
		{"main.go", lang.Go},
		{"model.rb", lang.Ruby},
		{"README.md", lang.Unknown},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectLanguage(tc.path))
		})
	}
}

func TestParseDispatchesDocumentLanguages(t *testing.T) {
	t.Run("Should dispatch a YAML file to yamldoc", func(t *testing.T) {
		file, err := Parse("config.yaml", []byte("key: value\n"))
		assert.NoError(t, err)
		assert.Equal(t, lang.YAML, file.Language)
	})

	t.Run("Should dispatch a Dockerfile to the dockerfile parser", func(t *testing.T) {
		file, err := Parse("Dockerfile", []byte("FROM scratch\n"))
		assert.NoError(t, err)
		assert.Equal(t, lang.Dockerfile, file.Language)
	})

	t.Run("Should return a ParseError for an unrecognized extension", func(t *testing.T) {
		_, err := Parse("notes.md", []byte("hello"))
		assert.Error(t, err)
	})
}
