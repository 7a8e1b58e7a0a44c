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

package yamldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
)

const sampleYAML = `
service:
  name: api
  replicas: 3
  public: true
  tags:
    - web
    - prod
`

func findNode(doc []ir.DocNode, path string) (ir.DocNode, bool) {
	for _, n := range doc {
		if n.Path == path {
			return n, true
		}
	}

	return ir.DocNode{}, false
}

func TestParse(t *testing.T) {
	t.Run("Should emit one DocNode per scalar leaf with a dotted path", func(t *testing.T) {
		file, err := Parse("svc.yaml", []byte(sampleYAML))
		assert.NoError(t, err)
		assert.Equal(t, lang.YAML, file.Language)

		name, ok := findNode(file.Doc, "service.name")
		assert.True(t, ok)
		assert.Equal(t, "api", name.Value)

		replicas, ok := findNode(file.Doc, "service.replicas")
		assert.True(t, ok)
		assert.Equal(t, float64(3), replicas.Value)

		public, ok := findNode(file.Doc, "service.public")
		assert.True(t, ok)
		assert.Equal(t, true, public.Value)

		first, ok := findNode(file.Doc, "service.tags[0]")
		assert.True(t, ok)
		assert.Equal(t, "web", first.Value)
	})

	t.Run("Should carry real line and column positions", func(t *testing.T) {
		file, err := Parse("svc.yaml", []byte(sampleYAML))
		assert.NoError(t, err)

		name, ok := findNode(file.Doc, "service.name")
		assert.True(t, ok)
		assert.Equal(t, 3, name.Meta.Line)
	})

	t.Run("Should report a parse error for malformed yaml", func(t *testing.T) {
		_, err := Parse("bad.yaml", []byte("key: [unterminated\n"))
		assert.Error(t, err)
	})
}
