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

package dockerfile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftscan/engine/internal/lang"
)

const sampleDockerfile = `FROM alpine:3.18
# a comment, skipped
RUN apk add --no-cache \
    curl \
    git
USER root
`

func TestParse(t *testing.T) {
	t.Run("Should emit one DocNode per instruction, joining line continuations", func(t *testing.T) {
		file, err := Parse("Dockerfile", []byte(sampleDockerfile))
		assert.NoError(t, err)
		assert.Equal(t, lang.Dockerfile, file.Language)
		assert.Len(t, file.Doc, 3)

		assert.Equal(t, "FROM", file.Doc[0].Path)
		assert.Equal(t, "alpine:3.18", file.Doc[0].Value)
		assert.Equal(t, 1, file.Doc[0].Meta.Line)

		assert.Equal(t, "RUN", file.Doc[1].Path)
		assert.Contains(t, file.Doc[1].Value, "curl")
		assert.Contains(t, file.Doc[1].Value, "git")
		assert.Equal(t, 3, file.Doc[1].Meta.Line)

		assert.Equal(t, "USER", file.Doc[2].Path)
		assert.Equal(t, "root", file.Doc[2].Value)
	})

	t.Run("Should skip blank lines and comments entirely", func(t *testing.T) {
		file, err := Parse("Dockerfile", []byte("\n# just a comment\n\nFROM scratch\n"))
		assert.NoError(t, err)
		assert.Len(t, file.Doc, 1)
		assert.Equal(t, "FROM", file.Doc[0].Path)
	})
}
