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

package hcldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/lang"
)

const sampleHCL = `
resource "aws_s3_bucket" "data" {
  bucket = "my-bucket"
  acl    = "public-read"

  versioning {
    enabled = true
  }
}
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
	t.Run("Should address attributes by block type and labels", func(t *testing.T) {
		file, err := Parse("main.tf", []byte(sampleHCL))
		assert.NoError(t, err)
		assert.Equal(t, lang.HCL, file.Language)

		acl, ok := findNode(file.Doc, "resource.aws_s3_bucket.data.acl")
		assert.True(t, ok)
		assert.Equal(t, "public-read", acl.Value)
	})

	t.Run("Should recurse into nested blocks", func(t *testing.T) {
		file, err := Parse("main.tf", []byte(sampleHCL))
		assert.NoError(t, err)

		enabled, ok := findNode(file.Doc, "resource.aws_s3_bucket.data.versioning.enabled")
		assert.True(t, ok)
		assert.Equal(t, true, enabled.Value)
	})

	t.Run("Should report a parse error for malformed hcl", func(t *testing.T) {
		_, err := Parse("bad.tf", []byte(`resource "x" "y" {`))
		assert.Error(t, err)
	})
}
