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

package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	engine "github.com/riftscan/engine"
)

func sampleFindings() []engine.Finding {
	return []engine.Finding{
		{
			RuleID:      "hardcoded-secret",
			Severity:    engine.SeverityHigh,
			Description: "hardcoded secret detected",
			SourceLocation: engine.Location{
				Filename: "config.yaml",
				Line:     3,
				Column:   1,
			},
		},
	}
}

func TestWriteText(t *testing.T) {
	t.Run("Should render one line per finding with file:line:col", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, Write(&buf, Text, sampleFindings()))

		assert.Contains(t, buf.String(), "config.yaml:3:1")
		assert.Contains(t, buf.String(), "hardcoded-secret")
	})
}

func TestWriteJSON(t *testing.T) {
	t.Run("Should render a JSON array that round-trips the findings", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, Write(&buf, JSON, sampleFindings()))

		var got []engine.Finding
		assert.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, sampleFindings(), got)
	})
}
