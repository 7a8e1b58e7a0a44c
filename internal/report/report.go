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

// Package report renders a finding list as text, JSON or SARIF.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/sarif"

	engine "github.com/riftscan/engine"
)

// Format is one of the output formats §6 names.
type Format string

const (
	Text  Format = "text"
	JSON  Format = "json"
	SARIF Format = "sarif"
)

// Write renders findings in format to w.
func Write(w io.Writer, format Format, findings []engine.Finding) error {
	switch format {
	case JSON:
		return writeJSON(w, findings)
	case SARIF:
		return writeSARIF(w, findings)
	default:
		return writeText(w, findings)
	}
}

func writeText(w io.Writer, findings []engine.Finding) error {
	for _, f := range findings {
		if _, err := fmt.Fprintf(w, "%s:%d:%d: [%s] %s (%s)\n",
			f.SourceLocation.Filename, f.SourceLocation.Line, f.SourceLocation.Column,
			f.Severity, f.Description, f.RuleID); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(w io.Writer, findings []engine.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(findings)
}

// writeSARIF renders findings as a SARIF 2.1.0 log with one rule definition per distinct
// RuleID, reusing owenrumney/go-sarif's result/region builders rather than hand-assembling the
// SARIF JSON schema.
func writeSARIF(w io.Writer, findings []engine.Finding) error {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("new sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("riftscan", "https://github.com/riftscan/engine")

	seenRules := map[string]bool{}

	for _, f := range findings {
		if !seenRules[f.RuleID] {
			run.AddRule(f.RuleID).
				WithDescription(f.Description).
				WithHelpURI("https://github.com/riftscan/engine/rules/" + f.RuleID)
			seenRules[f.RuleID] = true
		}

		result := run.CreateResultForRule(f.RuleID).
			WithLevel(sarifLevel(f.Severity)).
			WithMessage(sarif.NewTextMessage(f.Description))

		result.AddLocation(
			sarif.NewLocationWithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewSimpleArtifactLocation(f.SourceLocation.Filename)).
					WithRegion(sarif.NewSimpleRegion(f.SourceLocation.Line, f.SourceLocation.Line).
						WithStartColumn(f.SourceLocation.Column)),
			),
		)
	}

	sarifReport.AddRun(run)

	return sarifReport.PrettyWrite(w)
}

func sarifLevel(sev engine.Severity) string {
	switch sev {
	case engine.SeverityCritical, engine.SeverityHigh:
		return "error"
	case engine.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
