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

package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/config"
	"github.com/riftscan/engine/internal/orchestrator"
	"github.com/riftscan/engine/internal/report"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/internal/wasmrt"
)

var (
	rulesDir         string
	format           string
	failOn           string
	baselinePath     string
	suppressComment  string
	metricsPath      string
	noDefaultExclude bool
	maxFileSizeBytes int64
	pluginDirs       []string
	pluginOpts       []string
	configPath       string
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a directory for vulnerabilities",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&rulesDir, "rules", "rules", "directory of rule files")
	scanCmd.Flags().StringVar(&format, "format", "text", "output format: text|json|sarif")
	scanCmd.Flags().StringVar(&failOn, "fail-on", "", "minimum severity (low|medium|high) that causes exit code 1")
	scanCmd.Flags().StringVar(&baselinePath, "baseline", "", "baseline file of accepted finding ids")
	scanCmd.Flags().StringVar(&suppressComment, "suppress-comment", "", "inline suppression comment token")
	scanCmd.Flags().StringVar(&metricsPath, "metrics", "", "path to write JSON metrics, or - for stderr")
	scanCmd.Flags().BoolVar(&noDefaultExclude, "no-default-exclude", false, "disable default node_modules/.git/oversize exclusions")
	scanCmd.Flags().Int64Var(&maxFileSizeBytes, "max-file-size", orchestrator.MaxDefaultFileSize, "maximum file size in bytes")
	scanCmd.Flags().StringArrayVar(&pluginDirs, "plugin", nil, "plugin executable path (repeatable)")
	scanCmd.Flags().StringArrayVar(&pluginOpts, "plugin-opt", nil, "plugin option name.key=value (repeatable)")
	scanCmd.Flags().StringVar(&configPath, "config", "", "optional YAML EngineConfig file, overridden by flags above")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := config.Load(configPath, map[string]interface{}{
		"rules_dir":     rulesDir,
		"baseline_path": baselinePath,
	})
	if err != nil {
		return fatalf("load config: %w", err)
	}

	ruleSet, compileErrs := rules.Load(cfg.RulesDir)
	for _, e := range compileErrs {
		cmd.PrintErrln(e)
	}

	if len(ruleSet.Rules) == 0 {
		return fatalf("no rules loaded from %s", cfg.RulesDir)
	}

	ctx := context.Background()

	rt, err := wasmrt.New(ctx)
	if err != nil {
		return fatalf("start wasm runtime: %w", err)
	}
	defer rt.Close()

	orch, err := orchestrator.New(cfg, ruleSet, rt)
	if err != nil {
		return fatalf("build orchestrator: %w", err)
	}

	findings, err := orch.Run(ctx, target, orchestrator.Options{
		NoDefaultExclude: noDefaultExclude,
		SuppressComment:  suppressComment,
		MaxFileSizeBytes: maxFileSizeBytes,
	})
	if err != nil {
		return fatalf("scan failed: %w", err)
	}

	if err := report.Write(cmd.OutOrStdout(), report.Format(format), findings); err != nil {
		return fatalf("write report: %w", err)
	}

	if metricsPath != "" {
		if err := writeMetrics(metricsPath, findings); err != nil {
			return fatalf("write metrics: %w", err)
		}
	}

	if crossesFailOn(findings, failOn) {
		exitWithCode(ExitFindings)
	}

	return nil
}

func crossesFailOn(findings []engine.Finding, failOn string) bool {
	if failOn == "" {
		return false
	}

	threshold := severityRank(engine.Severity(strings.ToUpper(failOn)))

	for _, f := range findings {
		if severityRank(f.Severity) >= threshold {
			return true
		}
	}

	return false
}

func severityRank(sev engine.Severity) int {
	switch sev {
	case engine.SeverityCritical:
		return 4
	case engine.SeverityHigh:
		return 3
	case engine.SeverityMedium:
		return 2
	case engine.SeverityLow:
		return 1
	default:
		return 0
	}
}

type metrics struct {
	FilesScanned int `json:"-"`
	FindingCount int `json:"finding_count"`
}

func writeMetrics(path string, findings []engine.Finding) error {
	m := metrics{FindingCount: len(findings)}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if path == "-" {
		_, err := os.Stderr.Write(append(data, '\n'))
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
