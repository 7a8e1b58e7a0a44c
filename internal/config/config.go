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

// Package config loads EngineConfig from defaults, an optional YAML file and CLI flags, in that
// priority order (lowest to highest), the same cascading pattern koanf is built for: each layer
// is merged over the last with koanf.Load, so a flag always wins over a file value, which always
// wins over a built-in default.
package config

import (
	"os"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// yamlParser adapts gopkg.in/yaml.v3 to koanf's Parser interface; koanf ships a dedicated
// parsers/yaml subpackage built on the same library, but pulling in a second module just for the
// two-method Parser interface isn't worth it when yaml.v3 (already a dependency for rule-file
// loading, see internal/rules/load.go) implements the interface's two methods directly.
type yamlParser struct{}

func (yamlParser) Unmarshal(data []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func (yamlParser) Marshal(data map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(data)
}

// EngineConfig is the orchestrator's full set of tunables, §5 of the scheduling contract.
type EngineConfig struct {
	Parallelism      int    `koanf:"parallelism"`
	PerRuleTimeoutMs int    `koanf:"per_rule_timeout_ms"`
	PerFileTimeoutMs int    `koanf:"per_file_timeout_ms"`
	CachePath        string `koanf:"cache_path"`
	MaxTaintSteps    int    `koanf:"max_taint_steps"`
	RulesDir         string `koanf:"rules_dir"`
	BaselinePath     string `koanf:"baseline_path"`
}

// Defaults returns the built-in configuration layer, the bottom of the priority stack.
func Defaults() EngineConfig {
	return EngineConfig{
		Parallelism:      10,
		PerRuleTimeoutMs: 5000,
		PerFileTimeoutMs: 30000,
		CachePath:        ".riftscan-cache.json",
		MaxTaintSteps:    10000,
		RulesDir:         "rules",
		BaselinePath:     "",
	}
}

// Load builds an EngineConfig from defaults, optionally overridden by a YAML file at path (when
// path is non-empty and exists), and finally by overrides (CLI-flag values the caller has
// already parsed — koanf.Load over a confmap.Provider is the same merge step file and env
// providers use, just sourced from an in-memory map instead of disk).
func Load(path string, overrides map[string]interface{}) (EngineConfig, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(confmap.Provider(structToMap(defaults), "."), nil); err != nil {
		return EngineConfig{}, err
	}

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := k.Load(file.Provider(path), yamlParser{}); err != nil {
				return EngineConfig{}, err
			}
		} else if !os.IsNotExist(statErr) {
			return EngineConfig{}, statErr
		}
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return EngineConfig{}, err
		}
	}

	var cfg EngineConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return EngineConfig{}, err
	}

	return cfg, nil
}

func structToMap(cfg EngineConfig) map[string]interface{} {
	return map[string]interface{}{
		"parallelism":         cfg.Parallelism,
		"per_rule_timeout_ms": cfg.PerRuleTimeoutMs,
		"per_file_timeout_ms": cfg.PerFileTimeoutMs,
		"cache_path":          cfg.CachePath,
		"max_taint_steps":     cfg.MaxTaintSteps,
		"rules_dir":           cfg.RulesDir,
		"baseline_path":       cfg.BaselinePath,
	}
}
