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

// Package errs declares the engine's closed error taxonomy. Every error here carries enough
// context (file, rule id, plugin name) for the orchestrator to decide whether to degrade in
// place and keep scanning, or halt the run.
package errs

import "fmt"

// ParseError reports a file that could not be fully parsed. Non-fatal: the file is analysed
// with whatever partial IR the parser managed to build.
type ParseError struct {
	File    string
	Details string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.File, e.Details)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// RuleCompileError reports a malformed rule. Non-fatal: the rule is skipped and compilation of
// the remaining rules continues.
type RuleCompileError struct {
	RuleID  string
	Details string
	Cause   error
}

func (e *RuleCompileError) Error() string {
	return fmt.Sprintf("compile rule %s: %s", e.RuleID, e.Details)
}

func (e *RuleCompileError) Unwrap() error { return e.Cause }

// RuleEvalTimeout reports a rule evaluation that exceeded its per-rule budget on a file.
// Non-fatal: recorded in metrics, the rule is skipped for that file.
type RuleEvalTimeout struct {
	RuleID string
	File   string
}

func (e *RuleEvalTimeout) Error() string {
	return fmt.Sprintf("rule %s timed out on %s", e.RuleID, e.File)
}

// WasmTrap reports a RegoWasm matcher that trapped, ran out of memory, or otherwise failed
// inside the sandbox. Non-fatal: the rule is skipped for that file.
type WasmTrap struct {
	RuleID string
	File   string
	Cause  error
}

func (e *WasmTrap) Error() string {
	return fmt.Sprintf("wasm trap in rule %s on %s: %v", e.RuleID, e.File, e.Cause)
}

func (e *WasmTrap) Unwrap() error { return e.Cause }

// PluginProtocol reports a plugin that violated the JSON-RPC contract. The plugin is marked
// unhealthy and skipped for the remainder of the scan.
type PluginProtocol struct {
	Plugin  string
	Details string
	Cause   error
}

func (e *PluginProtocol) Error() string {
	return fmt.Sprintf("plugin %s protocol error: %s", e.Plugin, e.Details)
}

func (e *PluginProtocol) Unwrap() error { return e.Cause }

// CacheCorrupt reports a cache file that failed to decode. Non-fatal: the cache is ignored and
// rebuilt from scratch for this run.
type CacheCorrupt struct {
	Path  string
	Cause error
}

func (e *CacheCorrupt) Error() string {
	return fmt.Sprintf("cache %s corrupt: %v", e.Path, e.Cause)
}

func (e *CacheCorrupt) Unwrap() error { return e.Cause }

// IoFatal reports an unrecoverable I/O failure (workspace root unreadable, cache directory not
// writable, …). Fatal: terminates the run with exit code 2.
type IoFatal struct {
	Details string
	Cause   error
}

func (e *IoFatal) Error() string {
	return fmt.Sprintf("fatal io error: %s", e.Details)
}

func (e *IoFatal) Unwrap() error { return e.Cause }
