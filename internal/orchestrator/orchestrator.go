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

// Package orchestrator is the engine's scheduler: it walks a project directory, parses each
// file, dispatches every applicable (file, rule) pair onto a work-stealing pool, and merges the
// results into one deterministically sorted finding list. It is the only scheduler in the module;
// every production entrypoint (cmd/riftscan) runs through Orchestrator.Run.
package orchestrator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/baseline"
	"github.com/riftscan/engine/internal/cache"
	"github.com/riftscan/engine/internal/config"
	"github.com/riftscan/engine/internal/errs"
	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/matchers"
	"github.com/riftscan/engine/internal/parsers"
	"github.com/riftscan/engine/internal/rules"
	"github.com/riftscan/engine/internal/wasmrt"
	"github.com/riftscan/engine/pool"
)

// MaxDefaultFileSize is the default_exclude cutoff: files larger than this are skipped unless
// the caller disables default exclusions.
const MaxDefaultFileSize = 5 * 1024 * 1024

var defaultExcludeDirs = []string{"node_modules", ".git"}

// Options controls one Run call beyond EngineConfig's scheduling tunables.
type Options struct {
	NoDefaultExclude bool
	ExcludeGlobs     []string
	SuppressComment  string // overrides baseline.IgnoreToken when non-empty
	MaxFileSizeBytes int64  // 0 means MaxDefaultFileSize
}

// Orchestrator ties a compiled RuleSet to the scheduling, caching and baseline machinery that
// turns it into findings for a directory tree.
type Orchestrator struct {
	Config   config.EngineConfig
	RuleSet  *rules.RuleSet
	Cache    *cache.Cache
	Baseline *baseline.Baseline
	WasmRT   *wasmrt.Runtime
}

// New wires a RuleSet, optional disk cache and optional baseline into a ready-to-run
// Orchestrator. cfg's CachePath/BaselinePath are opened if non-empty; rt may be nil, in which
// case RegoWasm rules are skipped with a diagnostic rather than failing the run.
func New(cfg config.EngineConfig, ruleSet *rules.RuleSet, rt *wasmrt.Runtime) (*Orchestrator, error) {
	o := &Orchestrator{Config: cfg, RuleSet: ruleSet, WasmRT: rt}

	if cfg.CachePath != "" {
		c, err := cache.Open(cfg.CachePath)
		if err != nil {
			logrus.WithError(err).Warn("cache unusable, scanning uncached")
		}

		o.Cache = c
	}

	if cfg.BaselinePath != "" {
		b, err := baseline.Load(cfg.BaselinePath)
		if err != nil {
			return nil, fmt.Errorf("load baseline: %w", err)
		}

		o.Baseline = b
	}

	return o, nil
}

// Run walks root, parses every file whose detected language a rule applies to, evaluates every
// applicable rule against it on a pool of Config.Parallelism workers, and returns the merged,
// deterministically sorted, baseline-filtered finding list.
func (o *Orchestrator) Run(ctx context.Context, root string, opts Options) ([]engine.Finding, error) {
	paths, err := o.discover(root, opts)
	if err != nil {
		return nil, &errs.IoFatal{Details: "walking " + root, Cause: err}
	}

	rulesHash := o.RuleSet.Hash()

	workerPool, err := pool.NewPool(o.Config.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("start worker pool: %w", err)
	}
	defer workerPool.Release()

	var (
		mu       sync.Mutex
		findings []engine.Finding
	)

	group, groupCtx := errgroup.WithContext(ctx)

	for _, path := range paths {
		pathCopy := path

		group.Go(func() error {
			done := make(chan struct{})

			submitErr := workerPool.Submit(func() {
				defer close(done)

				fileFindings, fileErr := o.runFile(groupCtx, pathCopy, rulesHash, opts)
				if fileErr != nil {
					logrus.WithError(fileErr).WithField("file", pathCopy).Warn("skipping file")
					return
				}

				mu.Lock()
				findings = append(findings, fileFindings...)
				mu.Unlock()
			})
			if submitErr != nil {
				return fmt.Errorf("submit %s: %w", pathCopy, submitErr)
			}

			<-done

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sortFindings(findings)

	if o.Baseline != nil {
		findings = o.Baseline.Filter(findings)
	}

	if o.Cache != nil {
		if err := o.Cache.Flush(); err != nil {
			logrus.WithError(err).Warn("cache flush failed")
		}
	}

	return findings, nil
}

// runFile parses one file and evaluates every applicable rule against it, honoring
// PerFileTimeoutMs for the whole file and consulting/populating the cache.
func (o *Orchestrator) runFile(ctx context.Context, path, rulesHash string, opts Options) ([]engine.Finding, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	contentHash := cache.ContentHash(content)

	if o.Cache != nil {
		if cached, ok := o.Cache.Lookup(contentHash, rulesHash); ok {
			return cached, nil
		}
	}

	fileCtx, cancel := context.WithTimeout(ctx, time.Duration(o.Config.PerFileTimeoutMs)*time.Millisecond)
	defer cancel()

	file, parseErr := parsers.Parse(path, content)
	if file == nil {
		return nil, parseErr
	}

	applicable := make([]*rules.CompiledRule, 0, len(o.RuleSet.Rules))
	for _, r := range o.RuleSet.Rules {
		if r.AppliesTo(file.Language) {
			applicable = append(applicable, r)
		}
	}

	var findings []engine.Finding

	for _, r := range applicable {
		if fileCtx.Err() != nil {
			break
		}

		ruleFindings := o.runRule(fileCtx, r, file)
		findings = append(findings, ruleFindings...)
	}

	ignoreToken := opts.SuppressComment
	if ignoreToken == "" {
		ignoreToken = baseline.IgnoreToken
	}

	findings = suppressWithToken(findings, content, ignoreToken)

	if o.Cache != nil {
		o.Cache.Store(contentHash, rulesHash, findings)
	}

	return findings, nil
}

// runRule evaluates one rule against file, bounded by PerRuleTimeoutMs and MaxTaintSteps, and
// recovers a parser/matcher panic into a diagnostic rather than losing the whole file's findings
// (internal/ir.NewFile panics on constructs it doesn't yet lower, e.g. top-level expressions).
func (o *Orchestrator) runRule(ctx context.Context, r *rules.CompiledRule, file *ir.FileIR) (findings []engine.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithFields(logrus.Fields{"rule": r.ID, "file": file.Path}).Warnf("rule evaluation panicked: %v", rec)
		}
	}()

	ruleCtx, cancel := context.WithTimeout(ctx, time.Duration(o.Config.PerRuleTimeoutMs)*time.Millisecond)
	defer cancel()

	budgets := matchers.Budgets{
		MaxTaintSteps:    o.Config.MaxTaintSteps,
		PerRuleTimeoutMs: o.Config.PerRuleTimeoutMs,
		Wasm:             wasmrt.DefaultBudget,
	}

	result, err := matchers.Eval(ruleCtx, o.WasmRT, r, file, budgets)
	if err != nil {
		logrus.WithFields(logrus.Fields{"rule": r.ID, "file": file.Path}).WithError(err).Debug("rule evaluation error")
		return nil
	}

	return result
}

func suppressWithToken(findings []engine.Finding, content []byte, token string) []engine.Finding {
	if token == "" {
		return findings
	}

	return baseline.SuppressInlineWithToken(findings, content, token)
}

// discover walks root and returns every regular file path not excluded by size, default
// excludes or opts.ExcludeGlobs, in a stable (filepath.WalkDir) order.
func (o *Orchestrator) discover(root string, opts Options) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if !opts.NoDefaultExclude && isDefaultExcludedDir(entry.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if excludedByGlob(path, root, opts.ExcludeGlobs) {
			return nil
		}

		if !opts.NoDefaultExclude {
			limit := opts.MaxFileSizeBytes
			if limit <= 0 {
				limit = MaxDefaultFileSize
			}

			info, infoErr := entry.Info()
			if infoErr == nil && info.Size() > limit {
				return nil
			}
		}

		paths = append(paths, path)

		return nil
	})

	return paths, err
}

func isDefaultExcludedDir(name string) bool {
	for _, d := range defaultExcludeDirs {
		if name == d {
			return true
		}
	}

	return false
}

func excludedByGlob(path, root string, globs []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	rel = filepath.ToSlash(rel)

	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}

	return false
}

// sortFindings orders findings by (file, line, column, rule_id) so repeated runs over unchanged
// inputs produce byte-identical sorted lists.
func sortFindings(findings []engine.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]

		if a.SourceLocation.Filename != b.SourceLocation.Filename {
			return a.SourceLocation.Filename < b.SourceLocation.Filename
		}

		if a.SourceLocation.Line != b.SourceLocation.Line {
			return a.SourceLocation.Line < b.SourceLocation.Line
		}

		if a.SourceLocation.Column != b.SourceLocation.Column {
			return a.SourceLocation.Column < b.SourceLocation.Column
		}

		return a.RuleID < b.RuleID
	})
}
