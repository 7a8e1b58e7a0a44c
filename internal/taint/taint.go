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

// Package taint implements the interprocedural, path-sensitive source-to-sink tracker: seed,
// propagate, interprocedural, sink-check and budget, operating on an internal/ir.DataFlow graph.
package taint

import (
	"time"

	"github.com/riftscan/engine/internal/ir"
	"github.com/riftscan/engine/internal/rules"
)

// nodeState is the per-DFG-node taint state tracked during propagation.
type nodeState struct {
	tainted   bool
	sanitized bool
	origin    string
}

// Hit is one source-to-sink flow the engine confirmed.
type Hit struct {
	SourceNode int
	SinkNode   int
	Origin     string
}

// Budget bounds one taint walk: MaxSteps caps the number of DFG edges traversed: a proxy for
// max_taint_steps; Deadline is the wall-clock point at which the walk aborts.
type Budget struct {
	MaxSteps int
	Deadline time.Time
}

// Result is everything one Run call produced: confirmed hits plus any budget diagnostics.
type Result struct {
	Hits        []Hit
	Diagnostics []string
}

// Summary is a per-callsite interprocedural cache entry (L8 context sensitivity): once a
// callee's DataFlow has been walked for a given set of tainted parameter indices, the outcome
// is cached so repeated callsites with the same input signature skip re-walking the callee.
type Summary struct {
	ParamTaint  []bool
	ReturnTaint bool
	SinkReached bool
}

// Surface renders a DFG node's defining instruction as the text taint patterns match against.
type Surface func(ir.Value) string

// Callees resolves a callee function name to its DataFlow graph, for interprocedural
// propagation. Returns nil if the callee is unknown (external function, unresolved dynamic
// call) — propagation stops at the call boundary in that case.
type Callees func(name string) *ir.DataFlow

// Run walks df seeding from rule.Sources, propagating along df.Edges, and reports a Hit for
// every tainted, unsanitized node that also matches a sink pattern.
//
// callees and summaries may be nil for purely intraprocedural (L3) use; when non-nil, Call
// nodes whose target resolves via callees have the callee's DataFlow walked on its own, seeded
// from rule.Sources only (the call's argument taint is not passed into the callee's
// parameters); the Call node becomes tainted when that walk reports a hit. Each (callee,
// argument-taint signature) outcome is cached in summaries so repeated callsites are not
// re-walked.
func Run(df *ir.DataFlow, rule *rules.TaintRule, surface Surface, budget Budget, callees Callees, summaries map[string]*Summary) Result {
	r := &runner{
		df:        df,
		rule:      rule,
		surface:   surface,
		budget:    budget,
		callees:   callees,
		summaries: summaries,
		states:    make([]nodeState, len(df.Nodes)),
	}

	return r.run()
}

type runner struct {
	df        *ir.DataFlow
	rule      *rules.TaintRule
	surface   Surface
	budget    Budget
	callees   Callees
	summaries map[string]*Summary

	states []nodeState
	steps  int
	result Result
}

func (r *runner) run() Result {
	queue := r.seed()
	r.propagate(queue)
	r.mergeBranches()
	r.checkSinks()

	return r.result
}

// seed marks every DFG node whose surface form matches a source pattern.
func (r *runner) seed() []int {
	var queue []int

	for i, n := range r.df.Nodes {
		surf := r.surface(n.Value)

		for _, src := range r.rule.Sources {
			if src.Matches(surf) {
				r.states[i].tainted = true
				r.states[i].origin = "source"
				queue = append(queue, i)

				break
			}
		}
	}

	return queue
}

// incomingEdges groups df.Edges by destination node, needed both for BFS propagation and for
// branch-merge semantics.
func (r *runner) incomingEdges() map[int][]int {
	incoming := make(map[int][]int)
	for _, e := range r.df.Edges {
		incoming[e.To] = append(incoming[e.To], e.From)
	}

	return incoming
}

// propagate runs a BFS over df.Edges from the seeded nodes, marking sanitization, taint and
// reclassification as it goes, respecting the step/time budget.
func (r *runner) propagate(queue []int) {
	outgoing := make(map[int][]int)
	for _, e := range r.df.Edges {
		outgoing[e.From] = append(outgoing[e.From], e.To)
	}

	visited := make(map[int]bool, len(queue))
	for _, i := range queue {
		visited[i] = true
	}

	for len(queue) > 0 {
		if r.budgetExceeded() {
			r.result.Diagnostics = append(r.result.Diagnostics, "taint walk aborted: budget exceeded")
			return
		}

		cur := queue[0]
		queue = queue[1:]
		r.steps++

		r.propagateInterprocedural(cur)

		for _, next := range outgoing[cur] {
			surf := r.surface(r.df.Nodes[next].Value)

			if matchesAny(r.rule.Sanitizers, surf) {
				r.states[next].sanitized = true
			}

			if matchesAny(r.rule.Reclass, surf) {
				r.states[next].origin = "reclass"
			}

			if r.states[cur].tainted && !r.states[next].tainted {
				r.states[next].tainted = true
				if r.states[next].origin == "" {
					r.states[next].origin = r.states[cur].origin
				}
			}

			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
}

// propagateInterprocedural handles a Call node: when the callee's DataFlow is known, it is walked
// seeded from rule.Sources only (argument taint is not passed into its parameters), and a
// per-callsite Summary records whether that walk reaches a sink inside the callee; if it does,
// the Call node is marked tainted (k-CFA-lite: the summary key is the callee name plus the
// tainted-argument signature, not the full call stack, so k is effectively capped at 1).
func (r *runner) propagateInterprocedural(nodeIdx int) {
	call, ok := r.df.Nodes[nodeIdx].Value.(*ir.Call)
	if !ok || r.callees == nil || call.Function == nil {
		return
	}

	calleeName := call.Function.Name()

	calleeDF := r.callees(calleeName)
	if calleeDF == nil {
		return
	}

	sig := signature(r.states, r.df, call)
	key := calleeName + "|" + sig

	if r.summaries != nil {
		if cached, ok := r.summaries[key]; ok {
			if cached.ReturnTaint {
				r.states[nodeIdx].tainted = true
			}

			return
		}
	}

	sub := Run(calleeDF, r.rule, r.surface, Budget{MaxSteps: r.budget.MaxSteps, Deadline: r.budget.Deadline}, nil, nil)
	summary := &Summary{SinkReached: len(sub.Hits) > 0, ReturnTaint: len(sub.Hits) > 0}

	if r.summaries != nil {
		r.summaries[key] = summary
	}

	if summary.ReturnTaint {
		r.states[nodeIdx].tainted = true
	}
}

func signature(states []nodeState, df *ir.DataFlow, call *ir.Call) string {
	sig := make([]byte, 0, len(call.Args))

	for _, arg := range call.Args {
		tainted := false

		for i, n := range df.Nodes {
			if n.Value == arg && states[i].tainted {
				tainted = true
				break
			}
		}

		if tainted {
			sig = append(sig, '1')
		} else {
			sig = append(sig, '0')
		}
	}

	return string(sig)
}

// mergeBranches applies the branch-merge rule: at a node with more than one incoming edge,
// taint is present iff present on any incoming branch; sanitization is present iff present on
// every incoming branch. A variable sanitized in one branch and left tainted in another is
// therefore not considered sanitized after the merge.
func (r *runner) mergeBranches() {
	incoming := r.incomingEdges()

	for to, froms := range incoming {
		if len(froms) < 2 {
			continue
		}

		anyTaint := false
		allSanitized := true

		for _, from := range froms {
			if r.states[from].tainted {
				anyTaint = true
			}

			if !r.states[from].sanitized {
				allSanitized = false
			}
		}

		if anyTaint {
			r.states[to].tainted = true
		}

		r.states[to].sanitized = r.states[to].sanitized || allSanitized
	}
}

// checkSinks reports a Hit for every tainted, unsanitized node that matches a sink pattern.
func (r *runner) checkSinks() {
	for i, s := range r.states {
		if !s.tainted || s.sanitized {
			continue
		}

		surf := r.surface(r.df.Nodes[i].Value)

		for _, sink := range r.rule.Sinks {
			if sink.Matches(surf) {
				r.result.Hits = append(r.result.Hits, Hit{SinkNode: i, Origin: s.origin})
				break
			}
		}
	}
}

func (r *runner) budgetExceeded() bool {
	if r.budget.MaxSteps > 0 && r.steps >= r.budget.MaxSteps {
		return true
	}

	return !r.budget.Deadline.IsZero() && !time.Now().Before(r.budget.Deadline)
}

func matchesAny(patterns []rules.TaintPattern, surface string) bool {
	for _, p := range patterns {
		if p.Matches(surface) {
			return true
		}
	}

	return false
}
