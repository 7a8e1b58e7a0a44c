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

package ir

// DFGNode is a single value-producing point in a function's data-flow graph: one node per
// instruction that defines a Value (Var, Call, BinOp, Parameter). Index is the position of
// the node in DataFlow.Nodes and is what DFGEdge.From/To refer to.
type DFGNode struct {
	Index       int    // Position of this node in DataFlow.Nodes.
	Value       Value  // The IR value this node represents.
	BranchID    int    // Basic block index the defining instruction lives in.
	Sanitized   bool   // Set by taint analysis once a sanitizer is known to cover this node.
	OriginLabel string // Human-readable origin, e.g. "param:req" or "call:os.Getenv".
}

// DFGEdge is a directed def-use edge: a value produced at From is consumed as an operand at To.
type DFGEdge struct {
	From int
	To   int
}

// CallSite records one call expression's location within a function, used by the call graph
// to resolve interprocedural taint propagation back to an argument position.
type CallSite struct {
	Caller   string // Name of the function containing the call.
	Callee   string // Name of the function being called.
	BlockIdx int    // Basic block the call appears in.
}

// DataFlow is the data-flow graph of a single Function: every value-producing instruction as a
// node, and a def-use edge for every operand reference.
type DataFlow struct {
	Nodes []DFGNode
	Edges []DFGEdge

	valueIndex map[Value]int
}

// CallGraph is the whole-file call graph: for every function, the names of functions it calls,
// and the call sites at which each call happens.
type CallGraph struct {
	Edges     map[string][]string
	CallSites map[string][]CallSite
}

// BuildDataFlow walks fn's basic blocks in order and constructs its data-flow graph. Every
// instruction that defines a Value becomes a node; operand values already seen (parameters,
// earlier instructions) gain a def-use edge into the instruction that consumes them.
func BuildDataFlow(fn *Function) *DataFlow {
	df := &DataFlow{valueIndex: make(map[Value]int)}

	for _, p := range fn.Signature.Params {
		df.addNode(p, 0, "param:"+p.Name())
	}

	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			df.visitInstr(blk.Index, instr)
		}
	}

	return df
}

func (df *DataFlow) visitInstr(blockIdx int, instr Instruction) {
	switch v := instr.(type) {
	case *Var:
		idx := df.addNode(v, blockIdx, "")
		df.addEdgeFromOperand(v.Value, idx)
	case *Call:
		idx := df.addNode(v, blockIdx, originForCall(v))
		for _, arg := range v.Args {
			df.addEdgeFromOperand(arg, idx)
		}
	case *BinOp:
		idx := df.addNode(v, blockIdx, "")
		df.addEdgeFromOperand(v.Left, idx)
		df.addEdgeFromOperand(v.Right, idx)
	case *Return:
		for _, res := range v.Results {
			df.addEdgeFromOperand(res, -1)
		}
	}
}

func originForCall(c *Call) string {
	if c.Function == nil {
		return ""
	}

	return "call:" + c.Function.Name()
}

// addNode registers value as a data-flow node if it isn't already one, returning its index.
func (df *DataFlow) addNode(value Value, branchID int, origin string) int {
	if idx, ok := df.valueIndex[value]; ok {
		return idx
	}

	idx := len(df.Nodes)
	df.Nodes = append(df.Nodes, DFGNode{
		Index:       idx,
		Value:       value,
		BranchID:    branchID,
		OriginLabel: origin,
	})
	df.valueIndex[value] = idx

	return idx
}

// addEdgeFromOperand records a def-use edge from operand (if it is already a known node) to
// the node at toIdx. A toIdx of -1 means "function exit" (a Return operand) and is recorded as
// a self-terminating edge pointing to the operand's own node, so taint propagation can
// recognize values that flow out of the function.
func (df *DataFlow) addEdgeFromOperand(operand Value, toIdx int) {
	fromIdx, ok := df.valueIndex[operand]
	if !ok {
		return
	}

	if toIdx < 0 {
		toIdx = fromIdx
	}

	df.Edges = append(df.Edges, DFGEdge{From: fromIdx, To: toIdx})
}

// BuildCallGraph scans every function member of f and records its call sites.
func BuildCallGraph(f *File) *CallGraph {
	cg := &CallGraph{
		Edges:     make(map[string][]string),
		CallSites: make(map[string][]CallSite),
	}

	for _, member := range f.Members {
		fn, ok := member.(*Function)
		if !ok {
			continue
		}

		cg.visitFunction(fn)
	}

	return cg
}

func (cg *CallGraph) visitFunction(fn *Function) {
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			call, ok := instr.(*Call)
			if !ok || call.Function == nil {
				continue
			}

			callee := call.Function.Name()
			cg.Edges[fn.name] = append(cg.Edges[fn.name], callee)
			cg.CallSites[fn.name] = append(cg.CallSites[fn.name], CallSite{
				Caller:   fn.name,
				Callee:   callee,
				BlockIdx: blk.Index,
			})
		}
	}
}
