// Copyright 2024 The OSS Rebuild Authors
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

package dataflow

// CallGraphError reports a malformed forest or an unknown variant
// encountered while visiting a Value/LocationSpecifier (§4.B "Failure", §9
// "Dynamic dispatch over value variants"). It aborts only the surrounding
// CI-adapter call, never corrupting partial results elsewhere.
type CallGraphError struct {
	Op  string
	Msg string
}

func (e *CallGraphError) Error() string { return "call graph error in " + e.Op + ": " + e.Msg }

// NewCallGraphError constructs a CallGraphError for operation op.
func NewCallGraphError(op, msg string) *CallGraphError {
	return &CallGraphError{Op: op, Msg: msg}
}

// Tree associates a Node with its children, used to build NodeForest's
// parent map without requiring nodes to carry raw back-pointers (§9).
type Tree struct {
	Node     Node
	Children []*Tree
}

// NodeForest is a list of root trees plus a precomputed parent map, so
// upward walks (e.g. "find the enclosing workflow/job/step") never follow a
// raw back-pointer, only the forest's own index.
type NodeForest struct {
	Roots  []*Tree
	parent map[Node]*Tree
}

// NewNodeForest builds a NodeForest from root trees, precomputing the
// parent map by walking every tree once.
func NewNodeForest(roots []*Tree) *NodeForest {
	f := &NodeForest{Roots: roots, parent: map[Node]*Tree{}}
	for _, r := range roots {
		f.index(nil, r)
	}
	return f
}

func (f *NodeForest) index(parent *Tree, t *Tree) {
	if t == nil {
		return
	}
	if parent != nil {
		f.parent[t.Node] = parent
	}
	for _, c := range t.Children {
		f.index(t, c)
	}
}

// Parent returns the Tree enclosing n's Tree, or nil if n is a root (or
// unknown to f).
func (f *NodeForest) Parent(n Node) *Tree {
	return f.parent[n]
}

// Walk visits every Tree in the forest in pre-order, depth first.
func (f *NodeForest) Walk(visit func(*Tree)) {
	var walk func(*Tree)
	walk = func(t *Tree) {
		visit(t)
		for _, c := range t.Children {
			walk(c)
		}
	}
	for _, r := range f.Roots {
		walk(r)
	}
}

// BFS visits every Tree in the forest in breadth-first order, matching the
// traversal order §4.D specifies for build-tool command detection.
func (f *NodeForest) BFS(visit func(*Tree)) {
	queue := append([]*Tree{}, f.Roots...)
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		visit(t)
		queue = append(queue, t.Children...)
	}
}

// Analyse runs Analyse to a fixpoint on every root, returning after no root
// reports further change. Roots are independent subgraphs so this loop
// itself need not interleave across roots for correctness (each root's own
// fixpoint is already complete when it stops changing); it only re-checks
// until a full pass yields no change, which also tolerates roots whose
// Analyse is cheap to call repeatedly once stable.
func (f *NodeForest) Analyse() error {
	for {
		anyChanged := false
		for _, r := range f.Roots {
			changed, err := r.Node.Analyse()
			if err != nil {
				return err
			}
			if changed {
				anyChanged = true
			}
		}
		if !anyChanged {
			return nil
		}
	}
}
