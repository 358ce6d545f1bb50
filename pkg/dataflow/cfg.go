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

import "github.com/slsa-verify/provenance-analyzer/pkg/value"

// successor is either a downstream Node or an ExitType of the enclosing
// ControlFlowGraphNode (the edge leaves the subgraph entirely).
type successor struct {
	node Node
	exit *ExitType
}

// ControlFlowGraphNode owns an entry node and a successor-edge map and
// iterates its contained nodes to a fixpoint (§4.B "Control-flow analysis").
type ControlFlowGraphNode struct {
	baseNode
	Entry Node
	edges map[edgeKey][]successor

	worklist []Node
	queued   map[Node]bool
	visited  map[Node]bool
}

type edgeKey struct {
	node Node
	exit ExitType
}

// NewControlFlowGraphNode constructs an (initially edge-less) CFG node
// rooted at entry.
func NewControlFlowGraphNode(entry Node, filter TransferFilter) *ControlFlowGraphNode {
	return &ControlFlowGraphNode{
		baseNode: newBaseNode(filter),
		Entry:    entry,
		edges:    map[edgeKey][]successor{},
		queued:   map[Node]bool{},
		visited:  map[Node]bool{},
	}
}

// AddEdge records that leaving `from` via `exit` proceeds to `to` (a Node).
func (g *ControlFlowGraphNode) AddEdge(from Node, exit ExitType, to Node) {
	k := edgeKey{from, exit}
	g.edges[k] = append(g.edges[k], successor{node: to})
}

// AddExitEdge records that leaving `from` via `exit` propagates out of g
// itself via outerExit.
func (g *ControlFlowGraphNode) AddExitEdge(from Node, exit ExitType, outerExit ExitType) {
	k := edgeKey{from, exit}
	oe := outerExit
	g.edges[k] = append(g.edges[k], successor{exit: &oe})
}

func (g *ControlFlowGraphNode) successors(n Node, exit ExitType) []successor {
	return g.edges[edgeKey{n, exit}]
}

func (g *ControlFlowGraphNode) enqueue(n Node) {
	if !g.queued[n] {
		g.queued[n] = true
		g.worklist = append(g.worklist, n)
	}
}

// Analyse runs the worklist fixpoint described in §4.B:
//  1. transfer before_state into the entry node;
//  2. repeatedly pop a node, analyse it, and propagate its exit states to
//     successors (enqueuing any successor whose before-state changed, or
//     that has never been processed);
//  3. transfer states leaving the subgraph entirely into g's own exit
//     states.
//
// Termination (§4.B point 4): the lattice has finite height per run because
// only finitely many (location, value) pairs are ever introduced by a fixed
// set of nodes, and Join is monotonic, so the worklist empties in finitely
// many iterations.
func (g *ControlFlowGraphNode) Analyse() (bool, error) {
	anyChanged := false
	if TransferState(g.before, g.Entry.BeforeState(), TransferAll) || !g.visited[g.Entry] {
		g.enqueue(g.Entry)
	}
	for len(g.worklist) > 0 {
		n := g.worklist[0]
		g.worklist = g.worklist[1:]
		delete(g.queued, n)
		g.visited[n] = true
		changed, err := n.Analyse()
		if err != nil {
			return anyChanged, err
		}
		if changed {
			anyChanged = true
		}
		for exit, st := range n.ExitStates() {
			for _, succ := range g.successors(n, exit) {
				switch {
				case succ.node != nil:
					changedSucc := TransferState(st, succ.node.BeforeState(), n.ExitFilter())
					if changedSucc || !g.visited[succ.node] {
						g.enqueue(succ.node)
					}
				case succ.exit != nil:
					if g.mergeExit(*succ.exit, applyFilter(st, n.ExitFilter())) {
						anyChanged = true
					}
				}
			}
		}
	}
	return anyChanged, nil
}

// applyFilter returns a copy of st containing only the locations filter
// admits, so state leaving the subgraph via an outer exit is filtered the
// same way state flowing to an in-graph successor would be.
func applyFilter(st *value.State, filter TransferFilter) *value.State {
	out := value.NewState()
	TransferState(st, out, filter)
	return out
}

var _ Node = (*ControlFlowGraphNode)(nil)

// InterpretationKey identifies one concrete alternative meaning of an
// InterpretationNode, computed from the node's before-state.
type InterpretationKey string

// InterpretationNode lazily materializes alternative child nodes keyed by an
// InterpretationKey and joins their exit states (§4.B "Interpretation
// analysis"). This models constructs whose concrete semantics depend on
// data only known at analysis time (e.g. which branch of a templated Bash
// command expansion actually applies).
type InterpretationNode struct {
	baseNode
	Identify func(before *value.State) map[InterpretationKey]Node

	children map[InterpretationKey]Node
}

// NewInterpretationNode constructs an InterpretationNode whose alternatives
// are produced by identify.
func NewInterpretationNode(identify func(*value.State) map[InterpretationKey]Node, filter TransferFilter) *InterpretationNode {
	return &InterpretationNode{
		baseNode: newBaseNode(filter),
		Identify: identify,
		children: map[InterpretationKey]Node{},
	}
}

// Analyse calls Identify(before_state), adds any newly-discovered
// alternative, transfers before_state into every alternative, analyses each,
// and joins their exit states into n's own. The node reports "changed" if
// any new key appeared, even absent further state changes, so callers above
// re-visit it once an alternative becomes available.
func (n *InterpretationNode) Analyse() (bool, error) {
	anyChanged := false
	alternatives := n.Identify(n.before)
	for key, child := range alternatives {
		if _, ok := n.children[key]; !ok {
			n.children[key] = child
			anyChanged = true
		}
	}
	for _, child := range n.children {
		if TransferState(n.before, child.BeforeState(), child.ExitFilter()) {
			anyChanged = true
		}
		changed, err := child.Analyse()
		if err != nil {
			return anyChanged, err
		}
		if changed {
			anyChanged = true
		}
		for exit, st := range child.ExitStates() {
			if n.mergeExit(exit, applyFilter(st, child.ExitFilter())) {
				anyChanged = true
			}
		}
	}
	return anyChanged, nil
}

// Children returns the alternative nodes materialized so far, keyed by the
// InterpretationKey Identify assigned them. Used by callers that need to
// reach into a lazily-expanded node (e.g. the build-tool detector walking
// down into a RawBashScriptNode's BashSingleCommandNode alternatives),
// since those nodes have no place in the forest's static Tree structure.
func (n *InterpretationNode) Children() map[InterpretationKey]Node {
	return n.children
}

var _ Node = (*InterpretationNode)(nil)
