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

// ExitType is a tagged variant identifying how a node's analysis can exit.
// DefaultExit is the ordinary (fall-through) exit.
type ExitType struct {
	Name string
}

// DefaultExit is the ordinary exit every node supports.
var DefaultExit = ExitType{Name: "default"}

// Node is the common interface over StatementNode, ControlFlowGraphNode and
// InterpretationNode (§3 "Node kinds"). Analyse runs one step of the node's
// local analysis given its current BeforeState and returns whether anything
// about its exit states changed.
type Node interface {
	// BeforeState returns the state the node begins analysis from.
	BeforeState() *value.State
	// SetBeforeState is used by the surrounding control-flow/interpretation
	// machinery to transfer predecessor state in.
	SetBeforeState(*value.State)
	// Analyse runs one iteration of this node's analysis and reports
	// whether its externally-visible exit states changed.
	Analyse() (bool, error)
	// ExitStates returns the node's current per-ExitType exit states.
	ExitStates() map[ExitType]*value.State
	// ExitFilter is applied to state flowing out of this node into a
	// successor, e.g. to erase scopes the node owns (§4.B).
	ExitFilter() TransferFilter
}

// baseNode provides the BeforeState/ExitStates bookkeeping shared by all
// three node kinds, matching the "owned tree" structure of §9: a node never
// reaches into ancestors via a raw back-pointer.
type baseNode struct {
	before      *value.State
	exitStates  map[ExitType]*value.State
	exitFilter  TransferFilter
	everVisited bool
}

func newBaseNode(filter TransferFilter) baseNode {
	return baseNode{
		before:     value.NewState(),
		exitStates: map[ExitType]*value.State{},
		exitFilter: filter,
	}
}

func (b *baseNode) BeforeState() *value.State     { return b.before }
func (b *baseNode) SetBeforeState(s *value.State) { b.before = s }
func (b *baseNode) ExitStates() map[ExitType]*value.State {
	return b.exitStates
}
func (b *baseNode) ExitFilter() TransferFilter { return b.exitFilter }

// mergeExit merges newState into b's recorded state for exit, stamping
// newly-copied facts with copied=false since they were computed (not
// transferred) by this node, per §4.B step 2 of statement analysis.
func (b *baseNode) mergeExit(exit ExitType, newState *value.State) bool {
	existing, ok := b.exitStates[exit]
	if !ok {
		existing = value.NewState()
		b.exitStates[exit] = existing
	}
	changed := false
	for _, loc := range newState.Locations() {
		for _, ve := range newState.Values(loc) {
			if existing.Has(loc, ve.Value) {
				continue
			}
			label := value.DebugLabel{Seq: value.NextDebugSeq(), Copied: false}
			if existing.Insert(loc, ve.Value, label) {
				changed = true
			}
		}
	}
	return changed
}

// StatementNode is a leaf node whose effect is a pure function of its
// before-state: ApplyEffects computes the set of resulting states per
// ExitType.
type StatementNode struct {
	baseNode
	ApplyEffects func(before *value.State) map[ExitType]*value.State
}

// NewStatementNode constructs a StatementNode with the given effect function
// and exit filter (nil means TransferAll).
func NewStatementNode(apply func(*value.State) map[ExitType]*value.State, filter TransferFilter) *StatementNode {
	return &StatementNode{baseNode: newBaseNode(filter), ApplyEffects: apply}
}

// Analyse computes new exit states from ApplyEffects and merges them in,
// implementing §4.B "Statement analysis".
func (n *StatementNode) Analyse() (bool, error) {
	if n.ApplyEffects == nil {
		return false, nil
	}
	newExit := n.ApplyEffects(n.before)
	changed := false
	for exit, st := range newExit {
		if n.mergeExit(exit, st) {
			changed = true
		}
	}
	return changed, nil
}

var _ Node = (*StatementNode)(nil)
