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

package ciparse

import (
	"sort"

	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

// BuildForest turns a parsed Workflow into a dataflow.NodeForest, per §4.C:
// "Given a parsed workflow object, build a forest whose roots are workflow
// nodes. Children represent jobs, steps (RunStep, ActionStep,
// ReusableWorkflowCall)." One call builds one workflow's forest; analyzing
// several workflow files means calling BuildForest once per file and
// collecting the roots, since each gets its own WorkflowScopes (no state is
// shared across files).
func BuildForest(wf *Workflow, scopes *WorkflowScopes) *dataflow.NodeForest {
	entry := dataflow.NewStatementNode(func(before *value.State) map[dataflow.ExitType]*value.State {
		return map[dataflow.ExitType]*value.State{dataflow.DefaultExit: before.Clone()}
	}, nil)
	root := dataflow.NewControlFlowGraphNode(entry, nil)

	jobCFGs := map[string]*dataflow.ControlFlowGraphNode{}
	jobTrees := map[string]*dataflow.Tree{}
	for id, job := range wf.Jobs {
		cfg, tree := buildJobTree(id, job, scopes)
		jobCFGs[id] = cfg
		jobTrees[id] = tree
	}

	var rootTree dataflow.Tree
	rootTree.Node = root

	for _, id := range sortedJobIDs(wf.Jobs) {
		cfg := jobCFGs[id]
		needs := jobNeeds(wf.Jobs[id])
		if len(needs) == 0 {
			root.AddEdge(entry, dataflow.DefaultExit, cfg)
		} else {
			for _, dep := range needs {
				if depCFG, ok := jobCFGs[dep]; ok {
					root.AddEdge(depCFG, dataflow.DefaultExit, cfg)
				}
			}
		}
		root.AddExitEdge(cfg, dataflow.DefaultExit, dataflow.DefaultExit)
		rootTree.Children = append(rootTree.Children, jobTrees[id])
	}

	return dataflow.NewNodeForest([]*dataflow.Tree{&rootTree})
}

func sortedJobIDs(jobs map[string]Job) []string {
	ids := make([]string, 0, len(jobs))
	for id := range jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// jobNeeds normalizes Job.Needs (a bare string, a sequence of strings, or
// absent) into a slice.
func jobNeeds(j Job) []string {
	switch v := j.Needs.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// buildJobTree builds the per-job control-flow graph chaining its steps in
// order, and the Tree exposing each step as a child for forest walks.
func buildJobTree(jobID string, job Job, scopes *WorkflowScopes) (*dataflow.ControlFlowGraphNode, *dataflow.Tree) {
	varScope := scopes.JobScope(jobID)

	if job.Uses != "" {
		// ReusableWorkflowCall: model as a single opaque call node, per §4.C
		// ("reusable workflow calls are modeled as a single opaque node since
		// the callee's own workflow file is analyzed separately, if at all").
		loc := value.NewLocation(varScope, value.Variable(value.StringLiteral("reusable-workflow-call")))
		call := NewWriteStatementsNode([]WriteStatement{{Loc: loc, Val: value.ArbitraryNewData("reusable:" + job.Uses)}}, nil)
		cfg := dataflow.NewControlFlowGraphNode(call, nil)
		cfg.AddExitEdge(call, dataflow.DefaultExit, dataflow.DefaultExit)
		return cfg, &dataflow.Tree{Node: cfg}
	}

	var stepNodes []dataflow.Node
	var stepTrees []*dataflow.Tree
	for _, step := range job.Steps {
		n := buildStepNode(step, scopes, varScope)
		stepNodes = append(stepNodes, n)
		stepTrees = append(stepTrees, &dataflow.Tree{Node: n})
	}

	var entry dataflow.Node
	if len(stepNodes) == 0 {
		entry = dataflow.NewStatementNode(func(before *value.State) map[dataflow.ExitType]*value.State {
			return map[dataflow.ExitType]*value.State{dataflow.DefaultExit: before.Clone()}
		}, nil)
		stepNodes = []dataflow.Node{entry}
		stepTrees = []*dataflow.Tree{{Node: entry}}
	} else {
		entry = stepNodes[0]
	}

	cfg := dataflow.NewControlFlowGraphNode(entry, nil)
	for i := 0; i+1 < len(stepNodes); i++ {
		cfg.AddEdge(stepNodes[i], dataflow.DefaultExit, stepNodes[i+1])
	}
	cfg.AddExitEdge(stepNodes[len(stepNodes)-1], dataflow.DefaultExit, dataflow.DefaultExit)

	return cfg, &dataflow.Tree{Node: cfg, Children: stepTrees}
}

// buildStepNode dispatches a Step to its effect model: a Run step expands
// via the Bash frontend, an Uses step is a (possibly templated) action call.
func buildStepNode(step Step, scopes *WorkflowScopes, varScope *value.Scope) dataflow.Node {
	switch {
	case step.IsRunStep():
		return RawBashScriptNode(step.Run, varScope, nil)
	case step.IsActionStep():
		with := map[string]*value.Value{}
		for k, v := range step.With {
			with[k] = coerceInputValue(v)
		}
		tmpl := KnownActionModels[stripRef(step.Uses)]
		return NewActionCallNode(scopes, step.Uses, with, tmpl)
	default:
		return dataflow.NewStatementNode(func(before *value.State) map[dataflow.ExitType]*value.State {
			return map[dataflow.ExitType]*value.State{dataflow.DefaultExit: before.Clone()}
		}, nil)
	}
}

// coerceInputValue turns a `with:` YAML scalar into a Value; non-string
// inputs (numbers, bools) become their string form as a literal, since every
// Action input is ultimately consumed as a string.
func coerceInputValue(v any) *value.Value {
	if s, ok := v.(string); ok {
		return value.StringLiteral(s)
	}
	return value.ArbitraryNewData("non-string-input")
}

func stripRef(uses string) string {
	for i := 0; i < len(uses); i++ {
		if uses[i] == '@' {
			return uses[:i]
		}
	}
	return uses
}
