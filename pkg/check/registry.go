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

package check

import (
	"path"
	"sort"

	"github.com/pkg/errors"
)

// Registry holds the set of known checks and their dependency graph.
type Registry struct {
	checks   map[string]Check
	parents  map[string][]string
	children map[string][]string
	order    []string // topological order, computed by Prepare
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		checks:   map[string]Check{},
		parents:  map[string][]string{},
		children: map[string][]string{},
	}
}

// Register adds c to the registry. Duplicate IDs and malformed IDs are
// configuration errors (§4.G).
func (r *Registry) Register(c Check) error {
	if !ValidID(c.ID) {
		return errors.Errorf("invalid check id %q: must match %s", c.ID, idPattern.String())
	}
	if _, exists := r.checks[c.ID]; exists {
		return errors.Errorf("duplicate check id %q", c.ID)
	}
	r.checks[c.ID] = c
	for _, dep := range c.DependsOn {
		r.parents[c.ID] = append(r.parents[c.ID], dep.ParentID)
		r.children[dep.ParentID] = append(r.children[dep.ParentID], c.ID)
	}
	return nil
}

// Prepare validates the dependency graph (all parents known, no cycles) and
// computes the topological execution order (§4.G).
func (r *Registry) Prepare() error {
	for id, parents := range r.parents {
		for _, p := range parents {
			if _, ok := r.checks[p]; !ok {
				return errors.Errorf("check %q depends on unknown check %q", id, p)
			}
		}
	}
	order, err := topoSort(r.checks, r.parents)
	if err != nil {
		return err
	}
	r.order = order
	return nil
}

// topoSort returns checks in dependency order (parents before children),
// erroring if the dependency graph contains a cycle.
func topoSort(checks map[string]Check, parents map[string][]string) ([]string, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := map[string]int{}
	var order []string
	ids := make([]string, 0, len(checks))
	for id := range checks {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic order among roots/independent subgraphs

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return errors.Errorf("cycle detected at check %q", id)
		}
		state[id] = visiting
		deps := append([]string(nil), parents[id]...)
		sort.Strings(deps)
		for _, p := range deps {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}
	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Select computes the final set of checks to run: expand_parents(include ∩
// known) \ expand_children(exclude ∩ known), per §4.G. Patterns use
// shell-glob semantics; "*" matches everything. An empty include list
// defaults to "*".
func (r *Registry) Select(include, exclude []string) []string {
	if len(include) == 0 {
		include = []string{"*"}
	}
	known := make(map[string]bool, len(r.checks))
	for id := range r.checks {
		known[id] = true
	}
	included := matchAny(known, include)
	excluded := matchAny(known, exclude)

	selected := r.expandParents(included)
	toRemove := r.expandChildren(excluded)
	var out []string
	for _, id := range r.order {
		if selected[id] && !toRemove[id] {
			out = append(out, id)
		}
	}
	return out
}

func matchAny(known map[string]bool, patterns []string) map[string]bool {
	out := map[string]bool{}
	if len(patterns) == 0 {
		return out
	}
	for id := range known {
		for _, pat := range patterns {
			if ok, _ := path.Match(pat, id); ok {
				out[id] = true
				break
			}
		}
	}
	return out
}

// expandParents closes ids under "ancestors of" — every declared parent,
// transitively, of a selected check is implicitly included so its
// dependencies can be evaluated for the skip policy.
func (r *Registry) expandParents(ids map[string]bool) map[string]bool {
	out := map[string]bool{}
	var add func(id string)
	add = func(id string) {
		if out[id] {
			return
		}
		out[id] = true
		for _, p := range r.parents[id] {
			add(p)
		}
	}
	for id := range ids {
		add(id)
	}
	return out
}

// expandChildren closes ids under "descendants of" — excluding a check also
// excludes everything that transitively depends on it.
func (r *Registry) expandChildren(ids map[string]bool) map[string]bool {
	out := map[string]bool{}
	var add func(id string)
	add = func(id string) {
		if out[id] {
			return
		}
		out[id] = true
		for _, c := range r.children[id] {
			add(c)
		}
	}
	for id := range ids {
		add(id)
	}
	return out
}

// Parents returns the declared parent expectations for id.
func (r *Registry) Parents(id string) []ParentExpectation {
	return r.checks[id].DependsOn
}

// Get returns the registered check for id.
func (r *Registry) Get(id string) (Check, bool) {
	c, ok := r.checks[id]
	return c, ok
}
