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

// Package dataflow implements the fixpoint dataflow analysis core: nodes
// (statement / control-flow / interpretation), the state lattice transfer
// machinery, and the worklist fixpoint algorithm described in §4.B.
package dataflow

import "github.com/slsa-verify/provenance-analyzer/pkg/value"

// TransferFilter drops facts at node boundaries. The zero value transfers
// everything (the §4.B default).
type TransferFilter interface {
	ShouldTransfer(loc *value.Location) bool
}

// transferAll is the default filter: transfer every location.
type transferAll struct{}

func (transferAll) ShouldTransfer(*value.Location) bool { return true }

// TransferAll is the default transfer filter.
var TransferAll TransferFilter = transferAll{}

// ExcludeLocations drops facts at any of the named locations.
type ExcludeLocations struct {
	Excluded []*value.Location
}

func (f ExcludeLocations) ShouldTransfer(loc *value.Location) bool {
	for _, e := range f.Excluded {
		if e.Equal(loc) {
			return false
		}
	}
	return true
}

// ExcludeScopes drops facts at any location whose scope is in (or nested
// under) one of the excluded scopes. This is the standard filter applied at
// block exits to erase scopes owned by a departing node (§4.B).
type ExcludeScopes struct {
	Excluded []*value.Scope
}

func (f ExcludeScopes) ShouldTransfer(loc *value.Location) bool {
	for _, e := range f.Excluded {
		if loc.Scope.Contains(e) {
			return false
		}
	}
	return true
}

// TransferState copies every (loc, values) pair from src into dest for which
// filter.ShouldTransfer(loc) holds, skipping values already present in dest,
// and stamping each newly-inserted value with a fresh DebugLabel whose
// Copied flag is true. It reports whether dest changed.
//
// Invariant (§8): TransferState(s, s, f) always returns false and leaves s
// unmodified, because every (loc, value) pair already present in src is, by
// definition, already present in dest when src == dest.
func TransferState(src, dest *value.State, filter TransferFilter) bool {
	if filter == nil {
		filter = TransferAll
	}
	changed := false
	for _, loc := range src.Locations() {
		if !filter.ShouldTransfer(loc) {
			continue
		}
		for _, ve := range src.Values(loc) {
			if dest.Has(loc, ve.Value) {
				continue
			}
			label := value.DebugLabel{Seq: value.NextDebugSeq(), Copied: true}
			if dest.Insert(loc, ve.Value, label) {
				changed = true
			}
		}
	}
	return changed
}
