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

package value

import "sync/atomic"

// debugSeq is the process-wide monotonic counter referenced by §4.B's
// "Debug sequencing": incremented at defined analysis milestones and
// recorded into DebugLabels. It exists only to make debug dumps
// reproducible; nothing about analysis correctness depends on its value,
// so it is not protected beyond what atomic.Int64 itself offers.
var debugSeq atomic.Int64

// NextDebugSeq returns the next value of the process-wide debug sequence
// counter.
func NextDebugSeq() int64 { return debugSeq.Add(1) }

// DebugLabel annotates a (Location, Value) pairing in a State with metadata
// needed only for reproducible debug dumps: the sequence number at which it
// was inserted and whether it arrived via TransferState (copied) as opposed
// to being freshly computed by apply_effects.
type DebugLabel struct {
	Seq    int64
	Copied bool
}

// valueSet maps a Value's Key() to the (Value, DebugLabel) pair recorded for
// it, so State is effectively Location -> Set<Value> with debug metadata
// riding along.
type valueSet map[string]valueEntry

type valueEntry struct {
	value *Value
	label DebugLabel
}

// State is a mapping Location -> {Value -> DebugLabel}. The empty State is
// bottom in the subset-join lattice defined over the inner value sets.
type State struct {
	byLocation map[string]*locationEntry
}

type locationEntry struct {
	loc    *Location
	values valueSet
}

// NewState returns an empty (bottom) State.
func NewState() *State { return &State{byLocation: map[string]*locationEntry{}} }

func (s *State) entryFor(loc *Location, create bool) *locationEntry {
	key := loc.Key() + "@" + scopePtrKey(loc.Scope)
	e, ok := s.byLocation[key]
	if !ok {
		if !create {
			return nil
		}
		e = &locationEntry{loc: loc, values: valueSet{}}
		s.byLocation[key] = e
	}
	return e
}

// scopePtrKey folds scope identity into the map key space used internally
// by State (as opposed to Location.Key, which only captures structure) so
// that two structurally-identical specifiers in distinct scopes occupy
// distinct State slots, matching "Locations are compared by structural
// equality of specifier plus object identity of scope" (§3).
func scopePtrKey(s *Scope) string {
	return fmtPtr(s)
}

// Values returns the set of (Value, DebugLabel) pairs recorded at loc. The
// returned slice is a snapshot; mutating it does not affect s.
func (s *State) Values(loc *Location) []struct {
	Value *Value
	Label DebugLabel
} {
	e := s.entryFor(loc, false)
	if e == nil {
		return nil
	}
	out := make([]struct {
		Value *Value
		Label DebugLabel
	}, 0, len(e.values))
	for _, ve := range e.values {
		out = append(out, struct {
			Value *Value
			Label DebugLabel
		}{ve.value, ve.label})
	}
	return out
}

// Has reports whether v is recorded at loc.
func (s *State) Has(loc *Location, v *Value) bool {
	e := s.entryFor(loc, false)
	if e == nil {
		return false
	}
	_, ok := e.values[v.Key()]
	return ok
}

// Locations returns every Location that has at least one recorded value.
func (s *State) Locations() []*Location {
	out := make([]*Location, 0, len(s.byLocation))
	for _, e := range s.byLocation {
		out = append(out, e.loc)
	}
	return out
}

// Insert records v at loc with the given label, returning true iff this
// changed the state (v was not already present).
func (s *State) Insert(loc *Location, v *Value, label DebugLabel) bool {
	e := s.entryFor(loc, true)
	k := v.Key()
	if _, ok := e.values[k]; ok {
		return false
	}
	e.values[k] = valueEntry{value: v, label: label}
	return true
}

// IsBottom reports whether s records no values anywhere.
func (s *State) IsBottom() bool {
	for _, e := range s.byLocation {
		if len(e.values) > 0 {
			return false
		}
	}
	return true
}

// Join merges other into s in place (subset-join over each location's value
// set), returning true iff s changed. Join is monotonic: s only grows.
func (s *State) Join(other *State) bool {
	changed := false
	for _, oe := range other.byLocation {
		for _, ve := range oe.values {
			if s.Insert(oe.loc, ve.value, ve.label) {
				changed = true
			}
		}
	}
	return changed
}

// Clone returns a deep-enough copy of s (Values/Locations are immutable and
// shared, but the per-location value sets are independent maps so mutating
// the clone never affects s).
func (s *State) Clone() *State {
	out := NewState()
	for k, e := range s.byLocation {
		ne := &locationEntry{loc: e.loc, values: make(valueSet, len(e.values))}
		for vk, ve := range e.values {
			ne.values[vk] = ve
		}
		out.byLocation[k] = ne
	}
	return out
}
