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

// Package value implements the abstract value/location model that the
// dataflow analysis is built on: scopes, locations and the values that can
// be read from or written to them.
package value

// Scope is an identity-typed namespace for Locations. Two scopes are equal
// iff they are the same object (compare pointers); callers must never
// compare scopes structurally. Scopes form a tree via Outer, fixed at
// creation time so no cycle can be constructed.
//
// paramName is non-empty only for a "parameter scope": a distinguished
// variant used by generic effect models (§4.D). A template instantiated at
// many call sites needs its placeholder scopes to compare as "the same
// logical scope" across instantiations even though each instantiation
// allocates a fresh *Scope; SameParameter implements that comparison.
type Scope struct {
	Name      string
	Outer     *Scope
	paramName string
}

// NewScope creates a fresh scope nested under outer (nil for a root scope).
func NewScope(name string, outer *Scope) *Scope {
	return &Scope{Name: name, Outer: outer}
}

// NewParameterScope creates a parameter-named scope nested under outer.
func NewParameterScope(paramName string, outer *Scope) *Scope {
	return &Scope{Name: "param:" + paramName, Outer: outer, paramName: paramName}
}

// IsParameter reports whether s is a parameter scope and returns its name.
func (s *Scope) IsParameter() (name string, ok bool) {
	if s == nil || s.paramName == "" {
		return "", false
	}
	return s.paramName, true
}

// Contains reports whether s or one of its outer scopes is target.
func (s *Scope) Contains(target *Scope) bool {
	for cur := s; cur != nil; cur = cur.Outer {
		if cur == target {
			return true
		}
	}
	return false
}

// String renders a scope as `$Scope("name")` for debug dumps. Identity is
// not recoverable from this string; it exists for logs only.
func (s *Scope) String() string {
	if s == nil {
		return `$Scope("<nil>")`
	}
	return "$Scope(" + quote(s.Name) + ")"
}

// SameParameter reports whether a and b are both parameter scopes with the
// same parameter name. This is the one sanctioned exception to "scopes
// compare by identity".
func SameParameter(a, b *Scope) bool {
	an, aok := a.IsParameter()
	bn, bok := b.IsParameter()
	return aok && bok && an == bn
}
