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
	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

// ActionTemplate is a generic effect model for a third-party Action: a
// template over parameter names (its `with:` inputs), instantiated per call
// site by substituting concrete Values for ParameterPlaceholder(name) and a
// fresh parameter scope for every scope the template declares (§9 "Generic
// effect models": "A ParameterPlaceholderTransformer walks a template
// statement set substituting value/location/scope parameters. This replaces
// ad-hoc dispatch with data.").
type ActionTemplate struct {
	// Writes describes the template's effect as write statements whose Val
	// may reference ParameterPlaceholder(name) for any `with:` input name.
	// callScope is a fresh scope private to this call site (for
	// call-local bookkeeping); filesystemScope is the workflow's one
	// stable filesystem scope, used by facts that must be visible to
	// later steps in the same job (e.g. installed-language facts read by
	// pkg/buildtool).
	Writes func(callScope, filesystemScope *value.Scope) []WriteStatement
}

// Instantiate substitutes with's inputs into the template rooted at a fresh
// parameter scope nested under outer, by walking the template's
// placeholder values and replacing them with concrete ones.
func (t ActionTemplate) Instantiate(outer, filesystemScope *value.Scope, with map[string]*value.Value) []WriteStatement {
	scope := value.NewScope("action-call", outer)
	writes := t.Writes(scope, filesystemScope)
	out := make([]WriteStatement, len(writes))
	for i, w := range writes {
		out[i] = WriteStatement{Loc: w.Loc, Val: substitute(w.Val, with)}
	}
	return out
}

// substitute walks v replacing every ParameterPlaceholderValue(name) with
// with[name] (or ArbitraryNewData if the caller never set that input),
// recursing through operator nodes. Unknown Value kinds are a programming
// error here, per §9's "unknown variant is a programming error" — but since
// substitute only ever walks templates this package itself authored, no
// CallGraphError path is reachable; a default branch returns v unchanged as
// a conservative no-op rather than panicking on future Value kinds added to
// pkg/value.
func substitute(v *value.Value, with map[string]*value.Value) *value.Value {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case value.KindParameterPlaceholder:
		if bound, ok := with[v.ParamName]; ok {
			return bound
		}
		return value.ArbitraryNewData("unbound-param:" + v.ParamName)
	case value.KindUnaryStringOp:
		return value.Unary(v.UnaryOp, substitute(v.UnaryOperand, with))
	case value.KindBinaryStringOp:
		return value.StringConcat(substitute(v.Left, with), substitute(v.Right, with))
	case value.KindInstalledPackage:
		return value.InstalledPackage(
			substitute(v.PkgName, with), substitute(v.PkgVersion, with),
			substitute(v.PkgDistribution, with), substitute(v.PkgURL, with))
	case value.KindSymbolic:
		return value.Symbolic(substitute(v.Inner, with))
	default:
		return v
	}
}

// NewActionCallNode builds the StatementNode for one `uses:`/`with:` call
// site: a trusted-publish action (per effects.go's allowlist) is modeled
// opaquely (no writes, since its internals are deliberately not exposed);
// any other action uses tmpl if one is registered for it, else falls back
// to a single ArbitraryNewData write at a generic "action output" location
// so downstream analysis can still observe that *something* ran there.
func NewActionCallNode(scopes *WorkflowScopes, uses string, with map[string]*value.Value, tmpl *ActionTemplate) *dataflow.StatementNode {
	if IsTrustedPublish(uses) {
		return NewWriteStatementsNode(nil, nil)
	}
	if tmpl != nil {
		return NewWriteStatementsNode(tmpl.Instantiate(scopes.Variables, scopes.Filesystem, with), nil)
	}
	loc := value.NewLocation(scopes.Variables, value.Variable(value.StringLiteral("action-output:"+uses)))
	return NewWriteStatementsNode([]WriteStatement{{Loc: loc, Val: value.ArbitraryNewData("action:" + uses)}}, nil)
}

// KnownActionModels is the registry of polymorphic models for specific
// third-party actions (§4.C), keyed by "owner/repo".
var KnownActionModels = map[string]*ActionTemplate{
	"actions/checkout": {
		Writes: func(callScope, filesystemScope *value.Scope) []WriteStatement {
			return nil // internals opaque; checkout effects are modeled at the workflow level (HasRepo)
		},
	},
	"actions/setup-node": {
		Writes: func(callScope, filesystemScope *value.Scope) []WriteStatement {
			// Records an installed-language fact at the location the
			// build-tool detector reads from (pkg/buildtool), so a later
			// `npm ci` in the same job resolves a node version.
			loc := value.NewLocation(filesystemScope, value.Installed(value.StringLiteral("node")))
			pkg := value.InstalledPackage(
				value.StringLiteral("node"),
				value.ParameterPlaceholder("node-version"),
				value.ArbitraryNewData("setup-node-distribution"),
				value.ArbitraryNewData("setup-node-url"),
			)
			return []WriteStatement{{Loc: loc, Val: pkg}}
		},
	},
}
