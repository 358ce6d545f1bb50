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

// WriteStatement is a single write instantiated by a generic effect model: a
// (Location, Value) pair to insert, optionally conditioned on nothing else
// (models in this package are unconditional — a step either ran or didn't,
// matching the "transfer all" default of §4.B).
type WriteStatement struct {
	Loc *value.Location
	Val *value.Value
}

// NewWriteStatementsNode builds a StatementNode whose effect is exactly the
// given writes layered onto the before-state, implementing the "set of
// parameterised write statements" construct of §4.C for a single
// (non-templated) call site.
func NewWriteStatementsNode(writes []WriteStatement, filter dataflow.TransferFilter) *dataflow.StatementNode {
	return dataflow.NewStatementNode(func(before *value.State) map[dataflow.ExitType]*value.State {
		out := before.Clone()
		for _, w := range writes {
			out.Insert(w.Loc, w.Val, value.DebugLabel{Seq: value.NextDebugSeq()})
		}
		return map[dataflow.ExitType]*value.State{dataflow.DefaultExit: out}
	}, filter)
}

// VariableAssignment constructs the write statement for `name = value`
// classified by kind, at the given scope.
func VariableAssignment(scope *value.Scope, name string, val *value.Value, kind VarKind) WriteStatement {
	// The VarKind is folded into the variable's name so that two
	// same-named-but-differently-classified assignments (e.g. a Bash env
	// var shadowing a GitHub Actions env var) occupy distinct locations,
	// matching "Variable assignments distinguish ..." (§4.C) without
	// requiring Location to carry a kind field the rest of the model
	// doesn't need.
	tag := kind.String() + ":" + name
	return WriteStatement{
		Loc: value.NewLocation(scope, value.Variable(value.StringLiteral(tag))),
		Val: val,
	}
}

// ArtifactUpload models `actions/upload-artifact`: a read from a filesystem
// path, written to Artifact(name, file) in the artifacts scope.
func ArtifactUpload(scopes *WorkflowScopes, artifactName, path string) WriteStatement {
	fsLoc := value.NewLocation(scopes.Filesystem, value.Filesystem(value.StringLiteral(path)))
	artifactLoc := value.NewLocation(scopes.Artifacts, value.Artifact(value.StringLiteral(artifactName), value.StringLiteral(path)))
	return WriteStatement{Loc: artifactLoc, Val: value.Read(fsLoc)}
}

// ArtifactDownload models `actions/download-artifact`: symmetric to upload,
// reading Artifact(name, ArbitraryFilename) and writing to a filesystem
// directory.
func ArtifactDownload(scopes *WorkflowScopes, artifactName, destDir string) WriteStatement {
	artifactLoc := value.NewLocation(scopes.Artifacts, value.ArtifactAnyFilename(value.StringLiteral(artifactName)))
	fsLoc := value.NewLocation(scopes.Filesystem, value.FilesystemAnyUnderDir(value.StringLiteral(destDir)))
	return WriteStatement{Loc: fsLoc, Val: value.Read(artifactLoc)}
}

// TrustedPublishActions is the configured allowlist of Actions whose
// internals are modeled as opaque (§4.C: "Trusted publish actions
// (configured allowlist) are modeled but their internals are opaque").
var TrustedPublishActions = map[string]bool{
	"pypa/gh-action-pypi-publish":     true,
	"rubygems/release-gem":            true,
	"actions/attest-build-provenance": true,
}

// IsTrustedPublish reports whether uses (e.g. "pypa/gh-action-pypi-publish@release/v1")
// names a configured trusted-publish action.
func IsTrustedPublish(uses string) bool {
	name := uses
	if i := indexByte(uses, '@'); i >= 0 {
		name = uses[:i]
	}
	return TrustedPublishActions[name]
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
