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

package provenance

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// RepoCommit is the (possibly partial) result of extracting a source
// repository and commit from a provenance payload. Either field may be
// empty: "partial extraction is allowed" (§4.E).
type RepoCommit struct {
	Repo   string
	Commit string
}

// ProvenanceError is a typed error raised when a recognized predicateType
// carries a buildType (or other dialect marker) this extractor has no
// strategy for.
type ProvenanceError struct {
	Op  string
	Msg string
}

func (e *ProvenanceError) Error() string { return "provenance " + e.Op + ": " + e.Msg }

// ExtractRepoCommit dispatches on e.PredicateType, then (for SLSA v1) on
// the predicate's buildType, following §4.E's table.
func ExtractRepoCommit(e *Envelope) (*RepoCommit, error) {
	switch e.PredicateType {
	case PredicateSLSA01:
		return extractSLSA01(e.Predicate)
	case PredicateSLSA02:
		return extractSLSA02(e.Predicate)
	case PredicateSLSA1:
		return extractSLSA1(e.Predicate)
	case PredicateWitness01:
		return extractWitness01(e.Predicate)
	default:
		return nil, errors.Errorf("unrecognized predicateType %q", e.PredicateType)
	}
}

// cleanSPDXURI strips a leading "git+" and a trailing "@..." ref trailer
// from an SPDX-style material URI, per §4.E's SLSA v0.1 rule.
func cleanSPDXURI(uri string) string {
	uri = strings.TrimPrefix(uri, "git+")
	if i := strings.LastIndex(uri, "@"); i >= 0 {
		uri = uri[:i]
	}
	return uri
}

func extractSLSA01(predicate json.RawMessage) (*RepoCommit, error) {
	var p struct {
		Recipe struct {
			DefinedInMaterial *int `json:"definedInMaterial"`
		} `json:"recipe"`
		Materials []struct {
			URI    string            `json:"uri"`
			Digest map[string]string `json:"digest"`
		} `json:"materials"`
	}
	if err := json.Unmarshal(predicate, &p); err != nil {
		return nil, errors.Wrap(err, "parsing slsa v0.1 predicate")
	}
	out := &RepoCommit{}
	if p.Recipe.DefinedInMaterial == nil {
		return out, nil
	}
	idx := *p.Recipe.DefinedInMaterial
	if idx < 0 || idx >= len(p.Materials) {
		return out, nil
	}
	m := p.Materials[idx]
	out.Repo = cleanSPDXURI(m.URI)
	out.Commit = m.Digest["sha1"]
	return out, nil
}

func extractSLSA02(predicate json.RawMessage) (*RepoCommit, error) {
	var p struct {
		Invocation struct {
			ConfigSource struct {
				URI    string            `json:"uri"`
				Digest map[string]string `json:"digest"`
			} `json:"configSource"`
		} `json:"invocation"`
	}
	if err := json.Unmarshal(predicate, &p); err != nil {
		return nil, errors.Wrap(err, "parsing slsa v0.2 predicate")
	}
	return &RepoCommit{
		Repo:   p.Invocation.ConfigSource.URI,
		Commit: p.Invocation.ConfigSource.Digest["sha1"],
	}, nil
}

// slsa1BuildDefinition is the subset of a SLSA v1 buildDefinition this
// extractor reads, kept generic (map[string]any externalParameters) since
// its shape varies per buildType.
type slsa1BuildDefinition struct {
	BuildType            string               `json:"buildType"`
	ExternalParameters   map[string]any       `json:"externalParameters"`
	InternalParameters   map[string]any       `json:"internalParameters"`
	ResolvedDependencies []resolvedDependency `json:"resolvedDependencies"`
}

type resolvedDependency struct {
	URI    string            `json:"uri"`
	Digest map[string]string `json:"digest"`
}

func extractSLSA1(predicate json.RawMessage) (*RepoCommit, error) {
	var p struct {
		BuildDefinition slsa1BuildDefinition `json:"buildDefinition"`
	}
	if err := json.Unmarshal(predicate, &p); err != nil {
		return nil, errors.Wrap(err, "parsing slsa v1 predicate")
	}
	bd := p.BuildDefinition
	var repo string
	switch dialectOf(bd.BuildType) {
	case dialectGCB:
		repo, _ = stringAtPath(bd.ExternalParameters, "sourceToBuild", "repository")
		if repo == "" {
			repo, _ = stringAtPath(bd.ExternalParameters, "configSource", "repository")
		}
	case dialectGitHubActionsWorkflow:
		repo, _ = stringAtPath(bd.ExternalParameters, "workflow", "repository")
	case dialectGenericOCI:
		repo, _ = stringAtPath(bd.ExternalParameters, "source")
		commit, _ := stringAtPath(bd.InternalParameters, "buildEnvVar", "BLD_COMMIT_HASH")
		return &RepoCommit{Repo: repo, Commit: commit}, nil
	default:
		repo, _ = stringAtPath(bd.ExternalParameters, "source")
	}
	return &RepoCommit{Repo: repo, Commit: commitFromResolvedDependencies(bd.ResolvedDependencies, repo)}, nil
}

// commitFromResolvedDependencies scans deps for the git commit matching repo,
// per §4.E's "scan resolvedDependencies for the entry whose cleaned URI
// equals the repo" rule. When repo is empty (the named repository field
// was absent from externalParameters) there is nothing to match against, so
// the first dependency carrying a recognized git digest is taken instead —
// partial extraction still recovers the commit half (§8 scenario 2).
func commitFromResolvedDependencies(deps []resolvedDependency, repo string) string {
	for _, dep := range deps {
		if repo != "" && cleanSPDXURI(dep.URI) != repo {
			continue
		}
		if sha1, ok := dep.Digest["sha1"]; ok {
			return sha1
		}
		if c, ok := dep.Digest["gitCommit"]; ok {
			return c
		}
	}
	return ""
}

// buildDialect enumerates the SLSA v1 buildType dialects this extractor
// recognizes. Matched against the exact upstream buildType strings (§6),
// never by substring heuristic.
type buildDialect int

const (
	dialectUnknown buildDialect = iota
	dialectGCB
	dialectGitHubActionsWorkflow
	dialectGenericOCI
)

const (
	buildTypeGCB              = "https://slsa-framework.github.io/gcb-buildtypes/triggered-build/v1"
	buildTypeGitHubActions1   = "https://slsa-framework.github.io/github-actions-buildtypes/workflow/v1"
	buildTypeGitHubActions2   = "https://actions.github.io/buildtypes/workflow/v1"
	buildTypeGenericGenerator = "https://github.com/slsa-framework/slsa-github-generator/generic@v1"
	buildTypeNpmCliGHA        = "https://github.com/npm/cli/gha/v2"
	buildTypeMacaronOCI       = "https://github.com/oracle/macaron/tree/main/src/macaron/resources/provenance-buildtypes/oci/v1"
)

func dialectOf(buildType string) buildDialect {
	switch buildType {
	case buildTypeGCB:
		return dialectGCB
	case buildTypeGitHubActions1, buildTypeGitHubActions2, buildTypeGenericGenerator, buildTypeNpmCliGHA:
		return dialectGitHubActionsWorkflow
	case buildTypeMacaronOCI:
		return dialectGenericOCI
	default:
		return dialectUnknown
	}
}

func extractWitness01(predicate json.RawMessage) (*RepoCommit, error) {
	var p struct {
		Attestations []struct {
			Type        string `json:"type"`
			Attestation struct {
				CommitHash string `json:"commithash"`
				ProjectURL string `json:"projecturl"`
			} `json:"attestation"`
		} `json:"attestations"`
	}
	if err := json.Unmarshal(predicate, &p); err != nil {
		return nil, errors.Wrap(err, "parsing witness collection predicate")
	}
	out := &RepoCommit{}
	for _, a := range p.Attestations {
		switch {
		case strings.Contains(a.Type, "git") && !strings.Contains(a.Type, "github") && !strings.Contains(a.Type, "gitlab"):
			out.Commit = a.Attestation.CommitHash
		case strings.Contains(a.Type, "github"), strings.Contains(a.Type, "gitlab"):
			out.Repo = a.Attestation.ProjectURL
		}
	}
	return out, nil
}

// stringAtPath walks m following path, returning the string found at the
// end (or "", false if any segment is missing or not the expected type).
func stringAtPath(m map[string]any, path ...string) (string, bool) {
	var cur any = m
	for _, seg := range path {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = asMap[seg]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
