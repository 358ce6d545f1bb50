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

// Package keywordci implements the CircleCI/Travis/GitLab-CI/Jenkins
// fallback adapters §4.H calls out ("fall back to keyword search in
// unparsed CI configs ... with LOW confidence"), carried forward from the
// original Python implementation's per-provider keyword scanners
// (supplemented feature #1 in SPEC_FULL.md). These adapters never build a
// dataflow.NodeForest — they satisfy ciservice.Service with an empty
// callgraph and answer only the keyword-level question pkg/checks needs:
// "does this config mention a deploy/publish keyword, and on which line?"
package keywordci

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/slsa-verify/provenance-analyzer/pkg/ciservice"
	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
)

// Provider names a keyword-search-only CI provider.
type Provider string

const (
	ProviderCircleCI Provider = "circleci"
	ProviderTravis   Provider = "travis"
	ProviderGitLabCI Provider = "gitlab-ci"
	ProviderJenkins  Provider = "jenkins"
)

// configPaths names the single config file each provider conventionally
// uses, relative to the repository root.
var configPaths = map[Provider]string{
	ProviderCircleCI: ".circleci/config.yml",
	ProviderTravis:   ".travis.yml",
	ProviderGitLabCI: ".gitlab-ci.yml",
	ProviderJenkins:  "Jenkinsfile",
}

// DeployKeywords are the tokens whose presence in a config's raw text marks
// it as plausibly running a publish/deploy step. Matching is case
// insensitive and does not attempt to parse the surrounding syntax, per
// §4.H's explicit "keyword search" (not a parse).
var DeployKeywords = []string{"deploy", "publish", "release"}

// Match is one keyword hit: the line it occurred on and the keyword found,
// used by pkg/checks to build a LOW-confidence fact without claiming the
// precision a real parse would give.
type Match struct {
	Provider Provider
	Path     string
	Line     int
	Keyword  string
	Text     string
}

// Service is a ciservice.Service that never parses its provider's config
// into a callgraph; BuildCallGraph always returns an empty forest (§4.I
// permits this), and WorkflowRunInDateTimeRange always returns no results
// since none of these providers expose a lookup API this analyzer wires.
// Scan yields the matches a caller adapts into pkg/checks' KeywordMatch.
type Service struct {
	FS       billy.Filesystem
	Provider Provider
}

var _ ciservice.Service = &Service{}

func (s *Service) GetWorkflows(ctx context.Context, repoPath string) ([]string, error) {
	p, ok := configPaths[s.Provider]
	if !ok {
		return nil, nil
	}
	full := repoPath + "/" + p
	if _, err := s.FS.Stat(full); err != nil {
		return nil, nil
	}
	return []string{full}, nil
}

func (s *Service) BuildCallGraph(ctx context.Context, repoPath string) (*dataflow.NodeForest, error) {
	return dataflow.NewNodeForest(nil), nil
}

func (s *Service) WorkflowRunInDateTimeRange(ctx context.Context, p ciservice.RunLookupParams) ([]string, error) {
	return nil, nil
}

func (s *Service) WorkflowRunDeleted(ts time.Time) bool { return false }

var keywordPattern = func() *regexp.Regexp {
	escaped := make([]string, len(DeployKeywords))
	for i, k := range DeployKeywords {
		escaped[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(escaped, "|") + `)`)
}()

// Scan reads the provider's config file (if present) and returns every
// line that mentions a deploy keyword, sorted for determinism.
func (s *Service) Scan(ctx context.Context, repoPath string) ([]Match, error) {
	paths, err := s.GetWorkflows(ctx, repoPath)
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	f, err := s.FS.Open(paths[0])
	if err != nil {
		return nil, nil
	}
	defer f.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, rerr := f.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if rerr != nil {
			break
		}
	}
	var out []Match
	for i, line := range strings.Split(string(buf), "\n") {
		m := keywordPattern.FindString(line)
		if m == "" {
			continue
		}
		out = append(out, Match{
			Provider: s.Provider,
			Path:     paths[0],
			Line:     i + 1,
			Keyword:  strings.ToLower(m),
			Text:     strings.TrimSpace(line),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out, nil
}
