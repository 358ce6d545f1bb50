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

// Package checks implements the representative check corpus of §4.H:
// build_as_code, detect_malicious_metadata and dockerfile_security. Each
// consumes components A-G (pkg/value, pkg/dataflow, pkg/ciparse,
// pkg/buildtool, pkg/provenance, pkg/repofinder) plus the CI adapters of
// pkg/ciservice (component I), and is registered against pkg/check's
// scheduler by RegisterAll.
package checks

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/slsa-verify/provenance-analyzer/pkg/check"
	"github.com/slsa-verify/provenance-analyzer/pkg/ciparse"
	"github.com/slsa-verify/provenance-analyzer/pkg/ciservice"
	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
	"github.com/slsa-verify/provenance-analyzer/pkg/provenance"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

// Confidence bands used across the corpus, matching the informal
// HIGH/MEDIUM/LOW tiers §4.H names.
const (
	ConfidenceHigh   = 1.0
	ConfidenceMedium = 0.6
	ConfidenceLow    = 0.2
)

// Context bundles everything a check in this package reads, gathered by
// the caller once per component (cloning, CI parsing and provenance
// fetch are all external-collaborator concerns per §1, out of scope for
// the checks themselves).
type Context struct {
	ComponentID string
	RepoPath    string
	// Forests maps a CI config path to its parsed dataflow.NodeForest
	// (component C's output), one entry per workflow file discovered via
	// CIService.GetWorkflows/BuildCallGraph.
	Forests map[string]*dataflow.NodeForest
	// WorkflowEvents maps the same CI config path to its trigger event
	// names, used as BuildToolCommand.Events.
	WorkflowEvents map[string][]string
	// FilesystemScope is the scope pkg/buildtool reads installed-language
	// facts from; all forests in this Context share one repo checkout so
	// they share one filesystem scope.
	FilesystemScope *value.Scope
	// CIService is the CI adapter the workflows were discovered through;
	// may be nil. No check in this package currently reads it.
	CIService ciservice.Service
	// Provenances are the already-fetched and parsed in-toto envelopes
	// discovered for this component (component E's output).
	Provenances []*provenance.Envelope
	// DockerfilePaths lists Dockerfile-like paths found in the repo
	// checkout (discovery itself — walking the tree for a Dockerfile — is
	// an external-collaborator concern; only the content each path
	// resolves to is read here).
	DockerfilePaths map[string]string // path -> raw content
	// KeywordMatches holds any keyword-search fallback hits already
	// collected from pkg/ciservice/keywordci, keyed by provider name.
	KeywordMatches map[string][]KeywordMatch
	// TrustedPublishCallSites maps a CI config path to the trusted-publish
	// Action call sites found in its raw workflow structure (§4.C's
	// allowlisted Actions are modeled opaquely in the dataflow forest, so
	// this check enumerates them from the parsed ciparse.Workflow instead
	// of walking forest nodes).
	TrustedPublishCallSites map[string][]TrustedPublishCall
	// HeuristicResults holds the per-heuristic PASS/FAIL result already
	// computed for this component by an external malware-metadata
	// analyzer (§1: reading fetched registry JSON is out of scope for the
	// core).
	HeuristicResults map[Heuristic]HeuristicResult
	// KnownMalwareAdvisory names the OSV/malware advisory ID already
	// matched for this component's exact version, if any.
	KnownMalwareAdvisory string
	Logger               *log.Logger
}

// TrustedPublishCall is one `uses:` call site recognized as a configured
// trusted-publish action (ciparse.IsTrustedPublish).
type TrustedPublishCall struct {
	Action string
	JobID  string
	StepID string
}

// FindTrustedPublishCallSites walks wf's jobs/steps and returns every step
// whose `uses:` names a configured trusted-publish action, per §4.H step 1
// ("enumerate trusted-publish Actions reachable from any root").
func FindTrustedPublishCallSites(wf *ciparse.Workflow) []TrustedPublishCall {
	var out []TrustedPublishCall
	for jobID, job := range wf.Jobs {
		for _, step := range job.Steps {
			if step.IsActionStep() && ciparse.IsTrustedPublish(step.Uses) {
				out = append(out, TrustedPublishCall{Action: step.Uses, JobID: jobID, StepID: step.ID})
			}
		}
	}
	return out
}

// KeywordMatch mirrors keywordci.Match without importing that package here
// (avoids a pkg/checks -> pkg/ciservice/keywordci -> pkg/ciservice import
// cycle risk as the corpus grows; the caller adapts keywordci.Match into
// this shape when populating a Context).
type KeywordMatch struct {
	Provider string
	Path     string
	Line     int
	Keyword  string
}

func (c *Context) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// newFact builds a CheckFact with fresh ID and the given check type/columns.
func newFact(componentID, checkType string, confidence float64, columns map[string]any) check.CheckFact {
	return check.CheckFact{
		ID:          uuid.New(),
		CheckType:   checkType,
		Confidence:  confidence,
		ComponentID: componentID,
		Columns:     columns,
	}
}

// RegisterAll registers every check this package implements against r.
func RegisterAll(r *check.Registry, ctxFor func(componentID string) (*Context, error)) error {
	checksToRegister := []check.Check{
		{
			ID: "mcn_build_as_code_1",
			Run: func(ctx context.Context, componentID string) (check.CheckResultData, error) {
				c, err := ctxFor(componentID)
				if err != nil {
					return check.CheckResultData{ResultType: check.ResultUnknown}, err
				}
				return BuildAsCode(ctx, c)
			},
		},
		{
			ID: "mcn_detect_malicious_metadata_1",
			Run: func(ctx context.Context, componentID string) (check.CheckResultData, error) {
				c, err := ctxFor(componentID)
				if err != nil {
					return check.CheckResultData{ResultType: check.ResultUnknown}, err
				}
				return DetectMaliciousMetadata(ctx, c)
			},
		},
		{
			ID:           "mcn_dockerfile_security_1",
			ResultOnSkip: check.ResultFailed,
			Run: func(ctx context.Context, componentID string) (check.CheckResultData, error) {
				c, err := ctxFor(componentID)
				if err != nil {
					return check.CheckResultData{ResultType: check.ResultUnknown}, err
				}
				return DockerfileSecurity(ctx, c)
			},
		},
	}
	for _, c := range checksToRegister {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
