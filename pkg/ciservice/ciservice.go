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

// Package ciservice defines the minimum CI-provider contract the core
// consumes (§4.I): workflow enumeration, callgraph construction, run lookup
// within a publish/commit time window, and retention policy. Concrete
// providers (GitHub Actions, and the keyword-search fallbacks in
// pkg/ciservice/keywordci) implement Service; pkg/checks depends only on
// this interface.
package ciservice

import (
	"context"
	"time"

	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
)

// CalleeKind distinguishes the named step/job §4.I's run-lookup checks for
// success: a step within a job, or the job itself.
type CalleeKind string

const (
	CalleeStep CalleeKind = "step"
	CalleeJob  CalleeKind = "job"
)

// RunLookupParams bundles the window-search parameters of §4.I's
// workflow_run_in_date_time_range contract.
type RunLookupParams struct {
	Repo          string
	Workflow      string
	PublishTime   time.Time
	CommitTime    time.Time
	JobID         string
	StepName      string
	StepID        string
	WindowSeconds int
	CalleeKind    CalleeKind
}

// Service is the minimum CI-provider contract §4.I names. Implementations
// talk to whatever transport backs them (GitHub REST API, a cloned
// checkout, or plain keyword search over an unparsed config); the core
// never depends on anything beyond this interface.
type Service interface {
	// GetWorkflows returns the CI config paths found under repoPath's
	// configured entry directory (e.g. ".github/workflows/*.yml").
	GetWorkflows(ctx context.Context, repoPath string) ([]string, error)
	// BuildCallGraph parses every workflow under repoPath into a single
	// combined NodeForest. An empty forest is a permitted result (§4.I).
	BuildCallGraph(ctx context.Context, repoPath string) (*dataflow.NodeForest, error)
	// WorkflowRunInDateTimeRange returns the run URLs satisfying §4.I's
	// window: started at-or-before PublishTime, within WindowSeconds of
	// PublishTime, within WindowSeconds/2 of CommitTime, with the named
	// step/job reported successful.
	WorkflowRunInDateTimeRange(ctx context.Context, p RunLookupParams) ([]string, error)
	// WorkflowRunDeleted reports whether a run recorded at ts would have
	// fallen outside the provider's retention window by now.
	WorkflowRunDeleted(ts time.Time) bool
}

// InWindow implements the arithmetic §4.I specifies for a single candidate
// run start time, independent of any particular provider's transport. Real
// Service implementations use this to filter the runs they enumerate.
func InWindow(runStart, publishTime, commitTime time.Time, windowSeconds int) bool {
	if runStart.After(publishTime) {
		return false
	}
	full := time.Duration(windowSeconds) * time.Second
	half := full / 2
	if publishTime.Sub(runStart) > full {
		return false
	}
	diff := commitTime.Sub(runStart)
	if diff < 0 {
		diff = -diff
	}
	return diff <= half
}
