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

package ciservice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/slsa-verify/provenance-analyzer/internal/httpx"
	"github.com/slsa-verify/provenance-analyzer/pkg/ciparse"
	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
)

// GitHubActionsRetentionDays is the provider's log/run retention window
// (§4.I: "e.g. 400 days for GH Actions").
const GitHubActionsRetentionDays = 400

// WorkflowEntryDir is the configured directory GetWorkflows globs under.
const WorkflowEntryDir = ".github/workflows"

// GitHubActions is a ciservice.Service backed by a local checkout
// (filesystem walk + ciparse) for callgraph construction and the GitHub
// REST API for run lookups.
type GitHubActions struct {
	FS     billy.Filesystem
	Client httpx.BasicClient
	// APIBase defaults to https://api.github.com when empty.
	APIBase string
}

var _ Service = &GitHubActions{}

// GetWorkflows globs repoPath's .github/workflows directory for *.yml/*.yaml
// files, per §4.I.
func (g *GitHubActions) GetWorkflows(ctx context.Context, repoPath string) ([]string, error) {
	dir := path.Join(repoPath, WorkflowEntryDir)
	entries, err := g.FS.ReadDir(dir)
	if err != nil {
		// A missing workflows directory is not an error: the repository
		// simply has no GitHub Actions configuration (§7: transport/parse
		// errors within a single discovery step are swallowed).
		return nil, nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isYAML(e.Name()) {
			out = append(out, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func isYAML(name string) bool {
	return hasSuffix(name, ".yml") || hasSuffix(name, ".yaml")
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// BuildCallGraph parses every discovered workflow file into its own forest
// via pkg/ciparse and returns their combined roots as one NodeForest. A
// parse failure for one file is swallowed (§7) so the rest of the
// repository's workflows still contribute.
func (g *GitHubActions) BuildCallGraph(ctx context.Context, repoPath string) (*dataflow.NodeForest, error) {
	paths, err := g.GetWorkflows(ctx, repoPath)
	if err != nil {
		return nil, errors.Wrap(err, "listing workflows")
	}
	var roots []*dataflow.Tree
	for _, p := range paths {
		f, err := g.FS.Open(p)
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			continue
		}
		wf, err := ciparse.ParseWorkflow(raw)
		if err != nil {
			continue
		}
		scopes := ciparse.NewWorkflowScopes(p)
		forest := ciparse.BuildForest(wf, scopes)
		roots = append(roots, forest.Roots...)
	}
	return dataflow.NewNodeForest(roots), nil
}

// ghRun is the subset of the GitHub Actions "list workflow runs" response
// this adapter consumes.
type ghRun struct {
	HTMLURL    string    `json:"html_url"`
	RunStarted time.Time `json:"run_started_at"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	Path       string    `json:"path"`
}

type ghRunsResponse struct {
	WorkflowRuns []ghRun `json:"workflow_runs"`
}

// WorkflowRunInDateTimeRange queries the GitHub REST API for runs of p.Workflow
// within p.Repo, then filters to those satisfying InWindow and whose
// conclusion is "success" (§4.I treats the named step/job's success as part
// of the window predicate; since a per-step conclusion isn't exposed by the
// runs-list endpoint, this adapter approximates it with the run's own
// conclusion, which is exact whenever CalleeKind is CalleeJob and the job is
// the run's only job).
func (g *GitHubActions) WorkflowRunInDateTimeRange(ctx context.Context, p RunLookupParams) ([]string, error) {
	base := g.APIBase
	if base == "" {
		base = "https://api.github.com"
	}
	u, err := url.Parse(base + path.Join("/repos", p.Repo, "actions", "workflows", p.Workflow, "runs"))
	if err != nil {
		return nil, errors.Wrap(err, "building runs URL")
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := g.Client.Do(req)
	if err != nil {
		// Transport errors are swallowed at the discovery-step boundary (§7).
		return nil, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	var parsed ghRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil
	}
	var out []string
	for _, run := range parsed.WorkflowRuns {
		if run.Conclusion != "success" {
			continue
		}
		if !InWindow(run.RunStarted, p.PublishTime, p.CommitTime, p.WindowSeconds) {
			continue
		}
		out = append(out, run.HTMLURL)
	}
	sort.Strings(out)
	return out, nil
}

// WorkflowRunDeleted reports whether ts is older than GitHubActionsRetentionDays.
func (g *GitHubActions) WorkflowRunDeleted(ts time.Time) bool {
	return time.Since(ts) > time.Duration(GitHubActionsRetentionDays)*24*time.Hour
}

// FanOutRunLookup resolves WorkflowRunInDateTimeRange across several
// workflows concurrently, bounded by errgroup, for callers that must
// search a whole repository's workflow set
// for a single candidate run; this fan-out is internal to the adapter and
// is still synchronous from the dataflow core's perspective (§5).
func (g *GitHubActions) FanOutRunLookup(ctx context.Context, repo string, workflows []string, base RunLookupParams) (map[string][]string, error) {
	out := make(map[string][]string, len(workflows))
	var mu sync.Mutex
	eg, ectx := errgroup.WithContext(ctx)
	for _, wf := range workflows {
		wf := wf
		eg.Go(func() error {
			p := base
			p.Repo = repo
			p.Workflow = wf
			urls, err := g.WorkflowRunInDateTimeRange(ectx, p)
			if err != nil {
				return err
			}
			mu.Lock()
			out[wf] = urls
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
