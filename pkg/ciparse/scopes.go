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

import "github.com/slsa-verify/provenance-analyzer/pkg/value"

// WorkflowScopes bundles the scopes a single workflow's forest is built
// against: a filesystem scope rooted at the repo checkout, an artifacts
// scope for the upload-artifact/download-artifact store, and a
// workflow-variables scope that secrets, `env:` blocks and job outputs all
// read from and write to (secret reachability, §4.C, walks this scope).
type WorkflowScopes struct {
	Filesystem *value.Scope
	Artifacts  *value.Scope
	Variables  *value.Scope
}

// NewWorkflowScopes constructs the three root scopes for one workflow's
// analysis. Each workflow file gets its own scopes (they are not shared
// across files), matching a fresh CI run's isolation.
func NewWorkflowScopes(workflowPath string) *WorkflowScopes {
	root := value.NewScope("workflow:"+workflowPath, nil)
	return &WorkflowScopes{
		Filesystem: value.NewScope("filesystem", root),
		Artifacts:  value.NewScope("artifacts", root),
		Variables:  value.NewScope("variables", root),
	}
}

// JobScope returns a scope nested under Variables for one job's
// job-local variables (GITHUB_JOB_VAR), so two jobs' same-named outputs
// don't collide.
func (s *WorkflowScopes) JobScope(jobID string) *value.Scope {
	return value.NewScope("job:"+jobID, s.Variables)
}

// SecretLocation returns the Location a `secrets.NAME` read resolves to
// within the workflow-variables scope.
func (s *WorkflowScopes) SecretLocation(name string) *value.Location {
	return value.NewLocation(s.Variables, value.Variable(value.StringLiteral("secrets."+name)))
}
