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

	"github.com/pkg/errors"
)

// BuildInvocation is the result of extracting which workflow (or config)
// drove a build, and where to find the specific run, per §4.E
// "Build-invocation extraction".
type BuildInvocation struct {
	WorkflowPathOrName string
	InvocationURL      string
}

// ExtractBuildInvocation dispatches on the SLSA v1 buildType dialect and
// returns the (workflow_path_or_name, invocation_url) pair its
// ProvenanceBuildDefinition strategy produces. Only predicateType ==
// PredicateSLSA1 carries enough structure (runDetails.builder /
// metadata.invocationId) for this extraction; other dialects return a
// ProvenanceError, matching "unknown dialects raise a typed
// ProvenanceError."
func ExtractBuildInvocation(e *Envelope) (*BuildInvocation, error) {
	if e.PredicateType != PredicateSLSA1 {
		return nil, &ProvenanceError{Op: "ExtractBuildInvocation", Msg: "predicateType " + e.PredicateType + " has no build-invocation strategy"}
	}
	var p struct {
		BuildDefinition slsa1BuildDefinition `json:"buildDefinition"`
		RunDetails      struct {
			Builder struct {
				ID string `json:"id"`
			} `json:"builder"`
			Metadata struct {
				InvocationID string `json:"invocationId"`
			} `json:"metadata"`
		} `json:"runDetails"`
	}
	if err := json.Unmarshal(e.Predicate, &p); err != nil {
		return nil, errors.Wrap(err, "parsing slsa v1 predicate")
	}
	bd := p.BuildDefinition
	switch dialectOf(bd.BuildType) {
	case dialectGCB:
		path, _ := stringAtPath(bd.ExternalParameters, "configSource", "path")
		return &BuildInvocation{WorkflowPathOrName: path, InvocationURL: p.RunDetails.Metadata.InvocationID}, nil
	case dialectGitHubActionsWorkflow:
		path, _ := stringAtPath(bd.ExternalParameters, "workflow", "path")
		return &BuildInvocation{WorkflowPathOrName: path, InvocationURL: p.RunDetails.Metadata.InvocationID}, nil
	case dialectGenericOCI:
		name, _ := stringAtPath(bd.ExternalParameters, "source")
		return &BuildInvocation{WorkflowPathOrName: name, InvocationURL: p.RunDetails.Metadata.InvocationID}, nil
	default:
		return nil, &ProvenanceError{Op: "ExtractBuildInvocation", Msg: "unrecognized buildType " + bd.BuildType}
	}
}
