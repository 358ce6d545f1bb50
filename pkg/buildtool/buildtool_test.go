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

package buildtool

import (
	"testing"

	"github.com/slsa-verify/provenance-analyzer/pkg/ciparse"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

const npmWorkflow = `
name: CI
on: push
jobs:
  build:
    steps:
      - uses: actions/setup-node
        with:
          node-version: "20"
      - run: npm ci && npm test
`

func TestDetectFindsNpmBuildCommand(t *testing.T) {
	wf, err := ciparse.ParseWorkflow([]byte(npmWorkflow))
	if err != nil {
		t.Fatalf("ParseWorkflow: %v", err)
	}
	scopes := ciparse.NewWorkflowScopes("ci.yml")
	forest := ciparse.BuildForest(wf, scopes)
	if err := forest.Analyse(); err != nil {
		t.Fatalf("Analyse: %v", err)
	}

	cmds := Detect(forest, "ci.yml", wf.EventNames(), scopes.Filesystem, KnownBuildTools)
	var found bool
	for _, c := range cmds {
		if c.Language == "node" && len(c.Command) > 0 && c.Command[0] == "npm" {
			found = true
			if len(c.LanguageVersions) != 1 || c.LanguageVersions[0] != "20" {
				t.Errorf("expected harvested node version [20], got %v", c.LanguageVersions)
			}
		}
	}
	if !found {
		t.Errorf("expected at least one npm BuildToolCommand, got %+v", cmds)
	}
}

func TestResolveOneUnknownForUnresolvedRead(t *testing.T) {
	scopes := ciparse.NewWorkflowScopes("x.yml")
	loc := value.NewLocation(scopes.Variables, value.Variable(value.StringLiteral("UNSET")))
	before := value.NewState()
	got := resolveOne(value.Read(loc), before)
	if got != UnknownArgSentinel {
		t.Errorf("resolveOne() = %q, want sentinel %q", got, UnknownArgSentinel)
	}
}
