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
	"testing"

	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

const sampleWorkflow = `
name: CI
on: push
jobs:
  build:
    steps:
      - id: set
        run: echo "TOKEN=$MY_SECRET" >> out.txt
  publish:
    needs: build
    steps:
      - uses: pypa/gh-action-pypi-publish@release/v1
      - uses: some-org/some-action@v2
        with:
          target: prod
`

func TestBuildForestOrdersJobsByNeeds(t *testing.T) {
	wf, err := ParseWorkflow([]byte(sampleWorkflow))
	if err != nil {
		t.Fatalf("ParseWorkflow: %v", err)
	}
	scopes := NewWorkflowScopes("ci.yml")
	forest := BuildForest(wf, scopes)

	if err := forest.Analyse(); err != nil {
		t.Fatalf("Analyse() error: %v", err)
	}
	if len(forest.Roots) != 1 {
		t.Fatalf("expected a single workflow root, got %d", len(forest.Roots))
	}
	if len(forest.Roots[0].Children) != 2 {
		t.Fatalf("expected 2 job children, got %d", len(forest.Roots[0].Children))
	}
}

func TestUntrustedActionProducesArbitraryWrite(t *testing.T) {
	scopes := NewWorkflowScopes("ci.yml")
	varScope := scopes.JobScope("publish")
	node := buildStepNode(Step{Uses: "some-org/some-action@v2", With: map[string]any{"target": "prod"}}, scopes, varScope)
	if _, err := node.Analyse(); err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	exit := node.ExitStates()[dataflow.DefaultExit]
	loc := value.NewLocation(scopes.Variables, value.Variable(value.StringLiteral("action-output:some-org/some-action@v2")))
	found := false
	for _, v := range exit.Values(loc) {
		if v.Value.Kind == value.KindArbitraryNewData {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ArbitraryNewData write recording the untrusted action's effect")
	}
}

func TestTrustedPublishStepProducesNoWrites(t *testing.T) {
	scopes := NewWorkflowScopes("ci.yml")
	varScope := scopes.JobScope("publish")
	node := buildStepNode(Step{Uses: "pypa/gh-action-pypi-publish@release/v1"}, scopes, varScope)
	if _, err := node.Analyse(); err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	exit := node.ExitStates()[dataflow.DefaultExit]
	if len(exit.Locations()) != 0 {
		t.Errorf("expected a trusted-publish step to produce no observable writes, got %d locations", len(exit.Locations()))
	}
}

func TestParseBashScriptResolvesVariableSubstitution(t *testing.T) {
	scope := value.NewScope("vars", nil)
	cmds := ParseBashScript(`echo "$MY_SECRET" > out.txt`, scope)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	secrets := map[string]bool{}
	FindSecrets(cmds[0].Args[0], scope, secrets)
	arg := cmds[0].Args[0]
	if arg.Kind != value.KindRead || arg.Loc.Scope != scope || arg.Loc.Spec.Kind != value.SpecVariable {
		t.Fatalf("expected Args[0] to read a variable in the given scope, got %v", arg)
	}
	if name, _ := arg.Loc.Spec.Name.AsLiteral(); name != "MY_SECRET" {
		t.Errorf("expected variable MY_SECRET, got %q", name)
	}
}

func TestFindSecretsLocatesSecretReads(t *testing.T) {
	scope := value.NewScope("vars", nil)
	loc := value.NewLocation(scope, value.Variable(value.StringLiteral("secrets.NPM_TOKEN")))
	v := value.StringConcat(value.StringLiteral("token="), value.Read(loc))

	found := map[string]bool{}
	FindSecrets(v, scope, found)
	if !found["NPM_TOKEN"] {
		t.Errorf("expected FindSecrets to locate NPM_TOKEN, got %v", found)
	}
}

func TestFindSecretsIgnoresOtherScopes(t *testing.T) {
	scope := value.NewScope("vars", nil)
	other := value.NewScope("other", nil)
	loc := value.NewLocation(other, value.Variable(value.StringLiteral("secrets.NPM_TOKEN")))
	v := value.Read(loc)

	found := map[string]bool{}
	FindSecrets(v, scope, found)
	if len(found) != 0 {
		t.Errorf("expected no secrets found when the read is in a different scope, got %v", found)
	}
}
