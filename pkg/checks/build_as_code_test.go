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

package checks

import (
	"context"
	"testing"

	"github.com/slsa-verify/provenance-analyzer/pkg/buildtool"
	"github.com/slsa-verify/provenance-analyzer/pkg/check"
)

func TestBuildAsCodeFailsWithNoEvidence(t *testing.T) {
	res, err := BuildAsCode(context.Background(), &Context{ComponentID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultFailed {
		t.Errorf("expected FAILED with no evidence, got %v", res.ResultType)
	}
}

func TestBuildAsCodeTrustedPublishCallSite(t *testing.T) {
	c := &Context{
		ComponentID: "c1",
		WorkflowEvents: map[string][]string{
			".github/workflows/release.yml": {"push"},
		},
		TrustedPublishCallSites: map[string][]TrustedPublishCall{
			".github/workflows/release.yml": {
				{Action: "pypa/gh-action-pypi-publish@release/v1", JobID: "publish", StepID: "step1"},
			},
		},
	}
	res, err := BuildAsCode(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultPassed {
		t.Fatalf("expected PASSED, got %v", res.ResultType)
	}
	if len(res.ResultTables) != 1 {
		t.Fatalf("expected one fact, got %d", len(res.ResultTables))
	}
	cols := res.ResultTables[0].Columns
	if cols["trusted_publish"] != true {
		t.Errorf("expected trusted_publish=true, got %v", cols["trusted_publish"])
	}
	if cols["build_tool"] != "pypa/gh-action-pypi-publish@release/v1" {
		t.Errorf("unexpected build_tool column: %v", cols["build_tool"])
	}
}

func TestBuildAsCodeKeywordFallback(t *testing.T) {
	c := &Context{
		ComponentID: "c1",
		KeywordMatches: map[string][]KeywordMatch{
			"circleci": {{Provider: "circleci", Path: ".circleci/config.yml", Line: 12, Keyword: "deploy"}},
		},
	}
	res, err := BuildAsCode(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultPassed {
		t.Fatalf("expected PASSED from keyword fallback, got %v", res.ResultType)
	}
	if res.ResultTables[0].Confidence != ConfidenceLow {
		t.Errorf("expected LOW confidence for keyword fallback, got %v", res.ResultTables[0].Confidence)
	}
}

func TestIsDeployCommand(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"npm", "publish"}, true},
		{[]string{"make", "build"}, false},
		{[]string{"twine", "upload", "dist/*"}, true},
	}
	for _, tt := range tests {
		cmd := buildtool.BuildToolCommand{Command: tt.args}
		if got := isDeployCommand(cmd); got != tt.want {
			t.Errorf("isDeployCommand(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
