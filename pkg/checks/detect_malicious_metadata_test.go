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

	"github.com/slsa-verify/provenance-analyzer/pkg/check"
)

func TestDetectMaliciousMetadataPassesWithNoSignal(t *testing.T) {
	res, err := DetectMaliciousMetadata(context.Background(), &Context{ComponentID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultPassed {
		t.Errorf("expected PASSED with no signal, got %v", res.ResultType)
	}
	if len(res.ResultTables) != 0 {
		t.Errorf("expected no facts, got %d", len(res.ResultTables))
	}
}

func TestDetectMaliciousMetadataKnownMalwareFails(t *testing.T) {
	c := &Context{ComponentID: "c1", KnownMalwareAdvisory: "GHSA-xxxx-malware"}
	res, err := DetectMaliciousMetadata(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultFailed {
		t.Fatalf("expected FAILED for known malware, got %v", res.ResultType)
	}
	if res.ResultTables[0].Columns["known_malware"] != "GHSA-xxxx-malware" {
		t.Errorf("unexpected known_malware column: %v", res.ResultTables[0].Columns["known_malware"])
	}
}

func TestDetectMaliciousMetadataCombinesHeuristics(t *testing.T) {
	c := &Context{
		ComponentID: "c1",
		HeuristicResults: map[Heuristic]HeuristicResult{
			HeuristicEmptyProjectLink: HeuristicFail,
			HeuristicOneRelease:       HeuristicFail,
			HeuristicSuspiciousSetup:  HeuristicFail,
			HeuristicAnomalousVersion: HeuristicFail,
		},
	}
	res, err := DetectMaliciousMetadata(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultFailed {
		t.Fatalf("expected FAILED for all-fail combination, got %v", res.ResultType)
	}
	if res.ResultTables[0].Confidence != ConfidenceHigh {
		t.Errorf("expected HIGH confidence for all-fail combination, got %v", res.ResultTables[0].Confidence)
	}
}

func TestShouldSkipHeuristicAppliesDependency(t *testing.T) {
	results := map[Heuristic]HeuristicResult{
		HeuristicEmptyProjectLink: HeuristicPass,
	}
	if !shouldSkipHeuristic(HeuristicAnomalousVersion, results) {
		t.Error("expected anomalous_version to be skipped when empty_project_link did not fail")
	}
	results[HeuristicEmptyProjectLink] = HeuristicFail
	if shouldSkipHeuristic(HeuristicAnomalousVersion, results) {
		t.Error("expected anomalous_version not to be skipped when dependency failed")
	}
}
