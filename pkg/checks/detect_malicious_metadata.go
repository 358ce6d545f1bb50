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

	"github.com/slsa-verify/provenance-analyzer/pkg/check"
)

// Heuristic names one malware-metadata signal. The heuristics themselves —
// reading a package registry's fetched JSON metadata and deciding whether
// the project link is empty, the release cadence is anomalous, and so on —
// are the "malware heuristics that merely read a fetched JSON blob" §1
// names as an external collaborator; this check only orchestrates their
// already-computed results (injected via Context.HeuristicResults) the way
// §4.H's scheduler combines child facts, and separately folds in a known-
// malware hit from pkg/registry/osv.
type Heuristic string

const (
	HeuristicEmptyProjectLink Heuristic = "empty_project_link"
	HeuristicOneRelease       Heuristic = "one_release"
	HeuristicSuspiciousSetup  Heuristic = "suspicious_setup"
	HeuristicAnomalousVersion Heuristic = "anomalous_version"
)

// HeuristicResult mirrors the PASS/FAIL/SKIP vocabulary the original
// per-package heuristics report.
type HeuristicResult string

const (
	HeuristicPass HeuristicResult = "PASS"
	HeuristicFail HeuristicResult = "FAIL"
	HeuristicSkip HeuristicResult = "SKIP"
)

// heuristicDependsOn mirrors the original's per-heuristic skip dependency:
// a heuristic that only makes sense once a precondition heuristic has
// FAILED (e.g. version anomalies are only worth scoring once the project
// is already known to have no canonical source link).
var heuristicDependsOn = map[Heuristic][]struct {
	On       Heuristic
	Expected HeuristicResult
}{
	HeuristicAnomalousVersion: {{On: HeuristicEmptyProjectLink, Expected: HeuristicFail}},
}

// confidenceForCombo scores the heuristics that were evaluated (missing or
// SKIPPED ones are ignored): all of them FAILED scores HIGH, more than half
// FAILED scores MEDIUM, anything else LOW; no evaluated heuristic scores 0.
func confidenceForCombo(results map[Heuristic]HeuristicResult) float64 {
	failed := 0
	total := 0
	for _, h := range []Heuristic{HeuristicEmptyProjectLink, HeuristicOneRelease, HeuristicSuspiciousSetup, HeuristicAnomalousVersion} {
		r, ok := results[h]
		if !ok || r == HeuristicSkip {
			continue
		}
		total++
		if r == HeuristicFail {
			failed++
		}
	}
	switch {
	case total == 0:
		return 0
	case failed == total:
		return ConfidenceHigh
	case failed > total/2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// shouldSkipHeuristic applies heuristicDependsOn's skip rule: a heuristic
// whose precondition did not resolve to the expected result is itself
// marked SKIP rather than evaluated, matching the original's _should_skip.
func shouldSkipHeuristic(h Heuristic, results map[Heuristic]HeuristicResult) bool {
	for _, dep := range heuristicDependsOn[h] {
		if results[dep.On] != dep.Expected {
			return true
		}
	}
	return false
}

// DetectMaliciousMetadata implements §4.H's representative malware-metadata
// check: it applies the skip-dependency rule to the heuristic results
// already computed for this component (an external collaborator's job per
// §1), scores the resulting combination, and folds in any known-malware
// advisory already matched via pkg/registry/osv. The check fails (is
// actionable) when a known-malware hit exists or the heuristic combination
// scores at least MEDIUM confidence.
func DetectMaliciousMetadata(ctx context.Context, c *Context) (check.CheckResultData, error) {
	results := map[Heuristic]HeuristicResult{}
	for h, r := range c.HeuristicResults {
		if shouldSkipHeuristic(h, c.HeuristicResults) {
			results[h] = HeuristicSkip
			continue
		}
		results[h] = r
	}

	confidence := confidenceForCombo(results)

	var facts []check.CheckFact
	if c.KnownMalwareAdvisory != "" {
		facts = append(facts, newFact(c.ComponentID, "detect_malicious_metadata", ConfidenceHigh, map[string]any{
			"known_malware": c.KnownMalwareAdvisory,
			"heuristics":    heuristicColumns(results),
		}))
	}
	if confidence > 0 {
		facts = append(facts, newFact(c.ComponentID, "detect_malicious_metadata", confidence, map[string]any{
			"known_malware": "",
			"heuristics":    heuristicColumns(results),
		}))
	}

	if len(facts) == 0 {
		return check.CheckResultData{ResultType: check.ResultPassed}, nil
	}
	if c.KnownMalwareAdvisory != "" || confidence >= ConfidenceMedium {
		return check.CheckResultData{ResultType: check.ResultFailed, ResultTables: facts}, nil
	}
	return check.CheckResultData{ResultType: check.ResultPassed, ResultTables: facts}, nil
}

func heuristicColumns(results map[Heuristic]HeuristicResult) map[string]string {
	out := make(map[string]string, len(results))
	for h, r := range results {
		out[string(h)] = string(r)
	}
	return out
}
