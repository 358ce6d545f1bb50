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
	"regexp"
	"sort"
	"strings"

	"github.com/slsa-verify/provenance-analyzer/pkg/check"
)

// dockerfileIssue is one pattern match found in a Dockerfile, scored
// independently and summed into a risk score the way the DFScan-derived
// rule set the original check is built on does.
type dockerfileIssue struct {
	Rule   string
	Line   int
	Detail string
	Weight int
}

var (
	fromRe       = regexp.MustCompile(`(?i)^\s*FROM\s+(\S+)`)
	userRe       = regexp.MustCompile(`(?i)^\s*USER\s+\S+`)
	addRe        = regexp.MustCompile(`(?i)^\s*ADD\s+`)
	curlPipeRe   = regexp.MustCompile(`(?i)(curl|wget)[^|]*\|\s*(sudo\s+)?(ba)?sh`)
	sensitiveEnv = regexp.MustCompile(`(?i)^\s*ENV\s+\S*(pass|pswd|token|secret|license|session|key|authorized)\S*\s*=`)
	unsafeVolume = regexp.MustCompile(`(?i)^\s*VOLUME\s+.*(/var/run/docker\.sock|/root/\.ssh|/etc/docker|/proc\b)`)
)

// analyzeDockerfile scans raw Dockerfile content line by line for the
// representative subset of DFScan's insecure patterns §4.H calls out:
// unpinned base images, ADD instead of COPY, missing USER, curl-pipe-to-
// shell install steps, hardcoded secret-shaped ENV assignments and
// dangerous bind mounts.
func analyzeDockerfile(content string) (issues []dockerfileIssue, baseImage, baseVersion string, hasUser bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		n := i + 1
		if m := fromRe.FindStringSubmatch(line); m != nil {
			ref := m[1]
			name, version := ref, "latest"
			if idx := strings.LastIndex(ref, ":"); idx > 0 && !strings.Contains(ref[idx:], "/") {
				name, version = ref[:idx], ref[idx+1:]
			}
			baseImage = name
			baseVersion = version
			if version == "latest" {
				issues = append(issues, dockerfileIssue{Rule: "unpinned_base_image", Line: n, Detail: ref, Weight: 20})
			}
			continue
		}
		if userRe.MatchString(line) {
			hasUser = true
			continue
		}
		if addRe.MatchString(line) {
			issues = append(issues, dockerfileIssue{Rule: "add_instead_of_copy", Line: n, Detail: strings.TrimSpace(line), Weight: 10})
			continue
		}
		if curlPipeRe.MatchString(line) {
			issues = append(issues, dockerfileIssue{Rule: "curl_pipe_to_shell", Line: n, Detail: strings.TrimSpace(line), Weight: 30})
			continue
		}
		if sensitiveEnv.MatchString(line) {
			issues = append(issues, dockerfileIssue{Rule: "hardcoded_secret_env", Line: n, Detail: strings.TrimSpace(line), Weight: 25})
			continue
		}
		if unsafeVolume.MatchString(line) {
			issues = append(issues, dockerfileIssue{Rule: "unsafe_bind_mount", Line: n, Detail: strings.TrimSpace(line), Weight: 25})
			continue
		}
	}
	if !hasUser {
		issues = append(issues, dockerfileIssue{Rule: "missing_user_directive", Line: 0, Detail: "runs as root", Weight: 15})
	}
	return issues, baseImage, baseVersion, hasUser
}

// riskScore sums issue weights, capped at 100 the way the original's 0-100
// risk_score column is bounded.
func riskScore(issues []dockerfileIssue) int {
	total := 0
	for _, iss := range issues {
		total += iss.Weight
	}
	if total > 100 {
		total = 100
	}
	return total
}

// DockerfileSecurity implements mcn_dockerfile_security_1: scan every
// Dockerfile found in the component's checkout for the insecure patterns
// analyzeDockerfile recognizes, reporting one fact per file with its base
// image, issue list and aggregate risk score. Any file with a non-zero risk
// score makes the check FAIL; a component with no Dockerfiles, or only clean
// ones, PASSES. The check has no parents, so the scheduler never skips it and
// its ResultOnSkip (FAILED) does not come into play.
func DockerfileSecurity(ctx context.Context, c *Context) (check.CheckResultData, error) {
	if len(c.DockerfilePaths) == 0 {
		return check.CheckResultData{ResultType: check.ResultPassed}, nil
	}

	paths := make([]string, 0, len(c.DockerfilePaths))
	for p := range c.DockerfilePaths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var facts []check.CheckFact
	failing := false
	for _, path := range paths {
		content := c.DockerfilePaths[path]
		issues, baseImage, baseVersion, hasUser := analyzeDockerfile(content)
		score := riskScore(issues)
		if score == 0 {
			continue
		}
		failing = true

		issueDetails := make([]map[string]any, len(issues))
		for i, iss := range issues {
			issueDetails[i] = map[string]any{
				"rule":   iss.Rule,
				"line":   iss.Line,
				"detail": iss.Detail,
				"weight": iss.Weight,
			}
		}

		confidence := ConfidenceLow
		switch {
		case score >= 60:
			confidence = ConfidenceHigh
		case score >= 30:
			confidence = ConfidenceMedium
		}

		facts = append(facts, newFact(c.ComponentID, "dockerfile_security", confidence, map[string]any{
			"path":                path,
			"base_image_name":    baseImage,
			"base_image_version": baseVersion,
			"has_user":           hasUser,
			"security_issues":    issueDetails,
			"risk_score":         score,
			"issues_count":       len(issues),
		}))
	}

	if len(facts) == 0 {
		return check.CheckResultData{ResultType: check.ResultPassed}, nil
	}
	if failing {
		return check.CheckResultData{ResultType: check.ResultFailed, ResultTables: facts}, nil
	}
	return check.CheckResultData{ResultType: check.ResultPassed, ResultTables: facts}, nil
}
