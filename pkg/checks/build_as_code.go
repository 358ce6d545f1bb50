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
	"sort"

	"github.com/slsa-verify/provenance-analyzer/pkg/buildtool"
	"github.com/slsa-verify/provenance-analyzer/pkg/check"
	"github.com/slsa-verify/provenance-analyzer/pkg/provenance"
)

// buildAsCodeFact is the persisted row mcn_build_as_code_1 writes, per §3's
// "CheckFact (polymorphic)" and §4.H's enumerated columns.
type buildAsCodeFact struct {
	CIPath         string
	BuildTool      string
	DeployCommand  string
	Language       string
	TrustedPublish bool
	CallerWorkflow string
	Events         []string
}

type buildAsCodeFactRecord struct {
	fact       buildAsCodeFact
	confidence float64
}

// BuildAsCode implements §4.H: for each CI config with a non-empty
// callgraph, enumerate trusted-publish Action call sites and build-tool
// deploy commands, falling back to keyword search when nothing parsed.
// The check passes iff any fact was produced; the highest-confidence fact
// is reported first.
func BuildAsCode(ctx context.Context, c *Context) (check.CheckResultData, error) {
	var facts []buildAsCodeFactRecord

	for ciPath, steps := range c.TrustedPublishCallSites {
		events := c.WorkflowEvents[ciPath]
		for _, call := range steps {
			facts = append(facts, buildAsCodeFactRecord{
				fact: buildAsCodeFact{
					CIPath:         ciPath,
					BuildTool:      call.Action,
					TrustedPublish: true,
					CallerWorkflow: ciPath,
					Events:         events,
				},
				confidence: trustedPublishConfidence(ciPath, c.Provenances),
			})
		}
	}

	for ciPath, forest := range c.Forests {
		events := c.WorkflowEvents[ciPath]
		cmds := buildtool.Detect(forest, ciPath, events, c.FilesystemScope, buildtool.KnownBuildTools)
		for _, cmd := range cmds {
			if !isDeployCommand(cmd) {
				continue
			}
			facts = append(facts, buildAsCodeFactRecord{
				fact: buildAsCodeFact{
					CIPath:        ciPath,
					BuildTool:     cmd.Language,
					DeployCommand: cmd.String(),
					Language:      cmd.Language,
					Events:        cmd.Events,
				},
				confidence: ConfidenceMedium,
			})
		}
	}

	if len(facts) == 0 {
		facts = append(facts, keywordFallbackFacts(c)...)
	}

	if len(facts) == 0 {
		return check.CheckResultData{ResultType: check.ResultFailed}, nil
	}

	sort.SliceStable(facts, func(i, j int) bool { return facts[i].confidence > facts[j].confidence })

	tables := make([]check.CheckFact, len(facts))
	for i, f := range facts {
		tables[i] = newFact(c.ComponentID, "build_as_code", f.confidence, map[string]any{
			"ci_path":         f.fact.CIPath,
			"build_tool":      f.fact.BuildTool,
			"deploy_command":  f.fact.DeployCommand,
			"language":        f.fact.Language,
			"trusted_publish": f.fact.TrustedPublish,
			"caller_workflow": f.fact.CallerWorkflow,
			"events":          f.fact.Events,
		})
	}
	return check.CheckResultData{ResultType: check.ResultPassed, ResultTables: tables}, nil
}

// deploySubcommands classifies a resolved argv token as a deploy/publish
// invocation rather than a plain build step. Real per-tool classification
// (asking the tool itself "is this your deploy subcommand") would need a
// richer model than pkg/buildtool.BuildTool.Matches defines; this check
// applies the keyword-level heuristic §4.H step 2 describes ("classified
// as a deploy command by the build tool").
var deploySubcommands = map[string]bool{
	"publish": true, "deploy": true, "push": true, "upload": true, "release": true,
}

func isDeployCommand(cmd buildtool.BuildToolCommand) bool {
	for _, arg := range cmd.Command {
		if deploySubcommands[arg] {
			return true
		}
	}
	return false
}

// trustedPublishConfidence scores a trusted-publish call site HIGH if the
// provenance-reported workflow matches ciPath, else MEDIUM — it clearly
// ran under *some* trusted-publish action, just not confirmed against
// provenance (§4.H step 1: "compute a confidence score based on whether
// the provenance-reported workflow matches").
func trustedPublishConfidence(ciPath string, provenances []*provenance.Envelope) float64 {
	for _, env := range provenances {
		inv, err := provenance.ExtractBuildInvocation(env)
		if err != nil || inv == nil {
			continue
		}
		if inv.WorkflowPathOrName == ciPath {
			return ConfidenceHigh
		}
	}
	return ConfidenceMedium
}

// keywordFallbackFacts builds LOW-confidence facts from any keyword-search
// hits already collected for providers whose config never parses into a
// forest (Travis/CircleCI/GitLab CI/Jenkins), per §4.H step 3.
func keywordFallbackFacts(c *Context) []buildAsCodeFactRecord {
	var out []buildAsCodeFactRecord
	for provider, matches := range c.KeywordMatches {
		for _, m := range matches {
			out = append(out, buildAsCodeFactRecord{
				fact: buildAsCodeFact{
					CIPath:        m.Path,
					BuildTool:     provider,
					DeployCommand: m.Keyword,
				},
				confidence: ConfidenceLow,
			})
		}
	}
	return out
}
