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

// Package buildtool walks a dataflow.NodeForest in BFS order to detect
// build-tool invocations: for each Bash command, it resolves argv to
// concrete strings, asks each registered BuildTool whether it recognizes
// the command, and on a match harvests installed-language facts and
// enclosing CI context (§4.D).
package buildtool

import (
	"sort"

	"github.com/slsa-verify/provenance-analyzer/pkg/ciparse"
	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

// UnknownArgSentinel is substituted for any argv position the dataflow
// state cannot fully resolve to a literal, per §4.D step 1.
const UnknownArgSentinel = "$CI_ANALYSIS_UNKNOWN"

// BuildTool recognizes a resolved argv as one of its own invocations.
type BuildTool struct {
	// Language is the name this tool's installed-language facts are
	// recorded under, e.g. "python", "node".
	Language string
	// Matches reports whether argv (cmd followed by args, fully resolved
	// or UnknownArgSentinel) looks like an invocation of this build tool.
	Matches func(argv []string) bool
}

// KnownBuildTools is the registry of recognized build tools. Matching
// checks argv[0] (the resolved command name) against common entrypoints;
// this catches the overwhelming majority of real CI usage without needing
// a full argument grammar per tool.
var KnownBuildTools = []BuildTool{
	{Language: "node", Matches: firstArgIn("npm", "yarn", "pnpm")},
	{Language: "python", Matches: firstArgIn("pip", "pip3", "python", "python3", "poetry", "tox")},
	{Language: "maven", Matches: firstArgIn("mvn", "mvnw", "./mvnw")},
	{Language: "gradle", Matches: firstArgIn("gradle", "gradlew", "./gradlew")},
	{Language: "go", Matches: firstArgIn("go")},
	{Language: "cargo", Matches: firstArgIn("cargo")},
	{Language: "ruby", Matches: firstArgIn("gem", "bundle", "rake")},
}

func firstArgIn(names ...string) func([]string) bool {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(argv []string) bool {
		return len(argv) > 0 && set[argv[0]]
	}
}

// BuildToolCommand is the fact yielded per detected command, per §3's
// glossary entry.
type BuildToolCommand struct {
	CIPath                string
	Command               []string
	StepNode              dataflow.Node
	Language              string
	LanguageVersions      []string
	LanguageDistributions []string
	LanguageURL           string
	ReachableSecrets      []string
	Events                []string
}

// String renders a stable, deterministic form used to sort the output
// sequence, per §4.D step 4.
func (c BuildToolCommand) String() string {
	s := c.CIPath + "|" + c.Language + "|"
	for _, a := range c.Command {
		s += a + " "
	}
	return s
}

// Detect walks forest in BFS order, resolving every BashSingleCommandNode's
// argv against its own before-state and matching it against tools.
func Detect(forest *dataflow.NodeForest, ciPath string, workflowEvents []string, filesystemScope *value.Scope, tools []BuildTool) []BuildToolCommand {
	var out []BuildToolCommand
	visit := func(n dataflow.Node) {
		cmdNode, ok := n.(*ciparse.BashSingleCommandNode)
		if !ok {
			return
		}
		before := cmdNode.BeforeState()
		argv := resolveArgv(cmdNode, before)
		for _, tool := range tools {
			if !tool.Matches(argv) {
				continue
			}
			versions, distros, url := harvestInstalledLanguage(before, filesystemScope, tool.Language)
			out = append(out, BuildToolCommand{
				CIPath:                ciPath,
				Command:               argv,
				StepNode:              cmdNode,
				Language:              tool.Language,
				LanguageVersions:      versions,
				LanguageDistributions: distros,
				LanguageURL:           url,
				ReachableSecrets:      append([]string(nil), cmdNode.ReachableSecrets...),
				Events:                workflowEvents,
			})
			break
		}
	}
	// A Run step's Bash commands are materialized lazily as an
	// InterpretationNode's children rather than appearing in the forest's
	// static Tree, so BFS over Trees is supplemented with a walk into any
	// InterpretationNode encountered.
	forest.BFS(func(t *dataflow.Tree) {
		if interp, ok := t.Node.(*dataflow.InterpretationNode); ok {
			for _, child := range interp.Children() {
				visit(child)
			}
			return
		}
		visit(t.Node)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// resolveArgv evaluates cmd and each arg against before, substituting
// UnknownArgSentinel for any position that isn't a fully-resolved literal.
func resolveArgv(n *ciparse.BashSingleCommandNode, before *value.State) []string {
	argv := make([]string, 0, len(n.Args)+1)
	argv = append(argv, resolveOne(n.Cmd, before))
	for _, a := range n.Args {
		argv = append(argv, resolveOne(a, before))
	}
	return argv
}

// resolveOne evaluates v to a literal string: literals resolve directly;
// Reads resolve if every value recorded at their location is itself a
// literal and there is exactly one; anything else is unresolved.
func resolveOne(v *value.Value, before *value.State) string {
	if v == nil {
		return UnknownArgSentinel
	}
	if lit, ok := v.AsLiteral(); ok {
		return lit
	}
	if v.Kind == value.KindRead {
		vals := before.Values(v.Loc)
		if len(vals) == 1 {
			if lit, ok := vals[0].Value.AsLiteral(); ok {
				return lit
			}
		}
	}
	return UnknownArgSentinel
}

// harvestInstalledLanguage reads installed-language facts recorded at
// Read(Location(filesystemScope, Installed(literal(language)))), per §4.D
// step 2. The InstalledPackage descriptor's PkgVersion/PkgDistribution/
// PkgURL fields are reported when they resolve to literals.
func harvestInstalledLanguage(before *value.State, filesystemScope *value.Scope, language string) (versions, distros []string, url string) {
	loc := value.NewLocation(filesystemScope, value.Installed(value.StringLiteral(language)))
	for _, ve := range before.Values(loc) {
		pkg := ve.Value
		if pkg.Kind != value.KindInstalledPackage {
			continue
		}
		if v, ok := pkg.PkgVersion.AsLiteral(); ok {
			versions = append(versions, v)
		}
		if d, ok := pkg.PkgDistribution.AsLiteral(); ok {
			distros = append(distros, d)
		}
		if u, ok := pkg.PkgURL.AsLiteral(); ok && url == "" {
			url = u
		}
	}
	sort.Strings(versions)
	sort.Strings(distros)
	return versions, distros, url
}

// InstalledLanguageFact is the write statement that records an
// installed-language descriptor at the location harvestInstalledLanguage
// reads from, used by action models (e.g. actions/setup-node) that install
// a language runtime as a side effect.
func InstalledLanguageFact(filesystemScope *value.Scope, language string, version, distribution, url *value.Value) ciparse.WriteStatement {
	loc := value.NewLocation(filesystemScope, value.Installed(value.StringLiteral(language)))
	return ciparse.WriteStatement{
		Loc: loc,
		Val: value.InstalledPackage(value.StringLiteral(language), version, distribution, url),
	}
}
