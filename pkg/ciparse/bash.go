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
	"strings"

	"github.com/slsa-verify/provenance-analyzer/pkg/dataflow"
	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

// BashCommand is one parsed (but not yet dataflow-resolved) Bash command:
// the command word and its arguments, each as an expression Value that may
// reference variables via Read. Per the Non-goal "general-purpose Bash
// interpretation", parsing here is a simple tokenizer, not a shell grammar:
// it splits on statement separators (newline, `;`, `&&`, `||`, `|`) and
// whitespace, and recognizes `$NAME`/`${NAME}` and `${{ ... }}` (GitHub
// Actions expression) substitution sites. Quoting is honored only enough to
// keep a quoted string as one token.
type BashCommand struct {
	Cmd  *value.Value
	Args []*value.Value
}

// ParseBashScript splits script into a sequence of BashCommands, evaluated
// against varScope for variable reads.
func ParseBashScript(script string, varScope *value.Scope) []BashCommand {
	var out []BashCommand
	for _, stmt := range splitStatements(script) {
		tokens := tokenize(stmt)
		if len(tokens) == 0 {
			continue
		}
		cmd := resolveToken(tokens[0], varScope)
		var args []*value.Value
		for _, tok := range tokens[1:] {
			args = append(args, resolveToken(tok, varScope))
		}
		out = append(out, BashCommand{Cmd: cmd, Args: args})
	}
	return out
}

func splitStatements(script string) []string {
	replacer := strings.NewReplacer("&&", "\n", "||", "\n", ";", "\n", "|", "\n")
	raw := strings.Split(replacer.Replace(script), "\n")
	var out []string
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func tokenize(stmt string) []string {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == ' ' && !inSingle && !inDouble:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// resolveToken turns one whitespace-delimited token into an expression
// Value: a literal if it contains no substitution markers, else a
// STRING_CONCAT chain of literal/Read segments.
func resolveToken(tok string, varScope *value.Scope) *value.Value {
	segments := splitSubstitutions(tok)
	if len(segments) == 1 {
		if seg, isVar := segments[0].asVarRef(); isVar {
			return value.Read(value.NewLocation(varScope, value.Variable(value.StringLiteral(seg))))
		}
		return value.StringLiteral(segments[0].literal)
	}
	vals := make([]*value.Value, len(segments))
	for i, seg := range segments {
		if name, isVar := seg.asVarRef(); isVar {
			vals[i] = value.Read(value.NewLocation(varScope, value.Variable(value.StringLiteral(name))))
		} else {
			vals[i] = value.StringLiteral(seg.literal)
		}
	}
	return value.ConcatAll(vals...)
}

type tokenSegment struct {
	literal string
	varName string
	isVar   bool
}

func (t tokenSegment) asVarRef() (string, bool) { return t.varName, t.isVar }

// splitSubstitutions breaks tok into literal and $VAR/${VAR}/${{ expr }}
// segments.
func splitSubstitutions(tok string) []tokenSegment {
	var out []tokenSegment
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			out = append(out, tokenSegment{literal: lit.String()})
			lit.Reset()
		}
	}
	i := 0
	for i < len(tok) {
		if tok[i] == '$' && i+1 < len(tok) && tok[i+1] == '{' {
			end := strings.Index(tok[i:], "}")
			if end < 0 {
				lit.WriteByte(tok[i])
				i++
				continue
			}
			inner := tok[i+2 : i+end]
			flushLit()
			inner = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(inner), "{"))
			inner = strings.TrimSuffix(inner, "}")
			out = append(out, tokenSegment{varName: strings.TrimSpace(inner), isVar: true})
			i += end + 1
			continue
		}
		if tok[i] == '$' && i+1 < len(tok) && isIdentStart(tok[i+1]) {
			j := i + 1
			for j < len(tok) && isIdentByte(tok[j]) {
				j++
			}
			flushLit()
			out = append(out, tokenSegment{varName: tok[i+1 : j], isVar: true})
			i = j
			continue
		}
		lit.WriteByte(tok[i])
		i++
	}
	flushLit()
	if len(out) == 0 {
		return []tokenSegment{{literal: ""}}
	}
	return out
}

func isIdentStart(b byte) bool { return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// BashSingleCommandNode is the leaf node produced by materializing one
// BashCommand. It records the resolved argv expressions and the set of
// secrets reachable at the command site, and its effect is a no-op write
// (commands this analyzer doesn't otherwise model don't mutate tracked
// state) — component D separately evaluates Cmd/Args against the enclosing
// dataflow state to classify build/deploy commands.
type BashSingleCommandNode struct {
	*dataflow.StatementNode
	Cmd              *value.Value
	Args             []*value.Value
	ReachableSecrets []string
}

// NewBashSingleCommandNode builds one command node, computing its reachable
// secrets via FindSecrets against varScope.
func NewBashSingleCommandNode(cmd BashCommand, varScope *value.Scope) *BashSingleCommandNode {
	secrets := map[string]bool{}
	FindSecrets(cmd.Cmd, varScope, secrets)
	for _, a := range cmd.Args {
		FindSecrets(a, varScope, secrets)
	}
	var names []string
	for s := range secrets {
		names = append(names, s)
	}
	stmt := dataflow.NewStatementNode(func(before *value.State) map[dataflow.ExitType]*value.State {
		return map[dataflow.ExitType]*value.State{dataflow.DefaultExit: before.Clone()}
	}, nil)
	return &BashSingleCommandNode{StatementNode: stmt, Cmd: cmd.Cmd, Args: cmd.Args, ReachableSecrets: names}
}

// FindSecrets implements the FindSecretsVisitor of §4.C: walk v
// recursively; whenever a Read names a Variable("secrets.X") within
// varScope, record X into found.
func FindSecrets(v *value.Value, varScope *value.Scope, found map[string]bool) {
	if v == nil {
		return
	}
	switch v.Kind {
	case value.KindRead:
		loc := v.Loc
		if loc != nil && loc.Scope == varScope && loc.Spec.Kind == value.SpecVariable {
			if name, ok := loc.Spec.Name.AsLiteral(); ok && strings.HasPrefix(name, "secrets.") {
				found[strings.TrimPrefix(name, "secrets.")] = true
			}
		}
	case value.KindUnaryStringOp:
		FindSecrets(v.UnaryOperand, varScope, found)
	case value.KindBinaryStringOp:
		FindSecrets(v.Left, varScope, found)
		FindSecrets(v.Right, varScope, found)
	case value.KindInstalledPackage:
		FindSecrets(v.PkgName, varScope, found)
		FindSecrets(v.PkgVersion, varScope, found)
		FindSecrets(v.PkgDistribution, varScope, found)
		FindSecrets(v.PkgURL, varScope, found)
	case value.KindSymbolic:
		FindSecrets(v.Inner, varScope, found)
	case value.KindSingleBashTokenConstraint:
		FindSecrets(v.Constrained, varScope, found)
	}
}

// RawBashScriptNode expands a Bash script into BashSingleCommandNodes
// through interpretation, matching §4.C: "A Bash script is turned into a
// single RawBashScriptNode that expands to BashSingleCommandNodes through
// interpretation."
func RawBashScriptNode(script string, varScope *value.Scope, filter dataflow.TransferFilter) *dataflow.InterpretationNode {
	return dataflow.NewInterpretationNode(func(before *value.State) map[dataflow.InterpretationKey]dataflow.Node {
		commands := ParseBashScript(script, varScope)
		alts := make(map[dataflow.InterpretationKey]dataflow.Node, len(commands))
		for i, c := range commands {
			key := dataflow.InterpretationKey(indexKey(i))
			alts[key] = NewBashSingleCommandNode(c, varScope)
		}
		return alts
	}, filter)
}

func indexKey(i int) string {
	const digits = "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return string(b)
}
