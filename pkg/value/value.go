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

package value

import "strings"

// UnaryOp is the set of unary string operators a Value can carry.
type UnaryOp string

const (
	Basename     UnaryOp = "BASENAME"
	Base64Encode UnaryOp = "BASE64_ENCODE"
	Base64Decode UnaryOp = "BASE64_DECODE"
)

// BinaryOp is the set of binary string operators a Value can carry.
type BinaryOp string

const (
	StringConcat BinaryOp = "STRING_CONCAT"
)

// Value is a tagged variant over the abstract values the analysis tracks.
// Exactly one of the typed fields is populated, selected by Kind. Values
// compare structurally (Equal), except that a Read's Location compares its
// scope by object identity, so Reads of structurally equal Locations in
// distinct scopes are unequal. Key renders scopes by name and so does not
// tell such Reads apart.
type Value struct {
	Kind Kind

	// StringLiteral
	Literal string

	// Read
	Loc *Location

	// ArbitraryNewData
	OriginTag string

	// UnaryStringOp
	UnaryOp      UnaryOp
	UnaryOperand *Value

	// BinaryStringOp
	BinOp BinaryOp
	Left  *Value
	Right *Value

	// InstalledPackage
	PkgName         *Value
	PkgVersion      *Value
	PkgDistribution *Value
	PkgURL          *Value

	// Symbolic
	Inner *Value

	// ParameterPlaceholderValue
	ParamName string

	// SingleBashTokenConstraint
	Constrained *Value
}

// Kind enumerates the Value variants.
type Kind int

const (
	KindStringLiteral Kind = iota
	KindRead
	KindArbitraryNewData
	KindUnaryStringOp
	KindBinaryStringOp
	KindInstalledPackage
	KindSymbolic
	KindParameterPlaceholder
	KindSingleBashTokenConstraint
)

// StringLiteral constructs a literal string value.
func StringLiteral(s string) *Value { return &Value{Kind: KindStringLiteral, Literal: s} }

// Read constructs a value that reads the current contents of loc.
func Read(loc *Location) *Value { return &Value{Kind: KindRead, Loc: loc} }

// ArbitraryNewData constructs an opaque value with provenance origin, used
// when a statement introduces data the analysis cannot characterize further
// (e.g. network downloads, random generation).
func ArbitraryNewData(originTag string) *Value {
	return &Value{Kind: KindArbitraryNewData, OriginTag: originTag}
}

// Unary constructs a unary string operation over operand.
func Unary(op UnaryOp, operand *Value) *Value {
	return &Value{Kind: KindUnaryStringOp, UnaryOp: op, UnaryOperand: operand}
}

// InstalledPackage constructs an installed-language-package descriptor.
func InstalledPackage(name, version, distribution, url *Value) *Value {
	return &Value{Kind: KindInstalledPackage, PkgName: name, PkgVersion: version, PkgDistribution: distribution, PkgURL: url}
}

// Symbolic wraps v to mark it as symbolic (not evaluated) rather than a
// concrete literal — e.g. the unexpanded result of an opaque third-party
// action.
func Symbolic(v *Value) *Value { return &Value{Kind: KindSymbolic, Inner: v} }

// ParameterPlaceholder constructs the placeholder value substituted by a
// ParameterPlaceholderTransformer when instantiating a generic effect model.
func ParameterPlaceholder(name string) *Value {
	return &Value{Kind: KindParameterPlaceholder, ParamName: name}
}

// SingleBashTokenConstraint wraps v to assert it must evaluate to exactly
// one whitespace-free Bash token (used when modeling primitives like `cd`
// whose argument cannot itself contain an embedded IFS split).
func SingleBashTokenConstraint(v *Value) *Value {
	return &Value{Kind: KindSingleBashTokenConstraint, Constrained: v}
}

// StringConcat performs STRING_CONCAT with constant folding:
//   - "" + x == x, x + "" == x
//   - literal + literal == literal (concatenated)
//   - nested concats with adjacent literals re-associate so the literal runs
//     merge, e.g. (a+"b")+"c" == a+"bc"
func StringConcat(a, b *Value) *Value {
	if a.Kind == KindStringLiteral && a.Literal == "" {
		return b
	}
	if b.Kind == KindStringLiteral && b.Literal == "" {
		return a
	}
	if a.Kind == KindStringLiteral && b.Kind == KindStringLiteral {
		return StringLiteral(a.Literal + b.Literal)
	}
	// Re-associate: (x + "lit1") + "lit2" => x + ("lit1"+"lit2")
	if a.Kind == KindBinaryStringOp && a.BinOp == StringConcat &&
		a.Right.Kind == KindStringLiteral && b.Kind == KindStringLiteral {
		return StringConcat(a.Left, StringLiteral(a.Right.Literal+b.Literal))
	}
	// Re-associate: "lit1" + ("lit2" + x) => ("lit1"+"lit2") + x
	if b.Kind == KindBinaryStringOp && b.BinOp == StringConcat &&
		b.Left.Kind == KindStringLiteral && a.Kind == KindStringLiteral {
		return StringConcat(StringLiteral(a.Literal+b.Left.Literal), b.Right)
	}
	return &Value{Kind: KindBinaryStringOp, BinOp: StringConcat, Left: a, Right: b}
}

// ConcatAll folds StringConcat across vs left-to-right; an empty vs yields
// the empty string literal.
func ConcatAll(vs ...*Value) *Value {
	if len(vs) == 0 {
		return StringLiteral("")
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		acc = StringConcat(acc, v)
	}
	return acc
}

// Equal reports structural equality between two Values. Scope identity
// inside any referenced Location participates via Location.Equal's identity
// comparison, so structurally-equal-but-differently-scoped Reads are
// unequal, matching §4.A.
func (v *Value) Equal(o *Value) bool {
	if v == o {
		return true
	}
	if v == nil || o == nil || v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindStringLiteral:
		return v.Literal == o.Literal
	case KindRead:
		return v.Loc.Equal(o.Loc)
	case KindArbitraryNewData:
		return v.OriginTag == o.OriginTag
	case KindUnaryStringOp:
		return v.UnaryOp == o.UnaryOp && v.UnaryOperand.Equal(o.UnaryOperand)
	case KindBinaryStringOp:
		return v.BinOp == o.BinOp && v.Left.Equal(o.Left) && v.Right.Equal(o.Right)
	case KindInstalledPackage:
		return v.PkgName.Equal(o.PkgName) && v.PkgVersion.Equal(o.PkgVersion) &&
			v.PkgDistribution.Equal(o.PkgDistribution) && v.PkgURL.Equal(o.PkgURL)
	case KindSymbolic:
		return v.Inner.Equal(o.Inner)
	case KindParameterPlaceholder:
		return v.ParamName == o.ParamName
	case KindSingleBashTokenConstraint:
		return v.Constrained.Equal(o.Constrained)
	default:
		return false
	}
}

// Key returns a stable string usable as a map key: v.Equal(o) implies
// v.Key() == o.Key(). The converse fails only for Reads in distinct scopes
// that share a name, since Location.Key renders a scope by its name.
func (v *Value) Key() string { return v.sexpr(true) }

// String renders the debug s-expression form defined in §6. It round-trips
// for values built only from literals, reads, unary/binary ops and installed
// packages (scope identity excluded, per spec).
func (v *Value) String() string { return v.sexpr(false) }

func (v *Value) sexpr(forKey bool) string {
	if v == nil {
		return "$nil"
	}
	switch v.Kind {
	case KindStringLiteral:
		return "$StringLiteral(" + quote(v.Literal) + ")"
	case KindRead:
		return "$Read(" + v.Loc.sexpr(forKey) + ")"
	case KindArbitraryNewData:
		return "$ArbitraryNewData(" + quote(v.OriginTag) + ")"
	case KindUnaryStringOp:
		return "$UnaryStringOp(" + string(v.UnaryOp) + ", " + v.UnaryOperand.sexpr(forKey) + ")"
	case KindBinaryStringOp:
		return "$BinaryStringOp(" + string(v.BinOp) + ", " + v.Left.sexpr(forKey) + ", " + v.Right.sexpr(forKey) + ")"
	case KindInstalledPackage:
		return "$InstalledPackage(" + v.PkgName.sexpr(forKey) + "," + v.PkgVersion.sexpr(forKey) + "," +
			v.PkgDistribution.sexpr(forKey) + "," + v.PkgURL.sexpr(forKey) + ")"
	case KindSymbolic:
		return "$Symbolic(" + v.Inner.sexpr(forKey) + ")"
	case KindParameterPlaceholder:
		return "$ParameterPlaceholderValue(" + quote(v.ParamName) + ")"
	case KindSingleBashTokenConstraint:
		return "$SingleBashTokenConstraint(" + v.Constrained.sexpr(forKey) + ")"
	default:
		return "$Unknown"
	}
}

// AsLiteral returns the literal string and true iff v is a fully-resolved
// StringLiteral.
func (v *Value) AsLiteral() (string, bool) {
	if v != nil && v.Kind == KindStringLiteral {
		return v.Literal, true
	}
	return "", false
}

// quote renders s as a `\`-escaped, double-quoted string per the §6 debug
// grammar.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
