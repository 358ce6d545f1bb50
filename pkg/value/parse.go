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

import "github.com/pkg/errors"

// Parse decodes the §6 debug s-expression grammar back into a Value. It
// supports the subset required to round-trip: literals, reads, unary/binary
// ops and installed-package terms. Scope identity is reconstructed as a
// fresh *Scope per distinct name encountered (identity is explicitly
// out-of-band per §4.A).
func Parse(s string) (*Value, error) {
	p := &parser{s: s}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, errors.Errorf("trailing input at offset %d: %q", p.pos, p.s[p.pos:])
	}
	return v, nil
}

type parser struct {
	s      string
	pos    int
	scopes map[string]*Scope
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) expect(tok string) error {
	p.skipSpace()
	if p.pos+len(tok) > len(p.s) || p.s[p.pos:p.pos+len(tok)] != tok {
		return errors.Errorf("expected %q at offset %d, got %q", tok, p.pos, p.s[p.pos:])
	}
	p.pos += len(tok)
	return nil
}

// readCtor reads a `$Name` constructor tag and returns Name.
func (p *parser) readCtor() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '$' {
		return "", errors.Errorf("expected constructor at offset %d", p.pos)
	}
	start := p.pos
	p.pos++
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start+1 : p.pos], nil
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *parser) parseString() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '"' {
		return "", errors.Errorf("expected string at offset %d", p.pos)
	}
	p.pos++
	var out []byte
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return string(out), nil
		}
		if c == '\\' && p.pos+1 < len(p.s) {
			p.pos++
			out = append(out, p.s[p.pos])
			p.pos++
			continue
		}
		out = append(out, c)
		p.pos++
	}
	return "", errors.New("unterminated string")
}

func (p *parser) parseValue() (*Value, error) {
	ctor, err := p.readCtor()
	if err != nil {
		return nil, err
	}
	switch ctor {
	case "StringLiteral":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return StringLiteral(s), nil
	case "Read":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		loc, err := p.parseLocation()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return Read(loc), nil
	case "ArbitraryNewData":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return ArbitraryNewData(s), nil
	case "UnaryStringOp":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		op, err := p.parseBareOp()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		operand, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return &Value{Kind: KindUnaryStringOp, UnaryOp: UnaryOp(op), UnaryOperand: operand}, nil
	case "BinaryStringOp":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		op, err := p.parseBareOp()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		left, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		right, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		// Use literal struct construction (not StringConcat helper) so the
		// round-trip preserves an un-folded tree exactly as written.
		return &Value{Kind: KindBinaryStringOp, BinOp: BinaryOp(op), Left: left, Right: right}, nil
	case "InstalledPackage":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		name, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		version, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		dist, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		url, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return InstalledPackage(name, version, dist, url), nil
	default:
		return nil, errors.Errorf("unknown Value constructor %q", ctor)
	}
}

func (p *parser) parseBareOp() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) && (isIdentByte(p.s[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", errors.Errorf("expected operator at offset %d", p.pos)
	}
	return p.s[start:p.pos], nil
}

func (p *parser) parseLocation() (*Location, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	scopeName, err := p.readCtor()
	if err != nil {
		return nil, err
	}
	if scopeName != "Scope" {
		return nil, errors.Errorf("expected $Scope, got $%s", scopeName)
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	name, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}
	spec, err := p.parseSpec()
	if err != nil {
		return nil, err
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	if p.scopes == nil {
		p.scopes = map[string]*Scope{}
	}
	sc, ok := p.scopes[name]
	if !ok {
		sc = NewScope(name, nil)
		p.scopes[name] = sc
	}
	return NewLocation(sc, spec), nil
}

func (p *parser) parseSpec() (LocationSpecifier, error) {
	ctor, err := p.readCtor()
	if err != nil {
		return LocationSpecifier{}, err
	}
	switch ctor {
	case "Filesystem":
		v, err := p.parseParenValue()
		return Filesystem(v), err
	case "Variable":
		v, err := p.parseParenValue()
		return Variable(v), err
	case "Artifact":
		if err := p.expect("("); err != nil {
			return LocationSpecifier{}, err
		}
		name, err := p.parseValue()
		if err != nil {
			return LocationSpecifier{}, err
		}
		if err := p.expect(","); err != nil {
			return LocationSpecifier{}, err
		}
		file, err := p.parseValue()
		if err != nil {
			return LocationSpecifier{}, err
		}
		if err := p.expect(")"); err != nil {
			return LocationSpecifier{}, err
		}
		return Artifact(name, file), nil
	case "FilesystemAnyUnderDir":
		v, err := p.parseParenValue()
		return FilesystemAnyUnderDir(v), err
	case "ArtifactAnyFilename":
		v, err := p.parseParenValue()
		return ArtifactAnyFilename(v), err
	case "Console":
		return Console(), nil
	case "Installed":
		v, err := p.parseParenValue()
		return Installed(v), err
	case "ParameterPlaceholderLocation":
		v, err := p.parseParenValue()
		return ParameterPlaceholderLocation(v), err
	default:
		return LocationSpecifier{}, errors.Errorf("unknown LocationSpecifier constructor %q", ctor)
	}
}

func (p *parser) parseParenValue() (*Value, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return v, nil
}
