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

package purl

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantType string
		wantNS   string
		wantName string
		wantVer  string
	}{
		{"pkg:npm/left-pad@1.3.0", "npm", "", "left-pad", "1.3.0"},
		{"pkg:github/pypa/pip@23.0", "github", "pypa", "pip", "23.0"},
		{"pkg:pypi/requests", "pypi", "", "requests", ""},
	}
	for _, tc := range tests {
		p, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if p.Type != tc.wantType || p.Namespace != tc.wantNS || p.Name != tc.wantName || p.Version != tc.wantVer {
			t.Errorf("Parse(%q) = %+v, want type=%s ns=%s name=%s ver=%s", tc.in, p, tc.wantType, tc.wantNS, tc.wantName, tc.wantVer)
		}
	}
}

func TestParseRejectsNonPurl(t *testing.T) {
	if _, err := Parse("https://example.com"); err == nil {
		t.Errorf("expected an error parsing a non-purl string")
	}
}

func TestRepoURLEquivalent(t *testing.T) {
	p, err := Parse("pkg:github/pypa/pip@23.0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cases := []struct {
		url  string
		want bool
	}{
		{"https://github.com/pypa/pip", true},
		{"https://GITHUB.com/pypa/pip.git", true},
		{"https://github.com/pypa/other", false},
		{"https://gitlab.com/pypa/pip", false},
	}
	for _, c := range cases {
		if got := p.RepoURLEquivalent(c.url); got != c.want {
			t.Errorf("RepoURLEquivalent(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}
