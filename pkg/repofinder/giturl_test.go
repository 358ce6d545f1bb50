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

package repofinder

import "testing"

func TestCanonicalizeRemoteURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://GitHub.com/Org/Repo.git", "https://github.com/Org/Repo"},
		{"git@github.com:org/repo.git", "https://github.com/org/repo"},
		{"ssh://git@github.com/org/repo.git", "https://github.com/org/repo"},
		{"git+https://github.com/org/repo", "https://github.com/org/repo"},
		{"http://gitlab.com/org/repo/", "https://gitlab.com/org/repo"},
	}
	for _, tc := range tests {
		got, err := CanonicalizeRemoteURL(tc.in)
		if err != nil {
			t.Fatalf("CanonicalizeRemoteURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("CanonicalizeRemoteURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalizeRemoteURLAcceptsScmPrefix(t *testing.T) {
	got, err := CanonicalizeRemoteURL("scm:git:https://github.com/org/repo.git")
	if err != nil {
		t.Fatalf("CanonicalizeRemoteURL: %v", err)
	}
	if got != "https://github.com/org/repo" {
		t.Errorf("CanonicalizeRemoteURL() = %q, want https://github.com/org/repo", got)
	}
}

func TestCanonicalizeRemoteURLRejectsDisallowedHost(t *testing.T) {
	if _, err := CanonicalizeRemoteURL("https://evil.example.com/org/repo"); err == nil {
		t.Error("expected an error for a host not on the allowed git-service domains")
	}
}

func TestCanonicalizeRemoteURLRejectsDisallowedSCPLikeHost(t *testing.T) {
	if _, err := CanonicalizeRemoteURL("git@evil.example.com:org/repo.git"); err == nil {
		t.Error("expected an error for an scp-like remote on a disallowed host")
	}
}

func TestCanonicalizeRemoteURLHonorsCustomAllowlist(t *testing.T) {
	got, err := CanonicalizeRemoteURL("https://git.example.com/org/repo", []string{"git.example.com"})
	if err != nil {
		t.Fatalf("CanonicalizeRemoteURL: %v", err)
	}
	if got != "https://git.example.com/org/repo" {
		t.Errorf("CanonicalizeRemoteURL() = %q, want https://git.example.com/org/repo", got)
	}
}

func TestCanonicalizeRemoteURLRejectsMissingOwnerOrName(t *testing.T) {
	if _, err := CanonicalizeRemoteURL("https://github.com/onlyowner"); err == nil {
		t.Error("expected an error for a URL missing the repo name segment")
	}
}

func TestCanonicalizeRemoteURLRejectsEmpty(t *testing.T) {
	if _, err := CanonicalizeRemoteURL(""); err == nil {
		t.Error("expected an error for an empty URL")
	}
}

func TestFullName(t *testing.T) {
	got, err := FullName("https://github.com/org/repo")
	if err != nil {
		t.Fatalf("FullName: %v", err)
	}
	if got != "org/repo" {
		t.Errorf("FullName() = %q, want org/repo", got)
	}
}
