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

// Package purl parses Package URLs (https://github.com/package-url/purl-spec)
// and relates repository-type PURLs to the hosting URLs they identify.
package purl

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// PackageURL is a parsed `pkg:type/namespace/name@version?qualifiers#subpath`
// identifier.
type PackageURL struct {
	Type       string
	Namespace  string
	Name       string
	Version    string
	Qualifiers map[string]string
	Subpath    string
}

// Parse decodes a PURL string. It implements enough of the purl-spec to
// serve the repo/commit resolver and provenance extractor: scheme, type,
// namespace, name, version, qualifiers and subpath, all percent-decoded.
func Parse(s string) (*PackageURL, error) {
	if !strings.HasPrefix(s, "pkg:") {
		return nil, errors.Errorf("not a purl: %q", s)
	}
	rest := strings.TrimPrefix(s, "pkg:")

	var subpath string
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		var err error
		subpath, err = url.PathUnescape(rest[i+1:])
		if err != nil {
			return nil, errors.Wrap(err, "decoding subpath")
		}
		rest = rest[:i]
	}

	qualifiers := map[string]string{}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		qs, err := url.ParseQuery(rest[i+1:])
		if err != nil {
			return nil, errors.Wrap(err, "decoding qualifiers")
		}
		for k, v := range qs {
			if len(v) > 0 {
				qualifiers[k] = v[0]
			}
		}
		rest = rest[:i]
	}

	var version string
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		var err error
		version, err = url.PathUnescape(rest[i+1:])
		if err != nil {
			return nil, errors.Wrap(err, "decoding version")
		}
		rest = rest[:i]
	}

	segs := strings.Split(rest, "/")
	if len(segs) < 2 {
		return nil, errors.Errorf("purl missing type or name: %q", s)
	}
	typ := segs[0]
	name, err := url.PathUnescape(segs[len(segs)-1])
	if err != nil {
		return nil, errors.Wrap(err, "decoding name")
	}
	var namespace string
	if len(segs) > 2 {
		ns, err := url.PathUnescape(strings.Join(segs[1:len(segs)-1], "/"))
		if err != nil {
			return nil, errors.Wrap(err, "decoding namespace")
		}
		namespace = ns
	}

	return &PackageURL{
		Type:       strings.ToLower(typ),
		Namespace:  namespace,
		Name:       name,
		Version:    version,
		Qualifiers: qualifiers,
		Subpath:    subpath,
	}, nil
}

// repoTypeHosts maps a repository-hosting purl type to the hostname its
// PURLs implicitly reference, per the purl-spec's "known types" list. Only
// the types this analyzer's resolver/extractor need to recognize are
// carried; an unrecognized type fails RepoURLEquivalent conservatively
// (never matches) rather than guessing a host.
var repoTypeHosts = map[string]string{
	"github":    "github.com",
	"gitlab":    "gitlab.com",
	"bitbucket": "bitbucket.org",
}

// ExpandedHost returns the hostname implied by p's type, per repoTypeHosts,
// and whether p.Type is a recognized repository-hosting type.
func (p *PackageURL) ExpandedHost() (string, bool) {
	host, ok := repoTypeHosts[p.Type]
	return host, ok
}

// RepoURLEquivalent reports whether rawURL names the same repository as p,
// per §4.E: "hostname+path equals expanded_purl_type + namespace/name,
// case-sensitive on path and lowercased on host."
func (p *PackageURL) RepoURLEquivalent(rawURL string) bool {
	host, ok := p.ExpandedHost()
	if !ok {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	gotHost := strings.ToLower(u.Hostname())
	gotPath := strings.Trim(u.Path, "/")
	gotPath = strings.TrimSuffix(gotPath, ".git")

	wantPath := p.Name
	if p.Namespace != "" {
		wantPath = p.Namespace + "/" + p.Name
	}
	return gotHost == host && gotPath == wantPath
}

// String renders p back into canonical purl form.
func (p *PackageURL) String() string {
	var b strings.Builder
	b.WriteString("pkg:")
	b.WriteString(p.Type)
	b.WriteByte('/')
	if p.Namespace != "" {
		b.WriteString(url.PathEscape(p.Namespace))
		b.WriteByte('/')
	}
	b.WriteString(url.PathEscape(p.Name))
	if p.Version != "" {
		b.WriteByte('@')
		b.WriteString(url.PathEscape(p.Version))
	}
	if len(p.Qualifiers) > 0 {
		b.WriteByte('?')
		vals := url.Values{}
		for k, v := range p.Qualifiers {
			vals.Set(k, v)
		}
		b.WriteString(vals.Encode())
	}
	if p.Subpath != "" {
		b.WriteByte('#')
		b.WriteString(url.PathEscape(p.Subpath))
	}
	return b.String()
}
