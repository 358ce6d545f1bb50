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

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var errUnsupportedRepo = errors.Errorf("unsupported repo URL")

// DefaultAllowedGitServiceDomains is the allowlist CanonicalizeRemoteURL
// consults when the caller supplies none, matching the git services the
// registry resolvers in this module know how to attribute commits to.
var DefaultAllowedGitServiceDomains = []string{"github.com", "gitlab.com", "bitbucket.org"}

// nonTransportPrefixMarkers are the scheme-ish substrings that mark where an
// actual transport URL begins; anything before the earliest one is a
// non-transport prefix such as "scm:" or "git:" and is discarded. Mirrors
// the original's `re.match(r"(?P<prefix>(.*?))(git\+http|http|ftp|ssh\+git|ssh|git@)(.)*")`.
var nonTransportPrefixMarkers = []string{"git+http", "http", "ftp", "ssh+git", "ssh", "git@"}

// stripNonTransportPrefix removes any leading non-transport prefix (e.g. a
// Maven POM's "scm:git:" or "scm:") so the remainder can be parsed as a plain
// URL or scp-like remote.
func stripNonTransportPrefix(raw string) string {
	earliest := -1
	for _, marker := range nonTransportPrefixMarkers {
		if idx := strings.Index(raw, marker); idx >= 0 && (earliest == -1 || idx < earliest) {
			earliest = idx
		}
	}
	if earliest <= 0 {
		return raw
	}
	return raw[earliest:]
}

// CanonicalizeRemoteURL parses a remote git URL — https, ssh, the scp-like
// "user@host:owner/repo.git" shorthand git itself accepts, or an scm-prefixed
// Maven coordinate like "scm:git:https://..." — into a clean
// "https://host/owner/repo" form with any trailing ".git" stripped. The host
// is lowercased; the owner and repository name keep their case.
// allowedDomains restricts which hosts are accepted; a nil/empty slice falls
// back to DefaultAllowedGitServiceDomains.
func CanonicalizeRemoteURL(raw string, allowedDomains ...[]string) (string, error) {
	allowed := DefaultAllowedGitServiceDomains
	if len(allowedDomains) > 0 && len(allowedDomains[0]) > 0 {
		allowed = allowedDomains[0]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty repo URL")
	}
	raw = stripNonTransportPrefix(raw)
	raw = strings.TrimPrefix(raw, "git+")
	if host, path, ok := splitSCPLike(raw); ok {
		if !domainAllowed(host, allowed) {
			return "", errors.Wrapf(errUnsupportedRepo, "host %q not on the allowed git-service domains", host)
		}
		return assembleHTTPS(host, path)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "parsing repo URL %q", raw)
	}
	switch u.Scheme {
	case "http", "https", "git", "ssh", "ftp", "ftps":
	default:
		return "", errors.Wrap(errUnsupportedRepo, raw)
	}
	if u.Host == "" {
		return "", errors.Wrap(errUnsupportedRepo, raw)
	}
	host := u.Hostname()
	if !domainAllowed(host, allowed) {
		return "", errors.Wrapf(errUnsupportedRepo, "host %q not on the allowed git-service domains", host)
	}
	return assembleHTTPS(u.Host, u.Path)
}

func domainAllowed(host string, allowed []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "/"))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	for _, d := range allowed {
		if strings.EqualFold(host, d) {
			return true
		}
	}
	return false
}

// splitSCPLike recognizes the git scp-like shorthand "[user@]host:path",
// which is not a valid net/url URL (no "//" after the scheme, and in fact no
// scheme at all) — e.g. "git@github.com:owner/repo.git".
func splitSCPLike(raw string) (host, path string, ok bool) {
	if strings.Contains(raw, "://") {
		return "", "", false
	}
	at := strings.Index(raw, "@")
	colon := strings.Index(raw, ":")
	if colon < 0 || (at >= 0 && at > colon) {
		return "", "", false
	}
	hostStart := 0
	if at >= 0 {
		hostStart = at + 1
	}
	host = raw[hostStart:colon]
	path = raw[colon+1:]
	if host == "" || path == "" || strings.Contains(host, "/") {
		return "", "", false
	}
	return host, path, true
}

func assembleHTTPS(host, path string) (string, error) {
	host = strings.ToLower(strings.TrimSuffix(host, "/"))
	if strings.Contains(host, ":") {
		host, _, _ = strings.Cut(host, ":")
	}
	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", errors.Wrapf(errUnsupportedRepo, "path %q does not contain owner/name", path)
	}
	return "https://" + host + "/" + parts[0] + "/" + parts[1], nil
}

// FullName returns the "owner/name" portion of a URL CanonicalizeRemoteURL
// already normalized.
func FullName(canonicalURL string) (string, error) {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return "", err
	}
	path := strings.Trim(u.Path, "/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", errors.Errorf("%q is not in owner/name form", canonicalURL)
	}
	return parts[0] + "/" + parts[1], nil
}
