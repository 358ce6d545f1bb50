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

// Package osv implements the OSV.dev vulnerability-query contract of §4.J:
// single and batched queries by package, plus the commit-hash-aware
// affected-version check pkg/checks' malicious/vulnerable-dependency
// reasoning consumes. Only the HTTP contract is implemented here; the
// "is this finding actionable" judgment stays in pkg/checks.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/slsa-verify/provenance-analyzer/internal/httpx"
	"github.com/slsa-verify/provenance-analyzer/internal/semver"
	"github.com/slsa-verify/provenance-analyzer/internal/urlx"
	"github.com/slsa-verify/provenance-analyzer/pkg/repofinder"
)

var apiURL = urlx.MustParse("https://api.osv.dev")

// Package identifies an ecosystem package, the unit osv.dev queries accept.
type Package struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem,omitempty"`
	PURL      string `json:"purl,omitempty"`
}

// queryRequest is one entry of a batch query.
type queryRequest struct {
	Commit  string  `json:"commit,omitempty"`
	Version string  `json:"version,omitempty"`
	Package Package `json:"package,omitempty"`
}

// AffectedRange is one entry of a Vulnerability's "affected" list this
// client consumes for version containment checks.
type AffectedRange struct {
	Package  Package `json:"package"`
	Versions []string `json:"versions"`
	Ranges   []struct {
		Type   string `json:"type"`
		Events []struct {
			Introduced string `json:"introduced,omitempty"`
			Fixed      string `json:"fixed,omitempty"`
			LastAffected string `json:"last_affected,omitempty"`
		} `json:"events"`
	} `json:"ranges"`
}

// Vulnerability is the subset of an OSV record this client decodes.
type Vulnerability struct {
	ID       string          `json:"id"`
	Summary  string          `json:"summary"`
	Affected []AffectedRange `json:"affected"`
}

type queryResponse struct {
	Vulns []Vulnerability `json:"vulns"`
}

type batchQueryResponse struct {
	Results []queryResponse `json:"results"`
}

// Client is the OSV HTTP API contract §4.J names.
type Client interface {
	Query(ctx context.Context, pkg Package, version, commit string) ([]Vulnerability, error)
	QueryBatch(ctx context.Context, queries []Package) ([][]Vulnerability, error)
}

// HTTPClient is the real osv.dev-backed Client.
type HTTPClient struct {
	Client httpx.BasicClient
}

var _ Client = &HTTPClient{}

// Query looks up vulnerabilities for a single package version (or commit).
func (c *HTTPClient) Query(ctx context.Context, pkg Package, version, commit string) ([]Vulnerability, error) {
	body, err := json.Marshal(queryRequest{Commit: commit, Version: version, Package: pkg})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling osv query")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL.ResolveReference(&url.URL{Path: "/v1/query"}).String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "querying osv")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("osv query error: %v", resp.Status)
	}
	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decoding osv response")
	}
	return parsed.Vulns, nil
}

// QueryBatch looks up vulnerabilities for many packages in one request,
// preserving input order in the returned slice (§4.J: "preserving input
// order").
func (c *HTTPClient) QueryBatch(ctx context.Context, queries []Package) ([][]Vulnerability, error) {
	reqs := make([]queryRequest, len(queries))
	for i, q := range queries {
		reqs[i] = queryRequest{Package: q}
	}
	body, err := json.Marshal(struct {
		Queries []queryRequest `json:"queries"`
	}{reqs})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling osv batch query")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL.ResolveReference(&url.URL{Path: "/v1/querybatch"}).String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "batch querying osv")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("osv querybatch error: %v", resp.Status)
	}
	var parsed batchQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decoding osv batch response")
	}
	out := make([][]Vulnerability, len(parsed.Results))
	for i, r := range parsed.Results {
		out[i] = r.Vulns
	}
	return out, nil
}

// IsVersionAffected reports whether version is listed in, or (via
// rangeContains) falls inside a range of, one of vuln's affected entries for
// the given name/ecosystem. A version that looks like a full commit hash is
// matched only against the entries' explicit "versions" lists (OSV often
// enumerates affected commits there for GIT-ecosystem ranges); it is not
// resolved to a tag, and sourceRepo is not read.
func IsVersionAffected(vuln Vulnerability, name, version, ecosystem string, sourceRepo *repofinder.Result) bool {
	for _, a := range vuln.Affected {
		if a.Package.Name != "" && a.Package.Name != name {
			continue
		}
		if a.Package.Ecosystem != "" && ecosystem != "" && a.Package.Ecosystem != ecosystem {
			continue
		}
		for _, v := range a.Versions {
			if v == version {
				return true
			}
		}
		if isCommitHash(version) {
			continue
		}
		if rangeContains(a, version) {
			return true
		}
	}
	return false
}

func isCommitHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// rangeContains evaluates OSV's SEMVER range events: version lies in
// [introduced, fixed) for at least one event sequence, using
// internal/semver for the ordering comparison. Non-SEMVER-parseable bounds
// (ECOSYSTEM ranges with non-semver version schemes) are skipped rather
// than guessed at — §4.J's contract is the data access, not a universal
// version-scheme comparator.
func rangeContains(a AffectedRange, version string) bool {
	if _, err := semver.New(version); err != nil {
		return false
	}
	for _, r := range a.Ranges {
		if r.Type != "SEMVER" && r.Type != "ECOSYSTEM" {
			continue
		}
		introduced, fixed := "", ""
		for _, e := range r.Events {
			if e.Introduced != "" {
				introduced = e.Introduced
			}
			if e.Fixed != "" {
				fixed = e.Fixed
			}
		}
		if introduced == "" {
			continue
		}
		if _, err := semver.New(introduced); err != nil {
			continue
		}
		if semver.Cmp(version, introduced) < 0 {
			continue
		}
		if fixed != "" {
			if _, err := semver.New(fixed); err == nil && semver.Cmp(version, fixed) >= 0 {
				continue
			}
		}
		return true
	}
	return false
}
