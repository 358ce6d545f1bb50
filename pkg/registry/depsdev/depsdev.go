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

// Package depsdev provides an interface with the deps.dev package metadata
// API, used as a cross-ecosystem fallback for resolving a package's source
// repository.
package depsdev

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/slsa-verify/provenance-analyzer/internal/httpx"
	"github.com/slsa-verify/provenance-analyzer/internal/urlx"
)

var registryURL = urlx.MustParse("https://api.deps.dev")

// System is a deps.dev-recognized package ecosystem identifier.
type System string

const (
	SystemNPM      System = "NPM"
	SystemPyPI     System = "PYPI"
	SystemCargo    System = "CARGO"
	SystemGo       System = "GO"
	SystemMaven    System = "MAVEN"
	SystemRubyGems System = "RUBYGEMS"
	SystemNuGet    System = "NUGET"
)

// Link is a related-resource link deps.dev reports for a package version,
// e.g. its source repository.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// VersionInfo is the subset of the deps.dev version response this analyzer
// consumes.
type VersionInfo struct {
	Version    string `json:"version"`
	Links      []Link `json:"links"`
	ProjectKey *struct {
		ID string `json:"id"`
	} `json:"projectKey"`
}

// Registry is a deps.dev metadata source.
type Registry interface {
	Version(ctx context.Context, system System, name, version string) (*VersionInfo, error)
}

// HTTPRegistry is a Registry implementation backed by the deps.dev v3 HTTP API.
type HTTPRegistry struct {
	Client httpx.BasicClient
}

var _ Registry = &HTTPRegistry{}

// Version returns metadata, including any known source-repository links, for
// the given package version.
func (r HTTPRegistry) Version(ctx context.Context, system System, name, version string) (*VersionInfo, error) {
	pathURL, err := url.Parse(path.Join("/v3/systems", string(system), "packages", name, "versions", version))
	if err != nil {
		return nil, err
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, registryURL.ResolveReference(pathURL).String(), nil)
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, errors.Errorf("deps.dev registry error: %v", resp.Status)
	}
	var v VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SourceRepoURL returns the first link deps.dev labels as the package's
// source repository, or "" if none is reported.
func (v *VersionInfo) SourceRepoURL() string {
	for _, l := range v.Links {
		if strings.EqualFold(l.Label, "SOURCE_REPO") {
			return l.URL
		}
	}
	return ""
}
