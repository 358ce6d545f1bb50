// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package golang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/slsa-verify/provenance-analyzer/internal/httpx"
	"github.com/slsa-verify/provenance-analyzer/internal/urlx"
)

var proxyURL = urlx.MustParse("https://proxy.golang.org")

// Registry is a Go module registry.
type Registry interface {
	// Module fetches the .zip archive for a module.
	Module(ctx context.Context, pkg, version string) (io.ReadCloser, error)
	// LatestVersion reports the latest known version of a module, per the
	// proxy protocol's @latest endpoint.
	LatestVersion(ctx context.Context, pkg string) (string, error)
}

// HTTPRegistry is a Registry implementation that uses the proxy.golang.org HTTP API.
type HTTPRegistry struct {
	Client httpx.BasicClient
}

// Module fetches the .zip archive for a module from proxy.golang.org.
func (r HTTPRegistry) Module(ctx context.Context, pkg, version string) (io.ReadCloser, error) {
	pathURL, err := url.Parse(path.Join(pkg, "@v", version+".zip"))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", proxyURL.ResolveReference(pathURL).String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return resp.Body, nil
}

type latestInfo struct {
	Version string `json:"Version"`
}

// LatestVersion queries proxy.golang.org's @latest endpoint for pkg's most
// recent published version.
func (r HTTPRegistry) LatestVersion(ctx context.Context, pkg string) (string, error) {
	pathURL, err := url.Parse(path.Join(pkg, "@latest"))
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", proxyURL.ResolveReference(pathURL).String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}
	var info latestInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Version, nil
}
