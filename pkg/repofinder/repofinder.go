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

// Package repofinder resolves a package URL to the source repository and
// commit it was published from (§4.F).
package repofinder

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
	"github.com/slsa-verify/provenance-analyzer/pkg/purl"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/cratesio"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/depsdev"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/golang"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/maven"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/npm"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/pypi"
	"github.com/slsa-verify/provenance-analyzer/pkg/registry/rubygems"
)

// RepoFinderInfo is the outcome of resolving a PURL to a repository URL,
// persisted alongside the component per §4.F.
type RepoFinderInfo string

const (
	RepoFinderFound                RepoFinderInfo = "FOUND"
	RepoFinderFoundFromParent      RepoFinderInfo = "FOUND_FROM_PARENT"
	RepoFinderNoVersionProvided    RepoFinderInfo = "NO_VERSION_PROVIDED"
	RepoFinderUnsupportedPkgType   RepoFinderInfo = "UNSUPPORTED_PACKAGE_TYPE"
	RepoFinderNoNewerVersion       RepoFinderInfo = "NO_NEWER_VERSION"
	RepoFinderLatestVersionInvalid RepoFinderInfo = "LATEST_VERSION_INVALID"
	RepoFinderNotFound             RepoFinderInfo = "NOT_FOUND"
)

// Result is the resolver's output: the discovered repository URL (if any)
// plus the outcome that produced it.
type Result struct {
	RepoURL string
	Info    RepoFinderInfo
}

// Registries bundles the per-ecosystem registry clients a Resolver consults.
// Any field may be nil if that ecosystem isn't wired for this deployment.
type Registries struct {
	NPM      npm.Registry
	PyPI     pypi.Registry
	Maven    maven.Registry
	Cratesio cratesio.Registry
	Rubygems rubygems.Registry
	DepsDev  depsdev.Registry
	Golang   golang.Registry
}

// Resolver implements the three-step algorithm of §4.F: pick a finder by
// ecosystem, optionally retry against the latest version, then resolve a
// repository URL.
type Resolver struct {
	Registries Registries
	// TryLatestPURL enables step 2: when the given version yields no repo,
	// query the registry for its latest version and retry.
	TryLatestPURL bool
	// AllowedGitServiceDomains restricts which hosts a resolved repo URL may
	// point at (§6). Empty falls back to DefaultAllowedGitServiceDomains.
	AllowedGitServiceDomains []string
}

// Resolve finds the source repository for p, per §4.F.
func (r *Resolver) Resolve(ctx context.Context, p *purl.PackageURL) (*Result, error) {
	finder := r.finderFor(p.Type)
	if finder == nil {
		return &Result{Info: RepoFinderUnsupportedPkgType}, nil
	}
	versionGiven := p.Version != ""
	if p.Version == "" {
		if !r.TryLatestPURL {
			return &Result{Info: RepoFinderNoVersionProvided}, nil
		}
		latest, err := finder.latestVersion(ctx, p)
		if err != nil {
			return &Result{Info: RepoFinderLatestVersionInvalid}, nil
		}
		if latest == "" {
			return &Result{Info: RepoFinderNoNewerVersion}, nil
		}
		retry := *p
		retry.Version = latest
		p = &retry
	}
	repoURL, err := finder.repoURL(ctx, p)
	if err != nil {
		return nil, err
	}
	if repoURL == "" && r.TryLatestPURL && versionGiven {
		latest, err := finder.latestVersion(ctx, p)
		if err != nil {
			return &Result{Info: RepoFinderLatestVersionInvalid}, nil
		}
		if latest == "" || latest == p.Version {
			return &Result{Info: RepoFinderNoNewerVersion}, nil
		}
		retry := *p
		retry.Version = latest
		if repoURL, err = finder.repoURL(ctx, &retry); err != nil {
			return nil, err
		}
	}
	if repoURL == "" {
		return &Result{Info: RepoFinderNotFound}, nil
	}
	canonical, err := CanonicalizeRemoteURL(repoURL, r.AllowedGitServiceDomains)
	if err != nil {
		return &Result{Info: RepoFinderNotFound}, nil
	}
	return &Result{RepoURL: canonical, Info: RepoFinderFound}, nil
}

// ecosystemFinder resolves a repo URL and, when no version is pinned, the
// latest available version, for one package ecosystem.
type ecosystemFinder interface {
	repoURL(ctx context.Context, p *purl.PackageURL) (string, error)
	latestVersion(ctx context.Context, p *purl.PackageURL) (string, error)
}

func (r *Resolver) finderFor(ecosystem string) ecosystemFinder {
	switch ecosystem {
	case "npm":
		if r.Registries.NPM == nil {
			return nil
		}
		return npmFinder{r.Registries.NPM}
	case "pypi":
		if r.Registries.PyPI == nil {
			return nil
		}
		return pypiFinder{r.Registries.PyPI, r.Registries.DepsDev}
	case "maven":
		if r.Registries.Maven == nil {
			return nil
		}
		return mavenFinder{r.Registries.Maven}
	case "cargo":
		if r.Registries.Cratesio == nil {
			return nil
		}
		return cratesioFinder{r.Registries.Cratesio, r.Registries.DepsDev}
	case "gem":
		if r.Registries.Rubygems == nil {
			return nil
		}
		return rubygemsFinder{r.Registries.Rubygems, r.Registries.DepsDev}
	case "golang":
		if r.Registries.Golang == nil {
			return nil
		}
		return golangFinder{r.Registries.Golang}
	default:
		return nil
	}
}

// golangFinder resolves a Go module PURL to its source repository. Unlike
// npm/PyPI/crates.io, a Go module path *is* its own repository location
// (golang.org/x/tools, github.com/foo/bar) per the module proxy protocol, so
// no secondary deps.dev lookup is needed: the namespace+name reconstructs the
// import path directly.
type golangFinder struct{ reg golang.Registry }

func (f golangFinder) modulePath(p *purl.PackageURL) string {
	if p.Namespace != "" {
		return p.Namespace + "/" + p.Name
	}
	return p.Name
}

func (f golangFinder) repoURL(ctx context.Context, p *purl.PackageURL) (string, error) {
	return "https://" + f.modulePath(p), nil
}

func (f golangFinder) latestVersion(ctx context.Context, p *purl.PackageURL) (string, error) {
	return f.reg.LatestVersion(ctx, f.modulePath(p))
}

type npmFinder struct{ reg npm.Registry }

func (f npmFinder) repoURL(ctx context.Context, p *purl.PackageURL) (string, error) {
	name := p.Name
	if p.Namespace != "" {
		name = "@" + p.Namespace + "/" + p.Name
	}
	v, err := f.reg.Version(ctx, name, p.Version)
	if err != nil {
		return "", err
	}
	return v.Repository.URL, nil
}

func (f npmFinder) latestVersion(ctx context.Context, p *purl.PackageURL) (string, error) {
	name := p.Name
	if p.Namespace != "" {
		name = "@" + p.Namespace + "/" + p.Name
	}
	pkg, err := f.reg.Package(ctx, name)
	if err != nil {
		return "", err
	}
	return pkg.DistTags.Latest, nil
}

// pypiFinder falls back to deps.dev since PyPI's own registry metadata
// (§4.F: "deps.dev for pypi/nuget/cargo/npm") doesn't reliably carry a
// structured source-repository field.
type pypiFinder struct {
	reg     pypi.Registry
	depsDev depsdev.Registry
}

func (f pypiFinder) repoURL(ctx context.Context, p *purl.PackageURL) (string, error) {
	if f.depsDev != nil {
		v, err := f.depsDev.Version(ctx, depsdev.SystemPyPI, p.Name, p.Version)
		if err == nil {
			if repo := v.SourceRepoURL(); repo != "" {
				return repo, nil
			}
		}
	}
	rel, err := f.reg.Release(ctx, p.Name, p.Version)
	if err != nil {
		return "", err
	}
	return rel.Info.ProjectURLs["Source"], nil
}

func (f pypiFinder) latestVersion(ctx context.Context, p *purl.PackageURL) (string, error) {
	proj, err := f.reg.Project(ctx, p.Name)
	if err != nil {
		return "", err
	}
	return proj.Info.Version, nil
}

type cratesioFinder struct {
	reg     cratesio.Registry
	depsDev depsdev.Registry
}

func (f cratesioFinder) repoURL(ctx context.Context, p *purl.PackageURL) (string, error) {
	if f.depsDev != nil {
		v, err := f.depsDev.Version(ctx, depsdev.SystemCargo, p.Name, p.Version)
		if err == nil {
			if repo := v.SourceRepoURL(); repo != "" {
				return repo, nil
			}
		}
	}
	crate, err := f.reg.Crate(p.Name)
	if err != nil {
		return "", err
	}
	return crate.Metadata.Repository, nil
}

func (f cratesioFinder) latestVersion(ctx context.Context, p *purl.PackageURL) (string, error) {
	crate, err := f.reg.Crate(p.Name)
	if err != nil {
		return "", err
	}
	if len(crate.Versions) == 0 {
		return "", errors.Errorf("no versions for crate %s", p.Name)
	}
	return crate.Versions[len(crate.Versions)-1].Version, nil
}

type rubygemsFinder struct {
	reg     rubygems.Registry
	depsDev depsdev.Registry
}

func (f rubygemsFinder) repoURL(ctx context.Context, p *purl.PackageURL) (string, error) {
	if f.depsDev != nil {
		v, err := f.depsDev.Version(ctx, depsdev.SystemRubyGems, p.Name, p.Version)
		if err == nil {
			if repo := v.SourceRepoURL(); repo != "" {
				return repo, nil
			}
		}
	}
	gem, err := f.reg.Gem(ctx, p.Name)
	if err != nil {
		return "", err
	}
	return gem.SourceCode, nil
}

func (f rubygemsFinder) latestVersion(ctx context.Context, p *purl.PackageURL) (string, error) {
	gem, err := f.reg.Gem(ctx, p.Name)
	if err != nil {
		return "", err
	}
	return gem.Version, nil
}

// mavenFinder reads the <scm><url> element from the package's POM, which is
// Maven Central's closest analogue to a structured repository field.
type mavenFinder struct{ reg maven.Registry }

type mavenPOM struct {
	SCM struct {
		URL string `xml:"url"`
	} `xml:"scm"`
	Parent struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	} `xml:"parent"`
}

func (f mavenFinder) repoURL(ctx context.Context, p *purl.PackageURL) (string, error) {
	pkg := p.Name
	if p.Namespace != "" {
		pkg = p.Namespace + ":" + p.Name
	}
	pom, err := f.fetchPOM(ctx, pkg, p.Version)
	if err != nil {
		return "", err
	}
	if pom.SCM.URL != "" {
		return pom.SCM.URL, nil
	}
	// Walk up one level to the parent POM's scm. Resolve reports a URL found
	// this way as FOUND; RepoFinderFoundFromParent is not produced.
	if pom.Parent.GroupID != "" && pom.Parent.ArtifactID != "" {
		parentPkg := pom.Parent.GroupID + ":" + pom.Parent.ArtifactID
		parentPOM, err := f.fetchPOM(ctx, parentPkg, pom.Parent.Version)
		if err != nil {
			return "", nil
		}
		return parentPOM.SCM.URL, nil
	}
	return "", nil
}

func (f mavenFinder) fetchPOM(ctx context.Context, pkg, version string) (*mavenPOM, error) {
	rc, err := f.reg.ReleaseFile(ctx, pkg, version, maven.TypePOM)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var pom mavenPOM
	if err := xml.Unmarshal(body, &pom); err != nil {
		return nil, errors.Wrap(err, "parsing POM")
	}
	return &pom, nil
}

func (f mavenFinder) latestVersion(ctx context.Context, p *purl.PackageURL) (string, error) {
	pkg := p.Name
	if p.Namespace != "" {
		pkg = p.Namespace + ":" + p.Name
	}
	meta, err := f.reg.PackageMetadata(ctx, pkg)
	if err != nil {
		return "", err
	}
	if len(meta.Versions) == 0 {
		return "", errors.Errorf("no versions for %s", pkg)
	}
	return meta.Versions[len(meta.Versions)-1], nil
}
