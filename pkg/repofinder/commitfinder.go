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
	"context"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/pkg/errors"
)

// CommitFinderInfo is the outcome of resolving a version to a commit, mirroring
// RepoFinderInfo's role for the repository-resolution step (§4.F).
type CommitFinderInfo string

const (
	CommitFinderFound           CommitFinderInfo = "FOUND"
	CommitFinderNoTagsMatched   CommitFinderInfo = "NO_TAGS_MATCHED"
	CommitFinderAmbiguousTags   CommitFinderInfo = "AMBIGUOUS_TAGS"
	CommitFinderRepoUnreachable CommitFinderInfo = "REPO_UNREACHABLE"
)

// CommitResult is the commit finder's output.
type CommitResult struct {
	Commit string
	Tag    string
	Info   CommitFinderInfo
}

// TagMatcher decides which tags, among those present in a repository, are
// acceptable candidates for a given package name/version — §4.F's contract:
// "match_tags(tags, name, version) → ordered list of candidate tags", with
// out-of-scope matcher logic supplied by the caller.
type TagMatcher func(tags []string, name, version string) []string

// DefaultTagMatcher accepts a tag whose normalized form contains the
// version, per §4.F ("a tag is acceptable if its normalized form contains
// the version"). Normalization lowercases and strips any leading package
// name/"v" prefix punctuation, so "myproject-v1.2.3" and "v1.2.3" both match
// version "1.2.3".
func DefaultTagMatcher(tags []string, name, version string) []string {
	norm := func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(name))
		s = strings.TrimLeft(s, "-_/")
		s = strings.TrimPrefix(s, "v")
		return s
	}
	version = strings.ToLower(version)
	var matches []string
	for _, t := range tags {
		if strings.Contains(norm(t), version) {
			matches = append(matches, t)
		}
	}
	sort.Strings(matches)
	return matches
}

// ResolveCommit lists the remote's refs (without a full clone) and resolves
// name/version to a commit hash via matcher, per §4.F step 3.
func ResolveCommit(ctx context.Context, repoURL, name, version string, matcher TagMatcher) (*CommitResult, error) {
	remote := git.NewRemote(nil, &config.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		if errors.Is(err, transport.ErrRepositoryNotFound) {
			return &CommitResult{Info: CommitFinderRepoUnreachable}, nil
		}
		return nil, errors.Wrapf(err, "listing refs for %s", repoURL)
	}
	tagCommit := map[string]string{}
	var tags []string
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		short := ref.Name().Short()
		tags = append(tags, short)
		tagCommit[short] = ref.Hash().String()
	}
	candidates := matcher(tags, name, version)
	if len(candidates) == 0 {
		return &CommitResult{Info: CommitFinderNoTagsMatched}, nil
	}
	if len(candidates) > 1 {
		return &CommitResult{Tag: candidates[0], Commit: tagCommit[candidates[0]], Info: CommitFinderAmbiguousTags}, nil
	}
	return &CommitResult{Tag: candidates[0], Commit: tagCommit[candidates[0]], Info: CommitFinderFound}, nil
}
