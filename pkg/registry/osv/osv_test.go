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

package osv

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/slsa-verify/provenance-analyzer/internal/httpx/httpxtest"
)

func TestQueryBatchPreservesOrder(t *testing.T) {
	body := `{"results":[{"vulns":[{"id":"GHSA-1"}]},{"vulns":[]},{"vulns":[{"id":"GHSA-2"}]}]}`
	mock := &httpxtest.MockClient{
		SkipURLValidation: true,
		Calls: []httpxtest.Call{
			{Response: &http.Response{StatusCode: http.StatusOK, Body: httpxtest.Body(body)}},
		},
	}
	c := &HTTPClient{Client: mock}
	got, err := c.QueryBatch(context.Background(), []Package{
		{Name: "a", Ecosystem: "npm"},
		{Name: "b", Ecosystem: "npm"},
		{Name: "c", Ecosystem: "npm"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || len(got[0]) != 1 || len(got[1]) != 0 || len(got[2]) != 1 {
		t.Fatalf("unexpected batch result shape: %+v", got)
	}
	if got[0][0].ID != "GHSA-1" || got[2][0].ID != "GHSA-2" {
		t.Errorf("result order not preserved: %+v", got)
	}
}

func TestIsVersionAffectedExactVersion(t *testing.T) {
	vuln := Vulnerability{Affected: []AffectedRange{
		{Package: Package{Name: "left-pad", Ecosystem: "npm"}, Versions: []string{"1.0.0", "1.0.1"}},
	}}
	if !IsVersionAffected(vuln, "left-pad", "1.0.1", "npm", nil) {
		t.Error("expected exact version match to be affected")
	}
	if IsVersionAffected(vuln, "left-pad", "2.0.0", "npm", nil) {
		t.Error("expected unlisted version to be unaffected")
	}
}

func TestIsVersionAffectedSemverRange(t *testing.T) {
	vuln := Vulnerability{Affected: []AffectedRange{
		{
			Package: Package{Name: "pkg", Ecosystem: "npm"},
			Ranges: []struct {
				Type   string `json:"type"`
				Events []struct {
					Introduced   string `json:"introduced,omitempty"`
					Fixed        string `json:"fixed,omitempty"`
					LastAffected string `json:"last_affected,omitempty"`
				} `json:"events"`
			}{
				{
					Type: "SEMVER",
					Events: []struct {
						Introduced   string `json:"introduced,omitempty"`
						Fixed        string `json:"fixed,omitempty"`
						LastAffected string `json:"last_affected,omitempty"`
					}{
						{Introduced: "1.0.0"},
						{Fixed: "1.5.0"},
					},
				},
			},
		},
	}}
	if !IsVersionAffected(vuln, "pkg", "1.2.0", "npm", nil) {
		t.Error("expected version within range to be affected")
	}
	if IsVersionAffected(vuln, "pkg", "1.6.0", "npm", nil) {
		t.Error("expected version past fixed to be unaffected")
	}
	if IsVersionAffected(vuln, "pkg", "0.9.0", "npm", nil) {
		t.Error("expected version before introduced to be unaffected")
	}
}

func TestIsVersionAffectedCommitHashSkipsRangeEval(t *testing.T) {
	vuln := Vulnerability{Affected: []AffectedRange{
		{Package: Package{Name: "pkg"}, Versions: []string{strings.Repeat("a", 40)}},
	}}
	if !IsVersionAffected(vuln, "pkg", strings.Repeat("a", 40), "", nil) {
		t.Error("expected matching commit hash to be affected")
	}
	if IsVersionAffected(vuln, "pkg", strings.Repeat("b", 40), "", nil) {
		t.Error("expected non-listed commit hash to be unaffected")
	}
}
