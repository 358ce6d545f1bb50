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

package checks

import (
	"context"
	"testing"

	"github.com/slsa-verify/provenance-analyzer/pkg/check"
)

func TestDockerfileSecurityNoDockerfilesPasses(t *testing.T) {
	res, err := DockerfileSecurity(context.Background(), &Context{ComponentID: "c1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultPassed {
		t.Errorf("expected PASSED with no Dockerfiles, got %v", res.ResultType)
	}
}

func TestDockerfileSecurityCleanDockerfilePasses(t *testing.T) {
	clean := "FROM alpine:3.19\nUSER nobody\nCOPY . /app\n"
	res, err := DockerfileSecurity(context.Background(), &Context{
		ComponentID:     "c1",
		DockerfilePaths: map[string]string{"Dockerfile": clean},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultPassed {
		t.Errorf("expected PASSED for clean Dockerfile, got %v: %+v", res.ResultType, res.ResultTables)
	}
}

func TestDockerfileSecurityFlagsInsecurePatterns(t *testing.T) {
	risky := "FROM ubuntu\n" +
		"ADD https://example.com/app.tar.gz /app\n" +
		"RUN curl https://example.com/install.sh | sh\n" +
		"ENV API_TOKEN=supersecret\n" +
		"VOLUME /var/run/docker.sock\n"
	res, err := DockerfileSecurity(context.Background(), &Context{
		ComponentID:     "c1",
		DockerfilePaths: map[string]string{"Dockerfile": risky},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ResultType != check.ResultFailed {
		t.Fatalf("expected FAILED for risky Dockerfile, got %v", res.ResultType)
	}
	if len(res.ResultTables) != 1 {
		t.Fatalf("expected one fact, got %d", len(res.ResultTables))
	}
	cols := res.ResultTables[0].Columns
	if cols["base_image_name"] != "ubuntu" {
		t.Errorf("expected base image ubuntu, got %v", cols["base_image_name"])
	}
	if cols["base_image_version"] != "latest" {
		t.Errorf("expected unpinned base image version latest, got %v", cols["base_image_version"])
	}
	count, _ := cols["issues_count"].(int)
	if count < 4 {
		t.Errorf("expected at least 4 issues flagged, got %d: %+v", count, cols)
	}
}

func TestAnalyzeDockerfileDetectsMissingUser(t *testing.T) {
	content := "FROM alpine:3.19\nCOPY . /app\n"
	issues, _, _, hasUser := analyzeDockerfile(content)
	if hasUser {
		t.Error("expected hasUser false when no USER directive present")
	}
	found := false
	for _, iss := range issues {
		if iss.Rule == "missing_user_directive" {
			found = true
		}
	}
	if !found {
		t.Error("expected missing_user_directive issue")
	}
}
