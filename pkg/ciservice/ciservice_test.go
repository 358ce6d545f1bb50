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

package ciservice

import (
	"testing"
	"time"
)

func TestInWindow(t *testing.T) {
	publish := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	commit := time.Date(2024, 1, 10, 11, 57, 0, 0, time.UTC)
	tests := []struct {
		name string
		run  time.Time
		want bool
	}{
		{"exact publish time", publish, true},
		{"just before, within window and half-window of commit", publish.Add(-5 * time.Minute), true},
		{"after publish time", publish.Add(1 * time.Minute), false},
		{"before publish but outside full window", publish.Add(-20 * time.Minute), false},
		{"within full window but outside half-window of commit", publish.Add(-9 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InWindow(tt.run, publish, commit, 600)
			if got != tt.want {
				t.Errorf("InWindow(%v) = %v, want %v", tt.run, got, tt.want)
			}
		})
	}
}

func TestGitHubActionsRetention(t *testing.T) {
	g := &GitHubActions{}
	old := time.Now().Add(-401 * 24 * time.Hour)
	recent := time.Now().Add(-10 * 24 * time.Hour)
	if !g.WorkflowRunDeleted(old) {
		t.Error("expected run older than retention window to be reported deleted")
	}
	if g.WorkflowRunDeleted(recent) {
		t.Error("expected recent run to not be reported deleted")
	}
}
