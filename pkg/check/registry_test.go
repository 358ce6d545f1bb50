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

package check

import (
	"context"
	"testing"
)

func noopCheck(id string, deps ...ParentExpectation) Check {
	return Check{
		ID:        id,
		DependsOn: deps,
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			return CheckResultData{ResultType: ResultPassed}, nil
		},
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"mcn_build_as_code_1", true},
		{"mcn_provenance_available_1", true},
		{"build_as_code_1", false},
		{"mcn_build_as_code", false},
		{"MCN_BUILD_AS_CODE_1", false},
	}
	for _, tc := range tests {
		if got := ValidID(tc.id); got != tc.want {
			t.Errorf("ValidID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noopCheck("mcn_build_as_code_1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(noopCheck("mcn_build_as_code_1")); err == nil {
		t.Error("expected an error registering a duplicate check id")
	}
}

func TestRegisterRejectsInvalidID(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noopCheck("not-a-valid-id")); err == nil {
		t.Error("expected an error for a malformed check id")
	}
}

func TestPrepareDetectsCycle(t *testing.T) {
	r := NewRegistry()
	r.Register(noopCheck("mcn_a_1", ParentExpectation{ParentID: "mcn_b_1", ExpectedResult: ResultPassed}))
	r.Register(noopCheck("mcn_b_1", ParentExpectation{ParentID: "mcn_a_1", ExpectedResult: ResultPassed}))
	if err := r.Prepare(); err == nil {
		t.Error("expected Prepare to detect the a->b->a cycle")
	}
}

func TestPrepareOrdersParentsBeforeChildren(t *testing.T) {
	r := NewRegistry()
	r.Register(noopCheck("mcn_child_1", ParentExpectation{ParentID: "mcn_parent_1", ExpectedResult: ResultPassed}))
	r.Register(noopCheck("mcn_parent_1"))
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	parentIdx, childIdx := -1, -1
	for i, id := range r.order {
		if id == "mcn_parent_1" {
			parentIdx = i
		}
		if id == "mcn_child_1" {
			childIdx = i
		}
	}
	if parentIdx == -1 || childIdx == -1 || parentIdx > childIdx {
		t.Errorf("order = %v, want parent before child", r.order)
	}
}

func TestSelectExpandsParentsAndExcludesDescendants(t *testing.T) {
	r := NewRegistry()
	r.Register(noopCheck("mcn_root_1"))
	r.Register(noopCheck("mcn_mid_1", ParentExpectation{ParentID: "mcn_root_1", ExpectedResult: ResultPassed}))
	r.Register(noopCheck("mcn_leaf_1", ParentExpectation{ParentID: "mcn_mid_1", ExpectedResult: ResultPassed}))
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	// Including only the leaf must pull in its ancestors.
	got := r.Select([]string{"mcn_leaf_1"}, nil)
	if len(got) != 3 {
		t.Fatalf("Select(leaf) = %v, want 3 checks (leaf + ancestors)", got)
	}

	// Excluding the root must also drop everything that depends on it.
	got = r.Select([]string{"*"}, []string{"mcn_root_1"})
	if len(got) != 0 {
		t.Fatalf("Select(*, exclude root) = %v, want empty (root's descendants all excluded)", got)
	}
}
