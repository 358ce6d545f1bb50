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
	"errors"
	"testing"
)

type memStore struct {
	results []MappedCheckResult
}

func (s *memStore) WriteResult(m MappedCheckResult, facts []CheckFact) error {
	s.results = append(s.results, m)
	return nil
}

func TestSchedulerSkipsOnMismatchedParentResult(t *testing.T) {
	r := NewRegistry()
	r.Register(Check{
		ID: "mcn_parent_1",
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			return CheckResultData{ResultType: ResultFailed}, nil
		},
	})
	r.Register(Check{
		ID:           "mcn_child_1",
		DependsOn:    []ParentExpectation{{ParentID: "mcn_parent_1", ExpectedResult: ResultPassed}},
		ResultOnSkip: ResultSkipped,
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			t.Fatal("child Run must not be called when its parent's result mismatches")
			return CheckResultData{}, nil
		},
	})
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	store := &memStore{}
	s := &Scheduler{Registry: r, Store: store}
	actual, err := s.Run(context.Background(), "pkg:npm/foo@1.0.0", r.order)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if actual["mcn_child_1"] != ResultSkipped {
		t.Errorf("child result = %v, want SKIPPED", actual["mcn_child_1"])
	}
}

func TestSchedulerRunsWhenParentResultMatches(t *testing.T) {
	r := NewRegistry()
	r.Register(Check{
		ID: "mcn_parent_1",
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			return CheckResultData{ResultType: ResultPassed}, nil
		},
	})
	ran := false
	r.Register(Check{
		ID:        "mcn_child_1",
		DependsOn: []ParentExpectation{{ParentID: "mcn_parent_1", ExpectedResult: ResultPassed}},
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			ran = true
			return CheckResultData{ResultType: ResultPassed}, nil
		},
	})
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	s := &Scheduler{Registry: r, Store: &memStore{}}
	if _, err := s.Run(context.Background(), "pkg:npm/foo@1.0.0", r.order); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Error("expected the child check to run when its parent's result matched")
	}
}

func TestSchedulerMarksFailedCheckUnknownAndContinues(t *testing.T) {
	r := NewRegistry()
	r.Register(Check{
		ID: "mcn_flaky_1",
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			return CheckResultData{}, errors.New("registry timeout")
		},
	})
	ran := false
	r.Register(Check{
		ID: "mcn_after_1",
		Run: func(ctx context.Context, componentID string) (CheckResultData, error) {
			ran = true
			return CheckResultData{ResultType: ResultPassed}, nil
		},
	})
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	s := &Scheduler{Registry: r, Store: &memStore{}}
	actual, err := s.Run(context.Background(), "pkg:npm/foo@1.0.0", r.order)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if actual["mcn_flaky_1"] != ResultUnknown {
		t.Errorf("flaky check result = %v, want UNKNOWN", actual["mcn_flaky_1"])
	}
	if !ran {
		t.Error("expected the subsequent check to still run after a prior check errored")
	}
}

func TestComputeSLSALevelStopsAtFirstUnmetLevel(t *testing.T) {
	results := map[string]ResultType{
		"mcn_provenance_available_1": ResultPassed,
		"mcn_build_as_code_1":        ResultFailed,
	}
	reqs := []LevelRequirement{
		{Level: SLSALevel1, RequiredIDs: []string{"mcn_provenance_available_1"}},
		{Level: SLSALevel2, RequiredIDs: []string{"mcn_build_as_code_1"}},
	}
	if got := ComputeSLSALevel(results, reqs); got != SLSALevel1 {
		t.Errorf("ComputeSLSALevel() = %v, want SLSALevel1", got)
	}
}
