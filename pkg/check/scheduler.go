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
	"log"

	"github.com/google/uuid"
)

// Store is where the scheduler writes a check's persisted outcome, per
// §4.G's "one MappedCheckResult row and N CheckFacts rows".
type Store interface {
	WriteResult(MappedCheckResult, []CheckFact) error
}

// Scheduler runs a Registry's selected checks in dependency order, applying
// the skip policy between parent and child (§4.G).
type Scheduler struct {
	Registry *Registry
	Store    Store
	Logger   *log.Logger
}

// Run executes ids (assumed already expand_parents/expand_children-selected
// and in the registry's topological order) against componentID, recording
// each check's actual result so dependents can apply the skip policy.
func (s *Scheduler) Run(ctx context.Context, componentID string, ids []string) (map[string]ResultType, error) {
	actual := map[string]ResultType{}
	for _, id := range ids {
		c, ok := s.Registry.Get(id)
		if !ok {
			continue
		}
		skip, reason := s.shouldSkip(c, actual)
		var result ResultType
		var facts []CheckFact
		if skip {
			result = c.ResultOnSkip
			if result == "" {
				result = ResultSkipped
			}
			if s.Logger != nil {
				s.Logger.Printf("check %s: skipped (%s)", id, reason.SuppressComment)
			}
		} else {
			data, err := c.Run(ctx, componentID)
			if err != nil {
				result = ResultUnknown
				if s.Logger != nil {
					s.Logger.Printf("check %s: error: %v", id, err)
				}
			} else {
				result = data.ResultType
				facts = data.ResultTables
			}
		}
		actual[id] = result
		mapped := MappedCheckResult{ID: uuid.New(), CheckID: id, ComponentID: componentID, Result: result}
		for i := range facts {
			facts[i].ComponentID = componentID
			facts[i].CheckResultID = mapped.ID
			if facts[i].ID == uuid.Nil {
				facts[i].ID = uuid.New()
			}
		}
		if s.Store != nil {
			if err := s.Store.WriteResult(mapped, facts); err != nil {
				return actual, err
			}
		}
	}
	return actual, nil
}

// shouldSkip inspects every declared parent's actual result; if any differs
// from the expectation, the check is skipped. Skipping propagates
// transitively since a skipped parent's recorded result (SKIPPED, unless
// ResultOnSkip says otherwise) will itself mismatch a grandchild's
// expectation.
func (s *Scheduler) shouldSkip(c Check, actual map[string]ResultType) (bool, SkippedInfo) {
	for _, dep := range c.DependsOn {
		got, ran := actual[dep.ParentID]
		if !ran || got != dep.ExpectedResult {
			return true, SkippedInfo{
				CheckID:         c.ID,
				SuppressComment: "parent " + dep.ParentID + " did not produce the expected result",
			}
		}
	}
	return false, SkippedInfo{}
}
