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

// Package check implements the check registry and scheduler of §4.G:
// dependency-aware selection, topological execution, skip propagation, and
// the persistence contract each check's result is written through.
package check

import (
	"context"
	"regexp"

	"github.com/google/uuid"
)

// idPattern is the required shape of a check identifier (§4.G).
var idPattern = regexp.MustCompile(`^mcn_([a-z]+_)+[0-9]+$`)

// ValidID reports whether id is a well-formed check identifier.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// ResultType is a check's outcome.
type ResultType string

const (
	ResultPassed  ResultType = "PASSED"
	ResultFailed  ResultType = "FAILED"
	ResultSkipped ResultType = "SKIPPED"
	ResultUnknown ResultType = "UNKNOWN"
)

// CheckFact is one polymorphic persisted fact row produced by a check. Caller
// code populates Columns with the check-specific fields named in §4.H's
// description of what a fact carries (build tool name, deploy command,
// language, risk score, ...); this type only owns the fields every fact
// shares.
type CheckFact struct {
	ID            uuid.UUID
	CheckType     string
	Confidence    float64
	ComponentID   string
	CheckResultID uuid.UUID
	Columns       map[string]any
}

// CheckResultData is what a Check's Run returns: its result type plus the
// facts that justify it.
type CheckResultData struct {
	ResultType   ResultType
	ResultTables []CheckFact
}

// MappedCheckResult is the persisted row linking a CheckResultData back to
// the check and component that produced it.
type MappedCheckResult struct {
	ID          uuid.UUID
	CheckID     string
	ComponentID string
	Result      ResultType
}

// SkippedInfo records why a check was skipped instead of run, per §4.G's
// skip policy.
type SkippedInfo struct {
	CheckID         string
	SuppressComment string
}

// ParentExpectation pairs a parent check ID with the result this check
// requires from it to run (§4.G "depends_on").
type ParentExpectation struct {
	ParentID       string
	ExpectedResult ResultType
}

// Check is a single analysis step consumed by the scheduler.
type Check struct {
	ID           string
	DependsOn    []ParentExpectation
	ResultOnSkip ResultType
	Run          func(ctx context.Context, componentID string) (CheckResultData, error)
}
