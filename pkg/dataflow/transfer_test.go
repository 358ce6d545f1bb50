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

package dataflow

import (
	"testing"

	"github.com/slsa-verify/provenance-analyzer/pkg/value"
)

func TestTransferStateSelfIsNoOp(t *testing.T) {
	s := value.NewState()
	scope := value.NewScope("s", nil)
	loc := value.NewLocation(scope, value.Console())
	s.Insert(loc, value.StringLiteral("x"), value.DebugLabel{Seq: 1})

	changed := TransferState(s, s, TransferAll)
	if changed {
		t.Errorf("TransferState(s, s, _) = true, want false")
	}
	if len(s.Values(loc)) != 1 {
		t.Errorf("expected state unmodified by self-transfer, got %d values", len(s.Values(loc)))
	}
}

func TestTransferStateExcludesScopes(t *testing.T) {
	outer := value.NewScope("outer", nil)
	inner := value.NewScope("inner", outer)
	src := value.NewState()
	locOuter := value.NewLocation(outer, value.Console())
	locInner := value.NewLocation(inner, value.Console())
	src.Insert(locOuter, value.StringLiteral("o"), value.DebugLabel{Seq: 1})
	src.Insert(locInner, value.StringLiteral("i"), value.DebugLabel{Seq: 2})

	dest := value.NewState()
	TransferState(src, dest, ExcludeScopes{Excluded: []*value.Scope{inner}})

	if !dest.Has(locOuter, value.StringLiteral("o")) {
		t.Errorf("expected outer-scope fact to transfer")
	}
	if dest.Has(locInner, value.StringLiteral("i")) {
		t.Errorf("expected inner-scope fact to be excluded")
	}
}

func TestTransferStateMarksCopied(t *testing.T) {
	src := value.NewState()
	scope := value.NewScope("s", nil)
	loc := value.NewLocation(scope, value.Console())
	src.Insert(loc, value.StringLiteral("x"), value.DebugLabel{Seq: 1, Copied: false})

	dest := value.NewState()
	if !TransferState(src, dest, TransferAll) {
		t.Fatalf("expected TransferState into empty dest to report changed=true")
	}
	vs := dest.Values(loc)
	if len(vs) != 1 || !vs[0].Label.Copied {
		t.Errorf("expected transferred value to carry Copied=true label")
	}
}
