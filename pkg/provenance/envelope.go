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

// Package provenance parses in-toto/SLSA provenance envelopes, validates
// their declared dialect, and extracts the repository/commit and build
// invocation the provenance describes (§4.E).
package provenance

import (
	"encoding/base64"
	"encoding/json"

	"github.com/in-toto/in-toto-golang/in_toto"
	"github.com/pkg/errors"
	"github.com/secure-systems-lab/go-securesystemslib/dsse"
)

// Statement types recognized by _type.
const (
	StatementTypeV01 = "https://in-toto.io/Statement/v0.1"
	StatementTypeV1  = "https://in-toto.io/Statement/v1"
)

// Predicate types recognized by predicateType.
const (
	PredicateSLSA01    = "https://slsa.dev/provenance/v0.1"
	PredicateSLSA02    = "https://slsa.dev/provenance/v0.2"
	PredicateSLSA1     = "https://slsa.dev/provenance/v1"
	PredicateWitness01 = "https://witness.dev/attestation-collection/v0.1"
)

// allowedPairs is the validation table of §4.E: which predicateType values
// are acceptable for a given _type.
var allowedPairs = map[string]map[string]bool{
	StatementTypeV1: {
		PredicateSLSA1: true,
	},
	StatementTypeV01: {
		PredicateSLSA02:    true,
		PredicateSLSA01:    true,
		PredicateWitness01: true,
	},
}

// ValidateInTotoPayloadError reports a payload whose _type/predicateType
// pairing is not one of the allowed combinations.
type ValidateInTotoPayloadError struct {
	Type          string
	PredicateType string
}

func (e *ValidateInTotoPayloadError) Error() string {
	return "invalid in-toto payload: _type=" + e.Type + " predicateType=" + e.PredicateType + " is not an allowed combination"
}

// Envelope is the subset of an in-toto Statement this analyzer cares
// about: the header fields plus the predicate body kept as raw JSON, since
// its shape depends on the dialect dispatched on below.
type Envelope struct {
	Type          string            `json:"_type"`
	PredicateType string            `json:"predicateType"`
	Subject       []in_toto.Subject `json:"subject"`
	Predicate     json.RawMessage   `json:"predicate"`
}

// ParseEnvelope decodes raw as a bare in-toto Statement JSON document (not
// wrapped in a DSSE envelope).
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, errors.Wrap(err, "parsing in-toto statement")
	}
	return &e, nil
}

// ParseSignedEnvelope decodes raw as a DSSE envelope, base64-decodes its
// payload and parses that as an in-toto Statement. Signature verification
// is out of scope here (§1 non-goals): callers that need it construct
// their own dsse.EnvelopeVerifier and call Verify before this.
func ParseSignedEnvelope(raw []byte) (*Envelope, error) {
	var env dsse.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "parsing DSSE envelope")
	}
	if env.Payload == "" {
		return nil, errors.New("empty DSSE payload")
	}
	payload, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "decoding DSSE payload")
	}
	return ParseEnvelope(payload)
}

// Validate rejects payloads whose _type/predicateType do not match one of
// the allowed combinations in §4.E.
func (e *Envelope) Validate() error {
	preds, ok := allowedPairs[e.Type]
	if !ok || !preds[e.PredicateType] {
		return &ValidateInTotoPayloadError{Type: e.Type, PredicateType: e.PredicateType}
	}
	return nil
}
