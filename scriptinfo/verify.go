// Copyright 2025 Blink Labs Software
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

package scriptinfo

import (
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/scriptinfo/script"
)

// Verification is the outcome of re-encoding a script and comparing its hash
// against the hash claimed by the source. NotApplicable is distinct from
// Mismatch and must not be read as a failed check.
type Verification uint8

const (
	VerificationNotApplicable Verification = iota
	VerificationMismatch
	VerificationMatch
)

// Applicable returns true if the check was performed
func (v Verification) Applicable() bool {
	return v != VerificationNotApplicable
}

// Matches returns the check result and whether the check was performed at all
func (v Verification) Matches() (matches bool, ok bool) {
	switch v {
	case VerificationMatch:
		return true, true
	case VerificationMismatch:
		return false, true
	default:
		return false, false
	}
}

func (v Verification) String() string {
	switch v {
	case VerificationNotApplicable:
		return "not-applicable"
	case VerificationMismatch:
		return "mismatch"
	case VerificationMatch:
		return "match"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// MarshalJSON renders the verification as null, false or true
func (v Verification) MarshalJSON() ([]byte, error) {
	matches, ok := v.Matches()
	if !ok {
		return []byte("null"), nil
	}
	if matches {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// Verify decides whether the canonical encoding of a script reproduces the
// claimed hash. Native scripts are re-encoded and hashed. Plutus scripts are
// kept as the raw bytes supplied by the source, so no claim is made for them.
//
// A native script whose canonical encoding differs from the bytes that were
// hashed on-chain is still a valid script, which is why a mismatch is an
// outcome and not an error.
func Verify(hash lcommon.Blake2b224, s script.Script) Verification {
	switch v := s.(type) {
	case script.NativeScript:
		computed, err := script.Hash(v)
		if err != nil {
			return VerificationMismatch
		}
		if computed == hash {
			return VerificationMatch
		}
		return VerificationMismatch
	case script.PlutusScript:
		return VerificationNotApplicable
	default:
		return VerificationNotApplicable
	}
}
