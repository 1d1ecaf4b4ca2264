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

// Package scriptinfo holds the normalized script metadata record shared by
// the cache and indexer front-ends, the hash verification rule, and the
// decode error kinds both front-ends report.
package scriptinfo

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/scriptinfo/script"
)

// ScriptInfo is the resolved metadata for a script. It is immutable once
// constructed.
type ScriptInfo struct {
	script       script.Script
	hash         lcommon.Blake2b224
	verification Verification
}

// New builds a ScriptInfo from a hash claimed by a source and the decoded
// script, stamping it with the result of Verify. The hash is kept as supplied.
func New(hash lcommon.Blake2b224, s script.Script) (ScriptInfo, error) {
	switch v := s.(type) {
	case script.NativeScript:
		if v.Item() == nil {
			return ScriptInfo{}, ScriptDecodeError{
				Hash: hash.String(),
				Err:  script.ErrEmptyNativeScript,
			}
		}
		// The caller keeps its own copy
		s = v.Clone()
	case script.PlutusScript:
	case nil:
		return ScriptInfo{}, ScriptDecodeError{
			Hash: hash.String(),
			Err:  script.ErrNilScript,
		}
	default:
		return ScriptInfo{}, ScriptDecodeError{
			Hash: hash.String(),
			Err:  fmt.Errorf("unsupported script type %T", s),
		}
	}
	return ScriptInfo{
		hash:         hash,
		script:       s,
		verification: Verify(hash, s),
	}, nil
}

func (i ScriptInfo) Hash() lcommon.Blake2b224 {
	return i.hash
}

// Script returns the decoded script. Native scripts are returned as a deep
// copy, so the stored script and its verification flag cannot drift apart.
func (i ScriptInfo) Script() script.Script {
	if ns, ok := i.script.(script.NativeScript); ok {
		return ns.Clone()
	}
	return i.script
}

// NativeCborEncodingMatchesHash reports whether re-encoding a native script
// reproduces its hash. It is VerificationNotApplicable for Plutus scripts.
func (i ScriptInfo) NativeCborEncodingMatchesHash() Verification {
	return i.verification
}

type scriptInfoJSON struct {
	Script                        any          `json:"script"`
	ScriptHash                    string       `json:"scriptHash"`
	Type                          string       `json:"type"`
	NativeCborEncodingMatchesHash Verification `json:"nativeCborEncodingMatchesHash"`
}

// MarshalJSON renders a human readable view of the record. Native scripts are
// shown in cardano-cli JSON form and Plutus programs as hex.
func (i ScriptInfo) MarshalJSON() ([]byte, error) {
	tmp := scriptInfoJSON{
		ScriptHash:                    i.hash.String(),
		NativeCborEncodingMatchesHash: i.verification,
	}
	switch v := i.script.(type) {
	case script.NativeScript:
		tmp.Type = script.KindNative.String()
		tmp.Script = v
	case script.PlutusScript:
		tmp.Type = v.Version().String()
		tmp.Script = hex.EncodeToString(v.Program())
	default:
		return nil, fmt.Errorf("unsupported script type %T", i.script)
	}
	return json.Marshal(tmp)
}

// HashFromBytes converts a raw script hash into its fixed size form. The field
// name is used for error reporting.
func HashFromBytes(field string, data []byte) (lcommon.Blake2b224, error) {
	if len(data) == 0 {
		return lcommon.Blake2b224{}, FieldError{
			Field: field,
			Err:   ErrFieldAbsent,
		}
	}
	if len(data) != script.HashSize {
		return lcommon.Blake2b224{}, FieldError{
			Field: field,
			Hash:  hex.EncodeToString(data),
			Err: fmt.Errorf(
				"%w: got %d bytes, expected %d",
				ErrWrongLength,
				len(data),
				script.HashSize,
			),
		}
	}
	return lcommon.NewBlake2b224(data), nil
}

// ParseHash decodes a hex encoded script hash
func ParseHash(field string, hexStr string) (lcommon.Blake2b224, error) {
	if hexStr == "" {
		return lcommon.Blake2b224{}, FieldError{
			Field: field,
			Err:   ErrFieldAbsent,
		}
	}
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return lcommon.Blake2b224{}, FieldError{
			Field: field,
			Hash:  hexStr,
			Err:   err,
		}
	}
	return HashFromBytes(field, data)
}
