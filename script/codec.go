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

package script

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// HashSize is the length in bytes of a script hash and of a key hash
const HashSize = 28

// Script envelope tags. These match the ScriptRefType values from
// gouroboros/ledger/common and the hash prefix byte for each script kind.
const (
	tagNative   uint = 0
	tagPlutusV1 uint = 1
	tagPlutusV2 uint = 2
	tagPlutusV3 uint = 3
)

// scriptEnvelope is the [tag, body] pair that carries a script of any kind
type scriptEnvelope struct {
	cbor.StructAsArray
	Tag  uint
	Body cbor.RawMessage
}

// Encode returns the canonical CBOR encoding of a script: a two element array
// of the script tag and the script body. Native script bodies are the native
// script structure, Plutus bodies are the program as a byte string.
func Encode(s Script) ([]byte, error) {
	tag, body, err := encodeBody(s)
	if err != nil {
		return nil, err
	}
	return cbor.Encode(
		&scriptEnvelope{
			Tag:  tag,
			Body: cbor.RawMessage(body),
		},
	)
}

// Decode parses the canonical CBOR encoding produced by Encode
func Decode(data []byte) (Script, error) {
	if len(data) == 0 {
		return nil, ErrEmptyScriptData
	}
	var env scriptEnvelope
	n, err := cbor.Decode(data, &env)
	if err != nil {
		return nil, fmt.Errorf("decode script envelope: %w", err)
	}
	if n != len(data) {
		return nil, TrailingScriptDataError{Extra: len(data) - n}
	}
	if len(env.Body) == 0 {
		return nil, fmt.Errorf("decode script envelope: %w", ErrEmptyScriptData)
	}
	switch env.Tag {
	case tagNative:
		var ns NativeScript
		n, err := cbor.Decode(env.Body, &ns)
		if err != nil {
			return nil, fmt.Errorf("decode native script: %w", err)
		}
		if n != len(env.Body) {
			return nil, TrailingScriptDataError{Extra: len(env.Body) - n}
		}
		return ns, nil
	case tagPlutusV1, tagPlutusV2, tagPlutusV3:
		var program []byte
		n, err := cbor.Decode(env.Body, &program)
		if err != nil {
			return nil, fmt.Errorf("decode Plutus script: %w", err)
		}
		if n != len(env.Body) {
			return nil, TrailingScriptDataError{Extra: len(env.Body) - n}
		}
		// #nosec G115
		return NewPlutusScript(PlutusVersion(env.Tag), program)
	default:
		return nil, UnknownScriptTagError{Tag: env.Tag}
	}
}

// Hash computes the script hash: Blake2b-224 over the script tag byte
// followed by the script body. The body is the canonical native script CBOR
// for native scripts and the raw program bytes for Plutus scripts.
func Hash(s Script) (lcommon.Blake2b224, error) {
	var tag uint
	var body []byte
	switch v := s.(type) {
	case NativeScript:
		tmpBody, err := cbor.Encode(v)
		if err != nil {
			return lcommon.Blake2b224{}, err
		}
		tag = tagNative
		body = tmpBody
	case PlutusScript:
		if !v.version.Valid() {
			return lcommon.Blake2b224{}, UnknownPlutusVersionError{
				Version: uint(v.version),
			}
		}
		tag = uint(v.version)
		body = v.program
	case nil:
		return lcommon.Blake2b224{}, ErrNilScript
	default:
		return lcommon.Blake2b224{}, fmt.Errorf("unsupported script type %T", s)
	}
	data := make([]byte, 0, len(body)+1)
	data = append(data, byte(tag))
	data = append(data, body...)
	return lcommon.Blake2b224Hash(data), nil
}

func encodeBody(s Script) (uint, []byte, error) {
	switch v := s.(type) {
	case NativeScript:
		body, err := cbor.Encode(v)
		if err != nil {
			return 0, nil, err
		}
		return tagNative, body, nil
	case PlutusScript:
		if !v.version.Valid() {
			return 0, nil, UnknownPlutusVersionError{Version: uint(v.version)}
		}
		body, err := cbor.Encode(v.program)
		if err != nil {
			return 0, nil, err
		}
		return uint(v.version), body, nil
	case nil:
		return 0, nil, ErrNilScript
	default:
		return 0, nil, fmt.Errorf("unsupported script type %T", s)
	}
}
