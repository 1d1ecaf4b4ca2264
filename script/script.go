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

// Package script models Cardano scripts as a closed sum of native scripts and
// versioned Plutus programs, along with their canonical CBOR encoding and
// Blake2b-224 script hash.
package script

import (
	"fmt"
)

// Kind identifies the family of a script
type Kind uint8

const (
	KindNative Kind = iota
	KindPlutus
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindPlutus:
		return "plutus"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// PlutusVersion is the Plutus language version. The numeric values match the
// script reference tags used on-chain (1=PlutusV1, 2=PlutusV2, 3=PlutusV3).
type PlutusVersion uint8

const (
	PlutusV1 PlutusVersion = 1
	PlutusV2 PlutusVersion = 2
	PlutusV3 PlutusVersion = 3
)

// Valid returns true if the version is one of the known Plutus versions
func (v PlutusVersion) Valid() bool {
	switch v {
	case PlutusV1, PlutusV2, PlutusV3:
		return true
	default:
		return false
	}
}

func (v PlutusVersion) String() string {
	if !v.Valid() {
		return fmt.Sprintf("PlutusV?(%d)", uint8(v))
	}
	return fmt.Sprintf("PlutusV%d", uint8(v))
}

// Script is either a NativeScript or a PlutusScript. The set of
// implementations is closed: consumers switch on the concrete type and treat
// anything else as a programming error.
type Script interface {
	Kind() Kind
	isScript()
}

// PlutusScript is a compiled Plutus program tagged with its language version.
// The program bytes are opaque here.
type PlutusScript struct {
	program []byte
	version PlutusVersion
}

// NewPlutusScript returns a PlutusScript holding a copy of program
func NewPlutusScript(
	version PlutusVersion,
	program []byte,
) (PlutusScript, error) {
	if !version.Valid() {
		return PlutusScript{}, UnknownPlutusVersionError{Version: uint(version)}
	}
	return PlutusScript{
		version: version,
		program: append([]byte{}, program...),
	}, nil
}

func (PlutusScript) Kind() Kind { return KindPlutus }

func (PlutusScript) isScript() {}

func (p PlutusScript) Version() PlutusVersion {
	return p.version
}

// Program returns a copy of the compiled program bytes
func (p PlutusScript) Program() []byte {
	return append([]byte{}, p.program...)
}
