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
	"errors"
	"fmt"
)

var (
	ErrNilScript          = errors.New("nil script")
	ErrEmptyNativeScript  = errors.New("native script has no content")
	ErrEmptyScriptData    = errors.New("empty script data")
	ErrTrailingScriptData = errors.New("trailing bytes after script data")
)

// UnknownScriptTagError is returned when a script envelope carries a tag
// other than 0 (native) or 1-3 (Plutus V1-V3)
type UnknownScriptTagError struct {
	Tag uint
}

func (e UnknownScriptTagError) Error() string {
	return fmt.Sprintf("unknown script tag %d", e.Tag)
}

// UnknownPlutusVersionError is returned when a Plutus version marker is not
// one of V1, V2 or V3
type UnknownPlutusVersionError struct {
	Version uint
}

func (e UnknownPlutusVersionError) Error() string {
	return fmt.Sprintf("unknown Plutus version %d", e.Version)
}

// UnknownNativeScriptTypeError is returned when a native script node has an
// unrecognized type, either as a CBOR id or as a JSON type name
type UnknownNativeScriptTypeError struct {
	Type string
}

func (e UnknownNativeScriptTypeError) Error() string {
	return "unknown native script type " + e.Type
}

// TrailingScriptDataError is returned when bytes are left over after a
// complete script encoding
type TrailingScriptDataError struct {
	Extra int
}

func (e TrailingScriptDataError) Error() string {
	return fmt.Sprintf("%s (%d extra)", ErrTrailingScriptData, e.Extra)
}

func (e TrailingScriptDataError) Unwrap() error {
	return ErrTrailingScriptData
}
