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
	"errors"
	"fmt"
)

var (
	ErrFieldAbsent = errors.New("field absent")
	ErrWrongLength = errors.New("wrong length")
)

// FieldError is returned when a required field is missing or has the wrong
// shape, such as invalid hex or a hash of the wrong length
type FieldError struct {
	Err   error
	Field string
	Hash  string
}

func (e FieldError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf(
			"script %s: invalid field %q: %v",
			e.Hash,
			e.Field,
			e.Err,
		)
	}
	return fmt.Sprintf("invalid field %q: %v", e.Field, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// UnknownTypeError is returned when an indexer record carries a script type
// tag outside of the recognized set
type UnknownTypeError struct {
	Hash string
	Type string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("script %s: unknown script type %q", e.Hash, e.Type)
}

// MissingFieldError is returned when the field implied by a script type tag
// ("value" for native scripts, "bytes" for Plutus scripts) is absent or does
// not decode
type MissingFieldError struct {
	Err   error
	Field string
	Hash  string
}

func (e MissingFieldError) Error() string {
	var what string
	switch e.Field {
	case "value":
		what = "native script"
	case "bytes":
		what = "Plutus script bytes"
	default:
		what = e.Field
	}
	msg := fmt.Sprintf(
		"script %s: missing %s in Koios response",
		e.Hash,
		what,
	)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e MissingFieldError) Unwrap() error {
	return e.Err
}

// EmptyResultError is returned when a query expected to return exactly one
// record returned none
type EmptyResultError struct {
	Hash string
}

func (e EmptyResultError) Error() string {
	if e.Hash == "" {
		return "empty result"
	}
	return "no script info found for script " + e.Hash
}

// ScriptDecodeError is returned when raw script bytes do not parse under the
// canonical script encoding
type ScriptDecodeError struct {
	Err  error
	Hash string
}

func (e ScriptDecodeError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("script %s: decode script: %v", e.Hash, e.Err)
	}
	return fmt.Sprintf("decode script: %v", e.Err)
}

func (e ScriptDecodeError) Unwrap() error {
	return e.Err
}
