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

package storage

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/scriptinfo/script"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
)

const (
	fieldScriptHash = "scriptHash"
	fieldScriptCbor = "scriptCbor"
)

// DecodeError is returned when a cached record cannot be turned back into a
// ScriptInfo. It wraps a scriptinfo.FieldError or scriptinfo.ScriptDecodeError.
type DecodeError struct {
	Err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decode cached script info: %v", e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// Record is the persisted form of a ScriptInfo: the script hash and the
// canonical script encoding. The verification flag is recomputed on decode
// and never stored.
type Record struct {
	ScriptHash []byte
	ScriptCbor []byte
}

type recordJSON struct {
	ScriptHash *string `json:"scriptHash"`
	ScriptCbor *string `json:"scriptCbor"`
}

// MarshalJSON writes both fields as hex
func (r Record) MarshalJSON() ([]byte, error) {
	scriptHash := hex.EncodeToString(r.ScriptHash)
	scriptCbor := hex.EncodeToString(r.ScriptCbor)
	return json.Marshal(
		recordJSON{
			ScriptHash: &scriptHash,
			ScriptCbor: &scriptCbor,
		},
	)
}

// UnmarshalJSON accepts hex or standard base64 for either field. Absent fields
// are left empty and reported by Decode.
func (r *Record) UnmarshalJSON(data []byte) error {
	var tmp recordJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	var tmpRecord Record
	if tmp.ScriptHash != nil {
		val, err := decodeBytes(*tmp.ScriptHash)
		if err != nil {
			return scriptinfo.FieldError{Field: fieldScriptHash, Err: err}
		}
		tmpRecord.ScriptHash = val
	}
	if tmp.ScriptCbor != nil {
		val, err := decodeBytes(*tmp.ScriptCbor)
		if err != nil {
			return scriptinfo.FieldError{Field: fieldScriptCbor, Err: err}
		}
		tmpRecord.ScriptCbor = val
	}
	*r = tmpRecord
	return nil
}

// Hex is tried first, so a base64 value made only of hex digits is read as hex
func decodeBytes(val string) ([]byte, error) {
	if ret, err := hex.DecodeString(val); err == nil {
		return ret, nil
	}
	ret, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, errors.New("value is neither hex nor base64")
	}
	return ret, nil
}

// Encode converts a ScriptInfo into its persisted form
func Encode(info scriptinfo.ScriptInfo) (Record, error) {
	scriptCbor, err := script.Encode(info.Script())
	if err != nil {
		return Record{}, fmt.Errorf("encode script: %w", err)
	}
	hash := info.Hash()
	return Record{
		ScriptHash: hash.Bytes(),
		ScriptCbor: scriptCbor,
	}, nil
}

// Decode rebuilds a ScriptInfo from its persisted form. A hash that does not
// match the script is not an error; it shows up in the verification flag.
func Decode(rec Record) (scriptinfo.ScriptInfo, error) {
	hash, err := scriptinfo.HashFromBytes(fieldScriptHash, rec.ScriptHash)
	if err != nil {
		return scriptinfo.ScriptInfo{}, DecodeError{Err: err}
	}
	if len(rec.ScriptCbor) == 0 {
		return scriptinfo.ScriptInfo{}, DecodeError{
			Err: scriptinfo.ScriptDecodeError{
				Hash: hash.String(),
				Err: scriptinfo.FieldError{
					Field: fieldScriptCbor,
					Err:   scriptinfo.ErrFieldAbsent,
				},
			},
		}
	}
	tmpScript, err := script.Decode(rec.ScriptCbor)
	if err != nil {
		return scriptinfo.ScriptInfo{}, DecodeError{
			Err: scriptinfo.ScriptDecodeError{
				Hash: hash.String(),
				Err:  err,
			},
		}
	}
	info, err := scriptinfo.New(hash, tmpScript)
	if err != nil {
		return scriptinfo.ScriptInfo{}, DecodeError{Err: err}
	}
	return info, nil
}

// Marshal encodes a ScriptInfo as the JSON wire record
func Marshal(info scriptinfo.ScriptInfo) ([]byte, error) {
	rec, err := Encode(info)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Unmarshal decodes a JSON wire record into a ScriptInfo
func Unmarshal(data []byte) (scriptinfo.ScriptInfo, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		var fieldErr scriptinfo.FieldError
		if errors.As(err, &fieldErr) {
			return scriptinfo.ScriptInfo{}, DecodeError{Err: fieldErr}
		}
		return scriptinfo.ScriptInfo{}, DecodeError{
			Err: scriptinfo.FieldError{Field: "record", Err: err},
		}
	}
	return Decode(rec)
}
