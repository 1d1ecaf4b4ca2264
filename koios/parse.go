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

package koios

import (
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/scriptinfo/script"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
)

// ParseScriptInfo validates a single script_info record and builds the
// normalized ScriptInfo for it
func ParseScriptInfo(rec ScriptInfoRecord) (scriptinfo.ScriptInfo, error) {
	hash, err := scriptinfo.ParseHash("script_hash", rec.ScriptHash)
	if err != nil {
		return scriptinfo.ScriptInfo{}, err
	}
	hashStr := hash.String()
	var tmpScript script.Script
	switch rec.Type {
	case ScriptTypeMultisig, ScriptTypeTimelock:
		// The bytes field is ignored for native scripts
		if !rec.HasValue() {
			return scriptinfo.ScriptInfo{}, scriptinfo.MissingFieldError{
				Field: "value",
				Hash:  hashStr,
			}
		}
		ns, err := script.ParseNativeScriptJSON(rec.Value)
		if err != nil {
			return scriptinfo.ScriptInfo{}, scriptinfo.MissingFieldError{
				Field: "value",
				Hash:  hashStr,
				Err:   err,
			}
		}
		tmpScript = ns
	case ScriptTypePlutusV1, ScriptTypePlutusV2, ScriptTypePlutusV3:
		version := plutusVersionForType(rec.Type)
		if rec.Bytes == nil || *rec.Bytes == "" {
			return scriptinfo.ScriptInfo{}, scriptinfo.MissingFieldError{
				Field: "bytes",
				Hash:  hashStr,
			}
		}
		program, err := hex.DecodeString(*rec.Bytes)
		if err != nil {
			return scriptinfo.ScriptInfo{}, scriptinfo.MissingFieldError{
				Field: "bytes",
				Hash:  hashStr,
				Err:   err,
			}
		}
		ps, err := script.NewPlutusScript(version, program)
		if err != nil {
			return scriptinfo.ScriptInfo{}, scriptinfo.ScriptDecodeError{
				Hash: hashStr,
				Err:  err,
			}
		}
		tmpScript = ps
	default:
		return scriptinfo.ScriptInfo{}, scriptinfo.UnknownTypeError{
			Hash: hashStr,
			Type: rec.Type,
		}
	}
	return scriptinfo.New(hash, tmpScript)
}

func plutusVersionForType(scriptType string) script.PlutusVersion {
	switch scriptType {
	case ScriptTypePlutusV1:
		return script.PlutusV1
	case ScriptTypePlutusV2:
		return script.PlutusV2
	case ScriptTypePlutusV3:
		return script.PlutusV3
	default:
		return 0
	}
}

// ParseBatch parses every record of a script_info response in order. The
// first invalid record aborts the whole batch: no partial results are
// returned.
func ParseBatch(recs []ScriptInfoRecord) ([]scriptinfo.ScriptInfo, error) {
	ret := make([]scriptinfo.ScriptInfo, 0, len(recs))
	for idx, rec := range recs {
		info, err := ParseScriptInfo(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", idx, err)
		}
		ret = append(ret, info)
	}
	return ret, nil
}

// ParseFirst parses a response to a single-hash query and returns its first
// record. Later records are validated by the batch parse but otherwise
// discarded; they are never merged with or compared against the first.
func ParseFirst(recs []ScriptInfoRecord) (scriptinfo.ScriptInfo, error) {
	if len(recs) == 0 {
		return scriptinfo.ScriptInfo{}, scriptinfo.EmptyResultError{}
	}
	infos, err := ParseBatch(recs)
	if err != nil {
		return scriptinfo.ScriptInfo{}, err
	}
	return infos[0], nil
}
