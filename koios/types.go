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
	"bytes"
	"encoding/json"
)

// Script type tags used by the Koios script_info endpoint
const (
	ScriptTypeMultisig = "multisig"
	ScriptTypeTimelock = "timelock"
	ScriptTypePlutusV1 = "plutusV1"
	ScriptTypePlutusV2 = "plutusV2"
	ScriptTypePlutusV3 = "plutusV3"
)

// ScriptInfoRecord is one element of a script_info response. Exactly one of
// Value and Bytes is expected to be set, depending on Type.
type ScriptInfoRecord struct {
	Bytes          *string         `json:"bytes"`
	Size           *uint64         `json:"size,omitempty"`
	ScriptHash     string          `json:"script_hash"`
	CreationTxHash string          `json:"creation_tx_hash,omitempty"`
	Type           string          `json:"type"`
	Value          json.RawMessage `json:"value"`
}

// HasValue returns true if the record carries a non-null native script value
func (r ScriptInfoRecord) HasValue() bool {
	trimmed := bytes.TrimSpace(r.Value)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// scriptInfoRequest is the POST body for the script_info endpoint
type scriptInfoRequest struct {
	ScriptHashes []string `json:"_script_hashes"`
}
