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
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// JSON type names used by cardano-cli and the Koios API
const (
	nativeJSONTypeSig     = "sig"
	nativeJSONTypeAll     = "all"
	nativeJSONTypeAny     = "any"
	nativeJSONTypeAtLeast = "atLeast"
	nativeJSONTypeAfter   = "after"
	nativeJSONTypeBefore  = "before"
)

type nativeScriptJSON struct {
	Type     string            `json:"type"`
	KeyHash  string            `json:"keyHash,omitempty"`
	Required *uint             `json:"required,omitempty"`
	Slot     *uint64           `json:"slot,omitempty"`
	Scripts  []json.RawMessage `json:"scripts,omitempty"`
}

// ParseNativeScriptJSON parses the cardano-cli JSON form of a native script,
// as returned in the "value" field of Koios script_info records
func ParseNativeScriptJSON(data []byte) (NativeScript, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NativeScript{}, ErrEmptyNativeScript
	}
	var tmp nativeScriptJSON
	if err := json.Unmarshal(trimmed, &tmp); err != nil {
		return NativeScript{}, fmt.Errorf("parse native script JSON: %w", err)
	}
	switch tmp.Type {
	case nativeJSONTypeSig:
		keyHash, err := hex.DecodeString(tmp.KeyHash)
		if err != nil {
			return NativeScript{}, fmt.Errorf("invalid keyHash: %w", err)
		}
		if len(keyHash) != HashSize {
			return NativeScript{}, fmt.Errorf(
				"invalid keyHash length %d, expected %d",
				len(keyHash),
				HashSize,
			)
		}
		return NewNativeScriptPubkey(keyHash), nil
	case nativeJSONTypeAll, nativeJSONTypeAny, nativeJSONTypeAtLeast:
		scripts, err := parseNativeScriptList(tmp.Scripts)
		if err != nil {
			return NativeScript{}, err
		}
		switch tmp.Type {
		case nativeJSONTypeAll:
			return NewNativeScriptAll(scripts...), nil
		case nativeJSONTypeAny:
			return NewNativeScriptAny(scripts...), nil
		default:
			if tmp.Required == nil {
				return NativeScript{}, errors.New(
					"atLeast native script missing required count",
				)
			}
			return NewNativeScriptNofK(*tmp.Required, scripts...), nil
		}
	case nativeJSONTypeAfter, nativeJSONTypeBefore:
		if tmp.Slot == nil {
			return NativeScript{}, fmt.Errorf(
				"%s native script missing slot",
				tmp.Type,
			)
		}
		if tmp.Type == nativeJSONTypeAfter {
			return NewNativeScriptInvalidBefore(*tmp.Slot), nil
		}
		return NewNativeScriptInvalidHereafter(*tmp.Slot), nil
	default:
		return NativeScript{}, UnknownNativeScriptTypeError{Type: tmp.Type}
	}
}

func parseNativeScriptList(items []json.RawMessage) ([]NativeScript, error) {
	ret := make([]NativeScript, 0, len(items))
	for idx, item := range items {
		tmpScript, err := ParseNativeScriptJSON(item)
		if err != nil {
			return nil, fmt.Errorf("scripts[%d]: %w", idx, err)
		}
		ret = append(ret, tmpScript)
	}
	return ret, nil
}

func (n *NativeScript) UnmarshalJSON(data []byte) error {
	tmpScript, err := ParseNativeScriptJSON(data)
	if err != nil {
		return err
	}
	*n = tmpScript
	return nil
}

func (n NativeScript) MarshalJSON() ([]byte, error) {
	tmp, err := n.toJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(tmp)
}

type nativeScriptJSONOut struct {
	Type     string                `json:"type"`
	KeyHash  string                `json:"keyHash,omitempty"`
	Required *uint                 `json:"required,omitempty"`
	Slot     *uint64               `json:"slot,omitempty"`
	Scripts  []nativeScriptJSONOut `json:"scripts,omitempty"`
}

func (n NativeScript) toJSON() (nativeScriptJSONOut, error) {
	switch v := n.item.(type) {
	case *NativeScriptPubkey:
		return nativeScriptJSONOut{
			Type:    nativeJSONTypeSig,
			KeyHash: hex.EncodeToString(v.Hash),
		}, nil
	case *NativeScriptAll:
		scripts, err := nativeScriptListToJSON(v.Scripts)
		return nativeScriptJSONOut{
			Type:    nativeJSONTypeAll,
			Scripts: scripts,
		}, err
	case *NativeScriptAny:
		scripts, err := nativeScriptListToJSON(v.Scripts)
		return nativeScriptJSONOut{
			Type:    nativeJSONTypeAny,
			Scripts: scripts,
		}, err
	case *NativeScriptNofK:
		scripts, err := nativeScriptListToJSON(v.Scripts)
		required := v.N
		return nativeScriptJSONOut{
			Type:     nativeJSONTypeAtLeast,
			Required: &required,
			Scripts:  scripts,
		}, err
	case *NativeScriptInvalidBefore:
		slot := v.Slot
		return nativeScriptJSONOut{
			Type: nativeJSONTypeAfter,
			Slot: &slot,
		}, nil
	case *NativeScriptInvalidHereafter:
		slot := v.Slot
		return nativeScriptJSONOut{
			Type: nativeJSONTypeBefore,
			Slot: &slot,
		}, nil
	case nil:
		return nativeScriptJSONOut{}, ErrEmptyNativeScript
	default:
		return nativeScriptJSONOut{}, fmt.Errorf(
			"unsupported native script node %T",
			n.item,
		)
	}
}

func nativeScriptListToJSON(
	scripts []NativeScript,
) ([]nativeScriptJSONOut, error) {
	ret := make([]nativeScriptJSONOut, 0, len(scripts))
	for _, tmpScript := range scripts {
		tmp, err := tmpScript.toJSON()
		if err != nil {
			return nil, err
		}
		ret = append(ret, tmp)
	}
	return ret, nil
}
