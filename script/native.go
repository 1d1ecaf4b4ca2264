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
	"strconv"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Native script node types, as used in the first element of each CBOR array
const (
	NativeScriptTypePubkey           uint = 0
	NativeScriptTypeAll              uint = 1
	NativeScriptTypeAny              uint = 2
	NativeScriptTypeNofK             uint = 3
	NativeScriptTypeInvalidBefore    uint = 4
	NativeScriptTypeInvalidHereafter uint = 5
)

// NativeScript is a structured (timelock / multisig) script. It wraps exactly
// one of the NativeScript* node types below.
type NativeScript struct {
	item any
}

// Item returns a copy of the wrapped node, one of *NativeScriptPubkey,
// *NativeScriptAll, *NativeScriptAny, *NativeScriptNofK,
// *NativeScriptInvalidBefore or *NativeScriptInvalidHereafter. Changes to the
// returned node do not affect n. It returns nil for the zero value.
func (n NativeScript) Item() any {
	return n.Clone().item
}

// Clone returns a deep copy of the script sharing no memory with n
func (n NativeScript) Clone() NativeScript {
	switch v := n.item.(type) {
	case *NativeScriptPubkey:
		return NativeScript{
			item: &NativeScriptPubkey{
				Type: v.Type,
				Hash: append([]byte{}, v.Hash...),
			},
		}
	case *NativeScriptAll:
		return NativeScript{
			item: &NativeScriptAll{
				Type:    v.Type,
				Scripts: copyScripts(v.Scripts),
			},
		}
	case *NativeScriptAny:
		return NativeScript{
			item: &NativeScriptAny{
				Type:    v.Type,
				Scripts: copyScripts(v.Scripts),
			},
		}
	case *NativeScriptNofK:
		return NativeScript{
			item: &NativeScriptNofK{
				Type:    v.Type,
				N:       v.N,
				Scripts: copyScripts(v.Scripts),
			},
		}
	case *NativeScriptInvalidBefore:
		tmp := *v
		return NativeScript{item: &tmp}
	case *NativeScriptInvalidHereafter:
		tmp := *v
		return NativeScript{item: &tmp}
	default:
		return NativeScript{}
	}
}

func (NativeScript) Kind() Kind { return KindNative }

func (NativeScript) isScript() {}

func (n *NativeScript) UnmarshalCBOR(data []byte) error {
	id, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return err
	}
	var tmpData any
	switch uint(id) { //nolint:gosec // id comes from a CBOR uint
	case NativeScriptTypePubkey:
		tmpData = &NativeScriptPubkey{}
	case NativeScriptTypeAll:
		tmpData = &NativeScriptAll{}
	case NativeScriptTypeAny:
		tmpData = &NativeScriptAny{}
	case NativeScriptTypeNofK:
		tmpData = &NativeScriptNofK{}
	case NativeScriptTypeInvalidBefore:
		tmpData = &NativeScriptInvalidBefore{}
	case NativeScriptTypeInvalidHereafter:
		tmpData = &NativeScriptInvalidHereafter{}
	default:
		return UnknownNativeScriptTypeError{Type: strconv.Itoa(id)}
	}
	if _, err := cbor.Decode(data, tmpData); err != nil {
		return err
	}
	n.item = tmpData
	return nil
}

func (n NativeScript) MarshalCBOR() ([]byte, error) {
	if n.item == nil {
		return nil, ErrEmptyNativeScript
	}
	return cbor.Encode(n.item)
}

type NativeScriptPubkey struct {
	cbor.StructAsArray
	Type uint
	Hash []byte
}

type NativeScriptAll struct {
	cbor.StructAsArray
	Type    uint
	Scripts []NativeScript
}

type NativeScriptAny struct {
	cbor.StructAsArray
	Type    uint
	Scripts []NativeScript
}

type NativeScriptNofK struct {
	cbor.StructAsArray
	Type    uint
	N       uint
	Scripts []NativeScript
}

type NativeScriptInvalidBefore struct {
	cbor.StructAsArray
	Type uint
	Slot uint64
}

type NativeScriptInvalidHereafter struct {
	cbor.StructAsArray
	Type uint
	Slot uint64
}

// NewNativeScriptPubkey requires a signature from the given key hash
func NewNativeScriptPubkey(keyHash []byte) NativeScript {
	return NativeScript{
		item: &NativeScriptPubkey{
			Type: NativeScriptTypePubkey,
			Hash: append([]byte{}, keyHash...),
		},
	}
}

// NewNativeScriptAll requires all sub-scripts to succeed
func NewNativeScriptAll(scripts ...NativeScript) NativeScript {
	return NativeScript{
		item: &NativeScriptAll{
			Type:    NativeScriptTypeAll,
			Scripts: copyScripts(scripts),
		},
	}
}

// NewNativeScriptAny requires at least one sub-script to succeed
func NewNativeScriptAny(scripts ...NativeScript) NativeScript {
	return NativeScript{
		item: &NativeScriptAny{
			Type:    NativeScriptTypeAny,
			Scripts: copyScripts(scripts),
		},
	}
}

// NewNativeScriptNofK requires at least n sub-scripts to succeed
func NewNativeScriptNofK(n uint, scripts ...NativeScript) NativeScript {
	return NativeScript{
		item: &NativeScriptNofK{
			Type:    NativeScriptTypeNofK,
			N:       n,
			Scripts: copyScripts(scripts),
		},
	}
}

// NewNativeScriptInvalidBefore is only valid from the given slot onward
func NewNativeScriptInvalidBefore(slot uint64) NativeScript {
	return NativeScript{
		item: &NativeScriptInvalidBefore{
			Type: NativeScriptTypeInvalidBefore,
			Slot: slot,
		},
	}
}

// NewNativeScriptInvalidHereafter is only valid before the given slot
func NewNativeScriptInvalidHereafter(slot uint64) NativeScript {
	return NativeScript{
		item: &NativeScriptInvalidHereafter{
			Type: NativeScriptTypeInvalidHereafter,
			Slot: slot,
		},
	}
}

// Nested lists are never nil so that an empty list encodes as an empty CBOR
// array rather than null
func copyScripts(scripts []NativeScript) []NativeScript {
	ret := make([]NativeScript, len(scripts))
	for idx, tmpScript := range scripts {
		ret[idx] = tmpScript.Clone()
	}
	return ret
}
