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
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyHash(b byte) []byte {
	return bytes.Repeat([]byte{b}, HashSize)
}

func testNativeScript() NativeScript {
	return NewNativeScriptAll(
		NewNativeScriptPubkey(testKeyHash(0x01)),
		NewNativeScriptAny(
			NewNativeScriptPubkey(testKeyHash(0x02)),
			NewNativeScriptPubkey(testKeyHash(0x03)),
		),
		NewNativeScriptNofK(
			1,
			NewNativeScriptPubkey(testKeyHash(0x04)),
			NewNativeScriptInvalidBefore(1000),
		),
		NewNativeScriptInvalidHereafter(99999),
	)
}

func TestEncodeNativePubkeyLayout(t *testing.T) {
	keyHash := testKeyHash(0xab)
	data, err := Encode(NewNativeScriptPubkey(keyHash))
	require.NoError(t, err)
	// [0, [0, h'ab...']]
	expected := append(
		[]byte{0x82, 0x00, 0x82, 0x00, 0x58, 0x1c},
		keyHash...,
	)
	assert.Equal(t, expected, data)
}

func TestEncodePlutusLayout(t *testing.T) {
	program := []byte{0x46, 0x01, 0x00, 0x00, 0x22, 0x00, 0x11}
	s, err := NewPlutusScript(PlutusV2, program)
	require.NoError(t, err)
	data, err := Encode(s)
	require.NoError(t, err)
	expected := append([]byte{0x82, 0x02, 0x47}, program...)
	assert.Equal(t, expected, data)
}

func TestNativeScriptRoundTrip(t *testing.T) {
	orig := testNativeScript()
	data, err := Encode(orig)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, KindNative, decoded.Kind())
	ns, ok := decoded.(NativeScript)
	require.True(t, ok)
	// Re-encoding the decoded value must be byte identical
	reencoded, err := Encode(ns)
	require.NoError(t, err)
	assert.Equal(t, data, reencoded)
	all, ok := ns.Item().(*NativeScriptAll)
	require.True(t, ok)
	require.Len(t, all.Scripts, 4)
	pubkey, ok := all.Scripts[0].Item().(*NativeScriptPubkey)
	require.True(t, ok)
	assert.Equal(t, testKeyHash(0x01), pubkey.Hash)
	nofk, ok := all.Scripts[2].Item().(*NativeScriptNofK)
	require.True(t, ok)
	assert.Equal(t, uint(1), nofk.N)
	hereafter, ok := all.Scripts[3].Item().(*NativeScriptInvalidHereafter)
	require.True(t, ok)
	assert.Equal(t, uint64(99999), hereafter.Slot)
}

func TestPlutusScriptRoundTrip(t *testing.T) {
	for _, version := range []PlutusVersion{PlutusV1, PlutusV2, PlutusV3} {
		t.Run(version.String(), func(t *testing.T) {
			program := []byte{0x4d, 0x01, 0x00, 0x00, 0x33, 0x22, 0x22, 0x20, 0x05, 0x12, 0x00, 0x12, 0x00, 0x11}
			orig, err := NewPlutusScript(version, program)
			require.NoError(t, err)
			data, err := Encode(orig)
			require.NoError(t, err)
			decoded, err := Decode(data)
			require.NoError(t, err)
			ps, ok := decoded.(PlutusScript)
			require.True(t, ok)
			assert.Equal(t, version, ps.Version())
			assert.Equal(t, program, ps.Program())
		})
	}
}

func TestPlutusScriptCopiesProgram(t *testing.T) {
	program := []byte{0x01, 0x02, 0x03}
	s, err := NewPlutusScript(PlutusV1, program)
	require.NoError(t, err)
	program[0] = 0xff
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, s.Program())
	out := s.Program()
	out[1] = 0xff
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, s.Program())
}

func TestNewPlutusScriptInvalidVersion(t *testing.T) {
	_, err := NewPlutusScript(PlutusVersion(4), []byte{0x01})
	var verErr UnknownPlutusVersionError
	require.ErrorAs(t, err, &verErr)
	assert.Equal(t, uint(4), verErr.Version)
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(testNativeScript())
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := Decode(nil)
		require.ErrorIs(t, err, ErrEmptyScriptData)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(valid[:len(valid)-3])
		require.Error(t, err)
	})
	t.Run("unknown tag", func(t *testing.T) {
		_, err := Decode([]byte{0x82, 0x07, 0x41, 0x00})
		var tagErr UnknownScriptTagError
		require.ErrorAs(t, err, &tagErr)
		assert.Equal(t, uint(7), tagErr.Tag)
	})
	t.Run("unknown native type", func(t *testing.T) {
		_, err := Decode([]byte{0x82, 0x00, 0x82, 0x09, 0x00})
		require.Error(t, err)
	})
	t.Run("plutus body not bytes", func(t *testing.T) {
		_, err := Decode([]byte{0x82, 0x01, 0x01})
		require.Error(t, err)
	})
	t.Run("not an envelope", func(t *testing.T) {
		_, err := Decode([]byte{0x01})
		require.Error(t, err)
	})
	t.Run("trailing bytes", func(t *testing.T) {
		data := append(append([]byte{}, valid...), 0xde, 0xad, 0xbe, 0xef)
		_, err := Decode(data)
		require.ErrorIs(t, err, ErrTrailingScriptData)
		var trailingErr TrailingScriptDataError
		require.ErrorAs(t, err, &trailingErr)
		assert.Equal(t, 4, trailingErr.Extra)
	})
}

func TestNativeScriptCloneIsDeep(t *testing.T) {
	keyHash := bytes.Repeat([]byte{0x11}, HashSize)
	ns := NewNativeScriptAll(
		NewNativeScriptPubkey(keyHash),
		NewNativeScriptInvalidBefore(10),
	)
	before, err := Encode(ns)
	require.NoError(t, err)

	// Mutate everything reachable through the accessors
	all, ok := ns.Item().(*NativeScriptAll)
	require.True(t, ok)
	all.Scripts = all.Scripts[:1]
	pubkey, ok := ns.Clone().Item().(*NativeScriptAll).Scripts[0].Item().(*NativeScriptPubkey)
	require.True(t, ok)
	pubkey.Hash[0] = 0xff
	keyHash[0] = 0xff

	after, err := Encode(ns)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHash(t *testing.T) {
	ns := testNativeScript()
	body, err := cbor.Encode(ns)
	require.NoError(t, err)
	expected := lcommon.Blake2b224Hash(append([]byte{0x00}, body...))
	hash, err := Hash(ns)
	require.NoError(t, err)
	assert.Equal(t, expected, hash)

	program := []byte{0x4a, 0x01, 0x00, 0x00, 0x22, 0x22, 0x00, 0x10, 0x02, 0x00, 0x01}
	ps, err := NewPlutusScript(PlutusV3, program)
	require.NoError(t, err)
	expected = lcommon.Blake2b224Hash(append([]byte{0x03}, program...))
	hash, err = Hash(ps)
	require.NoError(t, err)
	assert.Equal(t, expected, hash)
}

func TestHashDependsOnKind(t *testing.T) {
	program := []byte{0x41, 0x00}
	v1, err := NewPlutusScript(PlutusV1, program)
	require.NoError(t, err)
	v2, err := NewPlutusScript(PlutusV2, program)
	require.NoError(t, err)
	h1, err := Hash(v1)
	require.NoError(t, err)
	h2, err := Hash(v2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestEmptyNativeScript(t *testing.T) {
	_, err := Encode(NativeScript{})
	require.ErrorIs(t, err, ErrEmptyNativeScript)
	_, err = Hash(NativeScript{})
	require.ErrorIs(t, err, ErrEmptyNativeScript)
	_, err = Encode(nil)
	require.ErrorIs(t, err, ErrNilScript)
}

func TestParseNativeScriptJSON(t *testing.T) {
	keyHash := hex.EncodeToString(testKeyHash(0x01))
	input := `{
		"type": "all",
		"scripts": [
			{"type": "sig", "keyHash": "` + keyHash + `"},
			{"type": "atLeast", "required": 2, "scripts": [
				{"type": "after", "slot": 10},
				{"type": "before", "slot": 20}
			]},
			{"type": "any", "scripts": []}
		]
	}`
	parsed, err := ParseNativeScriptJSON([]byte(input))
	require.NoError(t, err)
	expected := NewNativeScriptAll(
		NewNativeScriptPubkey(testKeyHash(0x01)),
		NewNativeScriptNofK(
			2,
			NewNativeScriptInvalidBefore(10),
			NewNativeScriptInvalidHereafter(20),
		),
		NewNativeScriptAny(),
	)
	assert.Equal(t, expected, parsed)
}

func TestNativeScriptJSONRoundTrip(t *testing.T) {
	orig := testNativeScript()
	data, err := orig.MarshalJSON()
	require.NoError(t, err)
	var decoded NativeScript
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, orig, decoded)
}

func TestParseNativeScriptJSONErrors(t *testing.T) {
	testDefs := []struct {
		name  string
		input string
	}{
		{name: "null", input: `null`},
		{name: "empty", input: ``},
		{name: "not an object", input: `[1,2]`},
		{name: "unknown type", input: `{"type":"foo"}`},
		{name: "bad key hash", input: `{"type":"sig","keyHash":"zz"}`},
		{name: "short key hash", input: `{"type":"sig","keyHash":"abcd"}`},
		{name: "atLeast without required", input: `{"type":"atLeast","scripts":[]}`},
		{name: "after without slot", input: `{"type":"after"}`},
		{name: "bad nested script", input: `{"type":"all","scripts":[{"type":"nope"}]}`},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := ParseNativeScriptJSON([]byte(testDef.input))
			require.Error(t, err)
		})
	}
}
