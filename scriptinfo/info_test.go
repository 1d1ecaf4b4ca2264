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

package scriptinfo_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/scriptinfo/script"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNative() script.NativeScript {
	return script.NewNativeScriptAll(
		script.NewNativeScriptPubkey(bytes.Repeat([]byte{0x11}, script.HashSize)),
		script.NewNativeScriptInvalidHereafter(12345),
	)
}

func testPlutus(t *testing.T) script.PlutusScript {
	t.Helper()
	ps, err := script.NewPlutusScript(
		script.PlutusV2,
		[]byte{0x46, 0x01, 0x00, 0x00, 0x22, 0x00, 0x11},
	)
	require.NoError(t, err)
	return ps
}

func TestVerifyNativeMatch(t *testing.T) {
	ns := testNative()
	hash, err := script.Hash(ns)
	require.NoError(t, err)
	assert.Equal(t, scriptinfo.VerificationMatch, scriptinfo.Verify(hash, ns))
}

func TestVerifyNativeMismatch(t *testing.T) {
	ns := testNative()
	hash := lcommon.NewBlake2b224(bytes.Repeat([]byte{0xee}, script.HashSize))
	assert.Equal(t, scriptinfo.VerificationMismatch, scriptinfo.Verify(hash, ns))
}

func TestVerifyPlutusNotApplicable(t *testing.T) {
	ps := testPlutus(t)
	// Even the correct hash yields no claim for Plutus scripts
	hash, err := script.Hash(ps)
	require.NoError(t, err)
	assert.Equal(t, scriptinfo.VerificationNotApplicable, scriptinfo.Verify(hash, ps))
}

func TestVerificationMatches(t *testing.T) {
	matches, ok := scriptinfo.VerificationMatch.Matches()
	assert.True(t, matches)
	assert.True(t, ok)
	matches, ok = scriptinfo.VerificationMismatch.Matches()
	assert.False(t, matches)
	assert.True(t, ok)
	_, ok = scriptinfo.VerificationNotApplicable.Matches()
	assert.False(t, ok)
	assert.False(t, scriptinfo.VerificationNotApplicable.Applicable())
	assert.True(t, scriptinfo.VerificationMismatch.Applicable())
}

func TestNewFlagTotality(t *testing.T) {
	ns := testNative()
	nsHash, err := script.Hash(ns)
	require.NoError(t, err)
	info, err := scriptinfo.New(nsHash, ns)
	require.NoError(t, err)
	assert.True(t, info.NativeCborEncodingMatchesHash().Applicable())
	assert.Equal(t, nsHash, info.Hash())

	ps := testPlutus(t)
	psHash := lcommon.NewBlake2b224(bytes.Repeat([]byte{0x22}, script.HashSize))
	info, err = scriptinfo.New(psHash, ps)
	require.NoError(t, err)
	assert.False(t, info.NativeCborEncodingMatchesHash().Applicable())
	// The claimed hash is kept even though it is not the real one
	assert.Equal(t, psHash, info.Hash())
}

func TestNewRejectsIncompleteScripts(t *testing.T) {
	hash := lcommon.NewBlake2b224(bytes.Repeat([]byte{0x01}, script.HashSize))
	var decodeErr scriptinfo.ScriptDecodeError
	_, err := scriptinfo.New(hash, nil)
	require.ErrorAs(t, err, &decodeErr)
	_, err = scriptinfo.New(hash, script.NativeScript{})
	require.ErrorAs(t, err, &decodeErr)
	require.ErrorIs(t, err, script.ErrEmptyNativeScript)
}

func TestScriptInfoImmutable(t *testing.T) {
	keyHash := bytes.Repeat([]byte{0x22}, script.HashSize)
	ns := script.NewNativeScriptAll(
		script.NewNativeScriptPubkey(keyHash),
		script.NewNativeScriptInvalidHereafter(12345),
	)
	hash, err := script.Hash(ns)
	require.NoError(t, err)
	info, err := scriptinfo.New(hash, ns)
	require.NoError(t, err)
	require.Equal(t, scriptinfo.VerificationMatch, info.NativeCborEncodingMatchesHash())

	// Mutate the script returned by the getter
	got, ok := info.Script().(script.NativeScript)
	require.True(t, ok)
	all, ok := got.Item().(*script.NativeScriptAll)
	require.True(t, ok)
	pubkey, ok := all.Scripts[0].Item().(*script.NativeScriptPubkey)
	require.True(t, ok)
	pubkey.Hash[0] = 0xff
	all.Scripts = nil

	assert.Equal(
		t,
		info.NativeCborEncodingMatchesHash(),
		scriptinfo.Verify(info.Hash(), info.Script()),
	)
	stored, ok := info.Script().(script.NativeScript)
	require.True(t, ok)
	storedAll, ok := stored.Item().(*script.NativeScriptAll)
	require.True(t, ok)
	require.Len(t, storedAll.Scripts, 2)
	storedKey, ok := storedAll.Scripts[0].Item().(*script.NativeScriptPubkey)
	require.True(t, ok)
	assert.Equal(t, keyHash, storedKey.Hash)
}

func TestParseHash(t *testing.T) {
	valid := strings.Repeat("ab", script.HashSize)
	hash, err := scriptinfo.ParseHash("script_hash", valid)
	require.NoError(t, err)
	assert.Equal(t, valid, hash.String())

	testDefs := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "not hex", input: strings.Repeat("zz", script.HashSize)},
		{name: "odd length", input: "abc"},
		{name: "too short", input: "abcd"},
		{name: "too long", input: valid + "00"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := scriptinfo.ParseHash("script_hash", testDef.input)
			var fieldErr scriptinfo.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, "script_hash", fieldErr.Field)
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	ns := testNative()
	nsHash, err := script.Hash(ns)
	require.NoError(t, err)
	info, err := scriptinfo.New(nsHash, ns)
	require.NoError(t, err)
	data, err := json.Marshal(info)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, nsHash.String(), out["scriptHash"])
	assert.Equal(t, "native", out["type"])
	assert.Equal(t, true, out["nativeCborEncodingMatchesHash"])

	info, err = scriptinfo.New(nsHash, testPlutus(t))
	require.NoError(t, err)
	data, err = json.Marshal(info)
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "PlutusV2", out["type"])
	assert.Equal(t, "46010000220011", out["script"])
	val, present := out["nativeCborEncodingMatchesHash"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestErrorMessages(t *testing.T) {
	err := scriptinfo.MissingFieldError{Field: "value", Hash: "abcd"}
	assert.Contains(t, err.Error(), "missing native script in Koios response")
	err = scriptinfo.MissingFieldError{Field: "bytes", Hash: "abcd"}
	assert.Contains(t, err.Error(), "Plutus script bytes")
	assert.Contains(t, scriptinfo.UnknownTypeError{Hash: "abcd", Type: "plutusV9"}.Error(), "plutusV9")
	assert.Contains(t, scriptinfo.EmptyResultError{Hash: "abcd"}.Error(), "abcd")
}
