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
	"encoding/json"
	"strings"
	"testing"

	"github.com/blinklabs-io/scriptinfo/script"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKeyHash  = "e09d36c79dec9bd1b3d9e152247701cd0bb860b5ebfd1de8abb6735a"
	testBytesHex = "4d01000033222220051200120011"
)

func testTimelockValue() string {
	return `{"type":"all","scripts":[{"type":"sig","keyHash":"` + testKeyHash +
		`"},{"type":"before","slot":57240000}]}`
}

func testNativeHash(t *testing.T) string {
	t.Helper()
	ns, err := script.ParseNativeScriptJSON([]byte(testTimelockValue()))
	require.NoError(t, err)
	hash, err := script.Hash(ns)
	require.NoError(t, err)
	return hash.String()
}

func strPtr(s string) *string {
	return &s
}

func validPlutusRecord(hashByte string) ScriptInfoRecord {
	return ScriptInfoRecord{
		ScriptHash: strings.Repeat(hashByte, script.HashSize),
		Type:       ScriptTypePlutusV2,
		Bytes:      strPtr(testBytesHex),
	}
}

func TestParseTimelock(t *testing.T) {
	hash := testNativeHash(t)
	info, err := ParseScriptInfo(ScriptInfoRecord{
		ScriptHash: hash,
		Type:       ScriptTypeTimelock,
		Value:      json.RawMessage(testTimelockValue()),
	})
	require.NoError(t, err)
	assert.Equal(t, hash, info.Hash().String())
	require.Equal(t, script.KindNative, info.Script().Kind())
	_, ok := info.Script().(script.NativeScript)
	require.True(t, ok)
	assert.Equal(t, scriptinfo.VerificationMatch, info.NativeCborEncodingMatchesHash())
}

func TestParseMultisigHashMismatch(t *testing.T) {
	info, err := ParseScriptInfo(ScriptInfoRecord{
		ScriptHash: strings.Repeat("00", script.HashSize),
		Type:       ScriptTypeMultisig,
		Value:      json.RawMessage(testTimelockValue()),
	})
	require.NoError(t, err)
	assert.Equal(t, scriptinfo.VerificationMismatch, info.NativeCborEncodingMatchesHash())
}

func TestParsePlutus(t *testing.T) {
	testDefs := []struct {
		scriptType string
		version    script.PlutusVersion
	}{
		{scriptType: ScriptTypePlutusV1, version: script.PlutusV1},
		{scriptType: ScriptTypePlutusV2, version: script.PlutusV2},
		{scriptType: ScriptTypePlutusV3, version: script.PlutusV3},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.scriptType, func(t *testing.T) {
			rec := validPlutusRecord("ab")
			rec.Type = testDef.scriptType
			info, err := ParseScriptInfo(rec)
			require.NoError(t, err)
			ps, ok := info.Script().(script.PlutusScript)
			require.True(t, ok)
			assert.Equal(t, testDef.version, ps.Version())
			expected, err := hex.DecodeString(testBytesHex)
			require.NoError(t, err)
			assert.Equal(t, expected, ps.Program())
			assert.Equal(t, scriptinfo.VerificationNotApplicable, info.NativeCborEncodingMatchesHash())
		})
	}
}

func TestParseRecordErrors(t *testing.T) {
	validHash := strings.Repeat("ab", script.HashSize)
	t.Run("bad hash hex", func(t *testing.T) {
		rec := validPlutusRecord("ab")
		rec.ScriptHash = "not-hex"
		_, err := ParseScriptInfo(rec)
		var fieldErr scriptinfo.FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "script_hash", fieldErr.Field)
	})
	t.Run("bad hash length", func(t *testing.T) {
		rec := validPlutusRecord("ab")
		rec.ScriptHash = "abcd"
		_, err := ParseScriptInfo(rec)
		var fieldErr scriptinfo.FieldError
		require.ErrorAs(t, err, &fieldErr)
	})
	t.Run("unknown type", func(t *testing.T) {
		rec := validPlutusRecord("ab")
		rec.Type = "plutusV9"
		_, err := ParseScriptInfo(rec)
		var typeErr scriptinfo.UnknownTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "plutusV9", typeErr.Type)
		assert.Equal(t, validHash, typeErr.Hash)
	})
	t.Run("multisig without value", func(t *testing.T) {
		for name, bytesField := range map[string]*string{
			"no bytes":   nil,
			"with bytes": strPtr(testBytesHex),
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ParseScriptInfo(ScriptInfoRecord{
					ScriptHash: validHash,
					Type:       ScriptTypeMultisig,
					Value:      json.RawMessage("null"),
					Bytes:      bytesField,
				})
				var missingErr scriptinfo.MissingFieldError
				require.ErrorAs(t, err, &missingErr)
				assert.Equal(t, "value", missingErr.Field)
				assert.Contains(t, err.Error(), "missing native script in Koios response")
			})
		}
	})
	t.Run("timelock with malformed value", func(t *testing.T) {
		_, err := ParseScriptInfo(ScriptInfoRecord{
			ScriptHash: validHash,
			Type:       ScriptTypeTimelock,
			Value:      json.RawMessage(`{"type":"sig","keyHash":"zz"}`),
		})
		var missingErr scriptinfo.MissingFieldError
		require.ErrorAs(t, err, &missingErr)
	})
	t.Run("plutus without bytes", func(t *testing.T) {
		rec := validPlutusRecord("ab")
		rec.Bytes = nil
		_, err := ParseScriptInfo(rec)
		var missingErr scriptinfo.MissingFieldError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "bytes", missingErr.Field)
	})
	t.Run("plutus with bad bytes", func(t *testing.T) {
		rec := validPlutusRecord("ab")
		rec.Bytes = strPtr("xyz")
		_, err := ParseScriptInfo(rec)
		var missingErr scriptinfo.MissingFieldError
		require.ErrorAs(t, err, &missingErr)
	})
}

func TestParseBatchFailFast(t *testing.T) {
	bad := validPlutusRecord("02")
	bad.Type = "plutusV9"
	recs := []ScriptInfoRecord{
		validPlutusRecord("01"),
		bad,
		validPlutusRecord("03"),
	}
	// The good records are individually valid
	for _, idx := range []int{0, 2} {
		_, err := ParseScriptInfo(recs[idx])
		require.NoError(t, err)
	}
	infos, err := ParseBatch(recs)
	require.Nil(t, infos)
	var typeErr scriptinfo.UnknownTypeError
	require.ErrorAs(t, err, &typeErr)

	_, err = ParseFirst(recs)
	require.ErrorAs(t, err, &typeErr)
}

func TestParseBatchOrder(t *testing.T) {
	recs := []ScriptInfoRecord{
		validPlutusRecord("01"),
		validPlutusRecord("02"),
	}
	infos, err := ParseBatch(recs)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, recs[0].ScriptHash, infos[0].Hash().String())
	assert.Equal(t, recs[1].ScriptHash, infos[1].Hash().String())
}

func TestParseFirst(t *testing.T) {
	recs := []ScriptInfoRecord{
		validPlutusRecord("01"),
		validPlutusRecord("02"),
	}
	info, err := ParseFirst(recs)
	require.NoError(t, err)
	assert.Equal(t, recs[0].ScriptHash, info.Hash().String())
}

func TestParseFirstEmpty(t *testing.T) {
	_, err := ParseFirst(nil)
	var emptyErr scriptinfo.EmptyResultError
	require.ErrorAs(t, err, &emptyErr)
	_, err = ParseFirst([]ScriptInfoRecord{})
	require.ErrorAs(t, err, &emptyErr)
}

func TestDecodeResponseJSON(t *testing.T) {
	hash := testNativeHash(t)
	body := `[
		{
			"script_hash": "` + hash + `",
			"creation_tx_hash": "` + strings.Repeat("cd", 32) + `",
			"type": "timelock",
			"value": ` + testTimelockValue() + `,
			"bytes": null,
			"size": 0
		},
		{
			"script_hash": "` + strings.Repeat("ab", script.HashSize) + `",
			"creation_tx_hash": "` + strings.Repeat("ef", 32) + `",
			"type": "plutusV2",
			"value": null,
			"bytes": "` + testBytesHex + `",
			"size": 14
		}
	]`
	var recs []ScriptInfoRecord
	require.NoError(t, json.Unmarshal([]byte(body), &recs))
	require.Len(t, recs, 2)
	assert.True(t, recs[0].HasValue())
	assert.Nil(t, recs[0].Bytes)
	assert.False(t, recs[1].HasValue())
	infos, err := ParseBatch(recs)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, script.KindNative, infos[0].Script().Kind())
	assert.Equal(t, script.KindPlutus, infos[1].Script().Kind())
}
