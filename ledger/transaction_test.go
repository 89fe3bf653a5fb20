// Copyright 2026 Blink Labs Software
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

package ledger_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContractID(t *testing.T) {
	id, err := ledger.ParseContractID(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), id[31])
	assert.Equal(t, strings.Repeat("ab", 32), id.String())

	for _, bad := range []string{"", "zz", strings.Repeat("ab", 31)} {
		_, err := ledger.ParseContractID(bad)
		assert.ErrorIs(t, err, protocol.ErrValidation, bad)
	}
}

func TestParseBlake2b256(t *testing.T) {
	hash := ledger.Blake2b256Hash([]byte("payload"))
	parsed, err := ledger.ParseBlake2b256(hash.String())
	require.NoError(t, err)
	assert.Equal(t, hash, parsed)

	for _, bad := range []string{"", "zz", strings.Repeat("ab", 31), strings.Repeat("ab", 33)} {
		_, err := ledger.ParseBlake2b256(bad)
		assert.ErrorIs(t, err, protocol.ErrValidation, bad)
	}
}

func TestTxWindowJSON(t *testing.T) {
	raw := `{"top_height":12,"transactions":[{"id":"` + strings.Repeat("01", 32) +
		`","height":4,"contract":"` + strings.Repeat("02", 32) +
		`","fn_name":"request_license","call_data":"a0ff"}]}`
	var window ledger.TxWindow
	require.NoError(t, json.Unmarshal([]byte(raw), &window))
	assert.Equal(t, uint64(12), window.TopHeight)
	require.Len(t, window.Transactions, 1)
	tx := window.Transactions[0]
	assert.Equal(t, uint64(4), tx.Height)
	assert.Equal(t, byte(2), tx.Contract[0])
	assert.Equal(t, protocol.MethodRequestLicense, tx.Method)
	assert.Equal(t, ledger.HexBytes{0xa0, 0xff}, tx.CallData)
}

func TestTxStatusJSON(t *testing.T) {
	var ok ledger.TxStatus
	require.NoError(t, json.Unmarshal([]byte(`{}`), &ok))
	assert.False(t, ok.Failed())
	var failed ledger.TxStatus
	require.NoError(t, json.Unmarshal([]byte(`{"err":"out of gas"}`), &failed))
	require.True(t, failed.Failed())
	assert.Equal(t, "out of gas", *failed.Err)
}

func TestSignedTransaction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	tx := &ledger.SignedTransaction{
		Call: ledger.Call{
			Method: protocol.MethodGetInfo,
			Args:   []byte{0x80},
			Gas:    ledger.Gas{Limit: 1000, Price: 1},
			Nonce:  7,
		},
	}
	copy(tx.Signer[:], pub)
	msg, err := tx.Call.SigningBytes()
	require.NoError(t, err)
	copy(tx.Signature[:], ed25519.Sign(priv, msg))
	require.NoError(t, tx.Verify())

	data, err := cbor.Encode(tx)
	require.NoError(t, err)
	decoded, err := ledger.DecodeSignedTransaction(data)
	require.NoError(t, err)
	require.NoError(t, decoded.Verify())
	assert.Equal(t, tx.ID(), decoded.ID())

	decoded.Call.Nonce = 8
	decoded.SetCbor(nil)
	assert.ErrorIs(t, decoded.Verify(), ledger.ErrInvalidTransactionSignature)
}
