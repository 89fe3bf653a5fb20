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

package keys_test

import (
	"crypto/rand"
	"testing"

	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) *keys.SecretKey {
	t.Helper()
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return sk
}

func TestOwnershipSoundness(t *testing.T) {
	owner := newTestKey(t)
	other := newTestKey(t)
	ownerPub, err := owner.Public()
	require.NoError(t, err)
	ownerView, err := owner.ViewKey()
	require.NoError(t, err)
	otherView, err := other.ViewKey()
	require.NoError(t, err)
	for range 16 {
		addr, _, err := keys.NewStealthAddress(ownerPub, rand.Reader)
		require.NoError(t, err)
		assert.True(t, ownerView.Owns(addr), "owner should recognize address")
		assert.False(t, otherView.Owns(addr), "unrelated key should not recognize address")
	}
}

func TestStealthAddressesAreUnlinkable(t *testing.T) {
	owner := newTestKey(t)
	ownerPub, err := owner.Public()
	require.NoError(t, err)
	addr1, _, err := keys.NewStealthAddress(ownerPub, rand.Reader)
	require.NoError(t, err)
	addr2, _, err := keys.NewStealthAddress(ownerPub, rand.Reader)
	require.NoError(t, err)
	assert.NotEqual(t, addr1.P, addr2.P)
	assert.NotEqual(t, addr1.R, addr2.R)
}

func TestSharedKeyAgreement(t *testing.T) {
	owner := newTestKey(t)
	ownerPub, err := owner.Public()
	require.NoError(t, err)
	ownerView, err := owner.ViewKey()
	require.NoError(t, err)
	addr, senderShared, err := keys.NewStealthAddress(ownerPub, rand.Reader)
	require.NoError(t, err)
	ownerShared, err := ownerView.SharedKey(addr)
	require.NoError(t, err)
	assert.Equal(t, senderShared, ownerShared)
}

func TestOwnsRejectsGarbage(t *testing.T) {
	owner := newTestKey(t)
	ownerView, err := owner.ViewKey()
	require.NoError(t, err)
	var addr keys.StealthAddress
	for i := range addr.R {
		addr.R[i] = 0xff
	}
	assert.False(t, ownerView.Owns(addr))
}

func TestSealOpen(t *testing.T) {
	var key keys.SharedKey
	copy(key[:], []byte("0123456789abcdef0123456789abcdef"))
	plaintext := []byte("license secret")
	ad := []byte("context")
	sealed, err := keys.Seal(key, plaintext, ad, rand.Reader)
	require.NoError(t, err)
	assert.Len(t, sealed, len(plaintext)+keys.SealOverhead)
	opened, err := keys.Open(key, sealed, ad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
	// Wrong associated data
	_, err = keys.Open(key, sealed, []byte("other"))
	require.ErrorIs(t, err, keys.ErrSealOpen)
	// Tampered ciphertext
	sealed[len(sealed)-1] ^= 0x01
	_, err = keys.Open(key, sealed, ad)
	require.ErrorIs(t, err, keys.ErrSealOpen)
	// Truncated
	_, err = keys.Open(key, sealed[:10], ad)
	require.ErrorIs(t, err, keys.ErrSealOpen)
}

func TestKeyTextRoundTrip(t *testing.T) {
	sk := newTestKey(t)
	pk, err := sk.Public()
	require.NoError(t, err)
	parsedPub, err := keys.ParsePublicKey(pk.String())
	require.NoError(t, err)
	assert.Equal(t, pk, parsedPub)
	parsedSecret, err := keys.ParseSecretKey(sk.Text())
	require.NoError(t, err)
	assert.Equal(t, sk, parsedSecret)
	// Wrong prefix
	_, err = keys.ParsePublicKey(sk.Text())
	require.ErrorIs(t, err, protocol.ErrValidation)
}

func TestParseKeyRejectsBadText(t *testing.T) {
	sk := newTestKey(t)
	pk, err := sk.Public()
	require.NoError(t, err)
	pkText := pk.String()
	skText := sk.Text()
	for _, bad := range []string{
		"",
		"not a key",
		// Checksum broken by the last character
		pkText[:len(pkText)-1] + flipChar(pkText[len(pkText)-1]),
		// Valid bech32 with a truncated payload
		truncated(t, keys.PublicKeyPrefix, pk.Bytes()),
	} {
		_, err := keys.ParsePublicKey(bad)
		assert.ErrorIs(t, err, protocol.ErrValidation, bad)
	}
	for _, bad := range []string{
		"",
		pkText,
		skText[:len(skText)-1] + flipChar(skText[len(skText)-1]),
		truncated(t, keys.SecretKeyPrefix, sk.Bytes()),
	} {
		_, err := keys.ParseSecretKey(bad)
		assert.ErrorIs(t, err, protocol.ErrValidation, bad)
	}
}

func flipChar(c byte) string {
	if c == 'q' {
		return "p"
	}
	return "q"
}

func truncated(t *testing.T, prefix string, data []byte) string {
	t.Helper()
	conv, err := bech32.ConvertBits(data[:len(data)/2], 8, 5, true)
	require.NoError(t, err)
	ret, err := bech32.Encode(prefix, conv)
	require.NoError(t, err)
	return ret
}

func TestIdentitySignature(t *testing.T) {
	sk := newTestKey(t)
	pk, err := sk.Public()
	require.NoError(t, err)
	msg := []byte("issue license")
	sig := sk.Sign(msg)
	assert.True(t, pk.VerifyIdentity(msg, sig))
	assert.False(t, pk.VerifyIdentity([]byte("other"), sig))
	assert.False(t, pk.VerifyIdentity(msg, sig[:10]))
}
