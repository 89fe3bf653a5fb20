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
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actor struct {
	secret *keys.SecretKey
	public keys.PublicKey
	view   keys.ViewKey
}

func newActor(t *testing.T) actor {
	t.Helper()
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := sk.Public()
	require.NoError(t, err)
	vk, err := sk.ViewKey()
	require.NoError(t, err)
	return actor{secret: sk, public: pk, view: vk}
}

func issue(t *testing.T, user, lp actor, attribute uint64) (*ledger.Request, *ledger.License) {
	t.Helper()
	req, err := ledger.NewRequest(lp.public, user.public, rand.Reader)
	require.NoError(t, err)
	payload, err := req.Open(lp.view)
	require.NoError(t, err)
	lic, err := ledger.NewLicense(
		payload,
		zk.ElementFromUint64(attribute),
		lp.secret,
		rand.Reader,
	)
	require.NoError(t, err)
	return req, lic
}

func TestRequestRoundTrip(t *testing.T) {
	user, lp := newActor(t), newActor(t)
	req, err := ledger.NewRequest(lp.public, user.public, rand.Reader)
	require.NoError(t, err)
	assert.True(t, lp.view.Owns(req.Address()))
	assert.False(t, user.view.Owns(req.Address()))
	assert.LessOrEqual(t, len(req.Cbor()), protocol.MaxRequestSize)

	decoded, err := ledger.DecodeRequest(req.Cbor())
	require.NoError(t, err)
	assert.Equal(t, req.Hash(), decoded.Hash())
	assert.Equal(t, req.StealthAddress, decoded.StealthAddress)
	assert.Equal(t, req.Payload, decoded.Payload)

	// Re-encoding a decoded request reproduces the original bytes
	reencoded, err := cbor.Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, req.Cbor(), reencoded)
}

func TestRequestOpenWrongRecipient(t *testing.T) {
	user, lp, other := newActor(t), newActor(t), newActor(t)
	req, err := ledger.NewRequest(lp.public, user.public, rand.Reader)
	require.NoError(t, err)
	_, err = req.Open(other.view)
	assert.Error(t, err)
}

func TestDecodeRequestRejectsGarbage(t *testing.T) {
	_, err := ledger.DecodeRequest([]byte{0x82, 0x01})
	assert.ErrorIs(t, err, protocol.ErrEncoding)
	_, err = ledger.DecodeRequest(make([]byte, protocol.MaxRequestSize+1))
	assert.ErrorIs(t, err, protocol.ErrValidation)
}

func TestLicenseIssueAndOpen(t *testing.T) {
	user, lp := newActor(t), newActor(t)
	_, lic := issue(t, user, lp, 42)
	assert.True(t, user.view.Owns(lic.Address()))
	assert.False(t, lp.view.Owns(lic.Address()))
	require.NoError(t, lic.VerifySignature())
	assert.Equal(t, lp.public.Identity, lic.Issuer)

	secret, err := lic.Open(user.view)
	require.NoError(t, err)
	assert.Equal(t, zk.ElementFromUint64(42), secret.Attribute)
	assert.Equal(t, zk.Commitment(secret.Secret, secret.Attribute), lic.Commitment)

	_, err = lic.Open(lp.view)
	assert.Error(t, err)
}

func TestLicenseTamperedSignature(t *testing.T) {
	user, lp := newActor(t), newActor(t)
	_, lic := issue(t, user, lp, 1)
	lic.Commitment = zk.ElementFromUint64(7)
	assert.True(t, errors.Is(lic.VerifySignature(), ledger.ErrInvalidLicenseSignature))
}

func TestLicenseFixedSize(t *testing.T) {
	user, lp := newActor(t), newActor(t)
	for _, attr := range []uint64{0, 1, 1 << 40} {
		_, lic := issue(t, user, lp, attr)
		data, err := cbor.Encode(lic)
		require.NoError(t, err)
		assert.Len(t, data, ledger.LicenseSize)
	}
	assert.Equal(t, ledger.LicenseSize+8, ledger.LicenseEntrySize)
	assert.LessOrEqual(t, ledger.LicenseSize, protocol.MaxLicenseSize)
}

func TestLicenseEntryFrame(t *testing.T) {
	user, lp := newActor(t), newActor(t)
	_, lic := issue(t, user, lp, 5)
	entry := ledger.LicenseEntry{Position: 0x0102030405060708, License: lic}
	frame, err := entry.Frame()
	require.NoError(t, err)
	require.Len(t, frame, ledger.LicenseEntrySize)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, frame[:8])

	decoded, err := ledger.DecodeLicenseEntry(frame)
	require.NoError(t, err)
	assert.Equal(t, entry.Position, decoded.Position)
	assert.Equal(t, entry.Hash(), decoded.Hash())
	require.NoError(t, decoded.License.VerifySignature())

	_, err = ledger.DecodeLicenseEntry(frame[:len(frame)-1])
	assert.ErrorIs(t, err, protocol.ErrEncoding)
	corrupt := bytes.Clone(frame)
	corrupt[8] = 0xff
	_, err = ledger.DecodeLicenseEntry(corrupt)
	assert.ErrorIs(t, err, protocol.ErrEncoding)
}

func TestIssueLicenseArgsRoundTrip(t *testing.T) {
	user, lp := newActor(t), newActor(t)
	req, lic := issue(t, user, lp, 9)
	args := &ledger.IssueLicenseArgs{License: lic, Position: 3, Request: req.Hash()}
	data, err := cbor.Encode(args)
	require.NoError(t, err)
	var decoded ledger.IssueLicenseArgs
	require.NoError(t, cbor.DecodeExact(data, &decoded))
	assert.Equal(t, uint64(3), decoded.Position)
	assert.Equal(t, req.Hash(), decoded.Request)
	assert.Equal(t, lic.Hash(), decoded.License.Hash())
}
