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
	"crypto/rand"
	"testing"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPublicInputs() ledger.PublicInputs {
	pub := ledger.PublicInputs{
		Root:      zk.ElementFromUint64(100),
		SessionID: zk.ElementFromUint64(200),
		Attribute: zk.ElementFromUint64(3),
	}
	pub.LPKey[0] = 1
	pub.SPKey[0] = 2
	pub.Nonce[0] = 3
	pub.Challenge = ledger.DeriveChallenge(pub.LPKey, pub.SPKey, pub.Nonce)
	return pub
}

func TestChallenge(t *testing.T) {
	pub := testPublicInputs()
	assert.True(t, pub.ChallengeValid())
	assert.True(t, pub.Challenge.Valid())
	pub.Nonce[1] = 9
	assert.False(t, pub.ChallengeValid())
}

func TestSessionCookieRoundTrip(t *testing.T) {
	cookie := ledger.NewSessionCookie(testPublicInputs(), []byte{1, 2, 3})
	assert.True(t, cookie.Consistent())
	data, err := cbor.Encode(cookie)
	require.NoError(t, err)
	var decoded ledger.SessionCookie
	require.NoError(t, cbor.DecodeExact(data, &decoded))
	assert.Equal(t, *cookie, decoded)
	assert.Equal(t, cookie.SessionID, decoded.Session().SessionID())
}

func TestOpeningVerify(t *testing.T) {
	tree := zk.NewTree()
	var leaves []zk.Element
	for range 5 {
		leaf, err := zk.RandomElement(rand.Reader)
		require.NoError(t, err)
		_, err = tree.Append(leaf)
		require.NoError(t, err)
		leaves = append(leaves, leaf)
	}
	path, err := tree.Path(3)
	require.NoError(t, err)
	opening := ledger.NewOpening(path)

	data, err := cbor.Encode(opening)
	require.NoError(t, err)
	var decoded ledger.Opening
	require.NoError(t, cbor.DecodeExact(data, &decoded))
	assert.Equal(t, *opening, decoded)
	assert.True(t, decoded.Verify(leaves[3]))
	assert.False(t, decoded.Verify(leaves[2]))
	assert.Equal(t, tree.Root(), decoded.Root)
}

func TestInfoEncoding(t *testing.T) {
	info := &ledger.Info{Requests: 1, Licenses: 2, Sessions: 3, TreeLength: 2}
	data, err := cbor.Encode(info)
	require.NoError(t, err)
	// array(5) followed by the counts
	assert.Equal(t, []byte{0x85, 0x01, 0x02, 0x03, 0x02}, data[:5])
}
