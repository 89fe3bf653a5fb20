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

package zk_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/blinklabs-io/zklicense/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContext     *zk.Context
	testContextErr  error
	testContextOnce sync.Once
)

func setupContext(t *testing.T) *zk.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Groth16 setup in short mode")
	}
	testContextOnce.Do(func() {
		testContext, testContextErr = zk.Setup()
	})
	require.NoError(t, testContextErr)
	return testContext
}

func buildWitness(t *testing.T) zk.Witness {
	t.Helper()
	tree := zk.NewTree()
	// Some unrelated leaves around ours
	for range 3 {
		leaf, err := zk.RandomElement(rand.Reader)
		require.NoError(t, err)
		_, err = tree.Append(leaf)
		require.NoError(t, err)
	}
	secret, err := zk.RandomElement(rand.Reader)
	require.NoError(t, err)
	attribute := zk.ElementFromUint64(21)
	pos, err := tree.Append(zk.Commitment(secret, attribute))
	require.NoError(t, err)
	_, err = tree.Append(zk.ElementFromUint64(99))
	require.NoError(t, err)
	path, err := tree.Path(pos)
	require.NoError(t, err)
	challenge := zk.HashToElement([]byte("challenge"))
	return zk.Witness{
		PublicWitness: zk.PublicWitness{
			Root:      path.Root,
			SessionID: zk.SessionID(secret, challenge),
			Challenge: challenge,
			Attribute: attribute,
		},
		Secret: secret,
		Path:   path,
	}
}

func TestProveVerify(t *testing.T) {
	zctx := setupContext(t)
	w := buildWitness(t)
	proof, err := zctx.Prove(context.Background(), w)
	require.NoError(t, err)
	require.NoError(t, zctx.Verify(proof, w.PublicWitness))

	// Claiming a different attribute fails
	wrongAttr := w.PublicWitness
	wrongAttr.Attribute = zk.ElementFromUint64(22)
	assert.ErrorIs(t, zctx.Verify(proof, wrongAttr), zk.ErrProofRejected)

	// Replaying the proof for another challenge fails
	wrongChallenge := w.PublicWitness
	wrongChallenge.Challenge = zk.HashToElement([]byte("other"))
	assert.ErrorIs(t, zctx.Verify(proof, wrongChallenge), zk.ErrProofRejected)
}

func TestProveRejectsBadWitness(t *testing.T) {
	zctx := setupContext(t)
	w := buildWitness(t)
	w.SessionID = zk.ElementFromUint64(1)
	_, err := zctx.Prove(context.Background(), w)
	assert.Error(t, err)

	w = buildWitness(t)
	w.Root = zk.ElementFromUint64(1)
	_, err = zctx.Prove(context.Background(), w)
	assert.Error(t, err)
}

func TestProveCanceled(t *testing.T) {
	zctx := setupContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := zctx.Prove(ctx, buildWitness(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyGarbageProof(t *testing.T) {
	zctx := setupContext(t)
	w := buildWitness(t)
	assert.Error(t, zctx.Verify([]byte{1, 2, 3}, w.PublicWitness))
}

func TestWriteLoadKeys(t *testing.T) {
	zctx := setupContext(t)
	var pkBuf, vkBuf bytes.Buffer
	require.NoError(t, zctx.WriteKeys(&pkBuf, &vkBuf))
	loaded, err := zk.Load(&pkBuf, &vkBuf)
	require.NoError(t, err)

	// Proofs cross between the original and the loaded context
	w := buildWitness(t)
	proof, err := zctx.Prove(context.Background(), w)
	require.NoError(t, err)
	require.NoError(t, loaded.Verify(proof, w.PublicWitness))
	proof, err = loaded.Prove(context.Background(), w)
	require.NoError(t, err)
	require.NoError(t, zctx.Verify(proof, w.PublicWitness))
}

func TestLoadTruncatedKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping circuit compilation in short mode")
	}
	_, err := zk.Load(bytes.NewReader([]byte{1, 2}), bytes.NewReader(nil))
	assert.Error(t, err)
}
