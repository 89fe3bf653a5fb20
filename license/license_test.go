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

package license_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/zklicense/internal/test"
	"github.com/blinklabs-io/zklicense/internal/test/ledgermock"
	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/license"
	"github.com/blinklabs-io/zklicense/query"
	"github.com/blinklabs-io/zklicense/rpc"
	"github.com/blinklabs-io/zklicense/txn"
	"github.com/blinklabs-io/zklicense/zk"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var errBadProof = errors.New("bad proof")

// fakeProof stands in for a Groth16 proof. It binds the session ID and attribute so the
// verifier can tell proofs apart without a circuit setup
type fakeProof struct{}

func (fakeProof) proof(pub zk.PublicWitness) []byte {
	ret := append([]byte("proof:"), pub.SessionID[:]...)
	return append(ret, pub.Attribute[:]...)
}

func (p fakeProof) Prove(ctx context.Context, w zk.Witness) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !zk.VerifyPath(zk.Commitment(w.Secret, w.Attribute), w.Path) {
		return nil, errors.New("witness does not open to the root")
	}
	if zk.SessionID(w.Secret, w.Challenge) != w.SessionID {
		return nil, errors.New("session ID does not match secret")
	}
	return p.proof(w.PublicWitness), nil
}

func (p fakeProof) Verify(proof []byte, pub zk.PublicWitness) error {
	if !bytes.Equal(proof, p.proof(pub)) {
		return errBadProof
	}
	return nil
}

type env struct {
	mock     *ledgermock.Ledger
	contract *query.LicenseContract
	node     *rpc.HTTPClient
	lpKey    *keys.SecretKey
}

func newEnv(t *testing.T, webSocket bool) *env {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mock := ledgermock.New(
		test.ContractID(1),
		ledgermock.WithChunkSize(100),
		ledgermock.WithConfirmationDelay(1),
		ledgermock.WithProofVerifier(fakeProof{}.Verify),
	)
	mock.Start()
	t.Cleanup(mock.Close)
	httpClient, closeIdle := test.NewHTTPClient()
	t.Cleanup(closeIdle)
	node, err := rpc.NewHTTPClient(mock.URL(), rpc.WithHTTPClient(httpClient))
	require.NoError(t, err)
	var client *query.Client
	if webSocket {
		ws, err := rpc.NewWebSocketClient(mock.WebSocketURL())
		require.NoError(t, err)
		t.Cleanup(func() { _ = ws.Close() })
		client = query.NewClient(ws)
	} else {
		client = query.NewClient(node)
	}
	return &env{
		mock:     mock,
		contract: query.NewLicenseContract(client, mock.Contract()),
		node:     node,
		lpKey:    newKey(t),
	}
}

func newKey(t *testing.T) *keys.SecretKey {
	t.Helper()
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return sk
}

func (e *env) config(t *testing.T, key *keys.SecretKey) license.Config {
	t.Helper()
	watcher := txn.NewWatcher(
		e.node,
		txn.NewWatcherConfig(txn.WithInterval(5*time.Millisecond), txn.WithAttempts(20)),
	)
	submitter := txn.NewSubmitter(e.node, txn.NewSigner(key), txn.WithWatcher(watcher))
	return license.NewConfig(
		license.WithNode(e.node),
		license.WithContract(e.contract),
		license.WithSubmitter(submitter),
		license.WithScanWindow(3),
	)
}

func (e *env) newUser(t *testing.T) *license.User {
	t.Helper()
	key := newKey(t)
	user, err := license.NewUser(key, fakeProof{}, e.config(t, key))
	require.NoError(t, err)
	return user
}

func (e *env) newProvider(t *testing.T) *license.Provider {
	t.Helper()
	provider, err := license.NewProvider(e.lpKey, e.config(t, e.lpKey))
	require.NoError(t, err)
	return provider
}

func (e *env) newService(t *testing.T) *license.Service {
	t.Helper()
	key := newKey(t)
	lp, err := e.lpKey.Public()
	require.NoError(t, err)
	service, err := license.NewService(key, lp, fakeProof{}, license.NewConfig(license.WithContract(e.contract)))
	require.NoError(t, err)
	return service
}
