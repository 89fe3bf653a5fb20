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

package zklicense_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/blinklabs-io/zklicense"
	"github.com/blinklabs-io/zklicense/internal/test"
	"github.com/blinklabs-io/zklicense/internal/test/ledgermock"
	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/license"
	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/zk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// echoProof proves by revealing the session ID. It only checks the plumbing
type echoProof struct{}

func (echoProof) Prove(ctx context.Context, w zk.Witness) ([]byte, error) {
	return w.SessionID[:], nil
}

func (echoProof) Verify(proof []byte, pub zk.PublicWitness) error {
	if string(proof) != string(pub.SessionID[:]) {
		return zk.ErrProofRejected
	}
	return nil
}

func newKey(t *testing.T) *keys.SecretKey {
	t.Helper()
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return sk
}

func newMock(t *testing.T, opts ...ledgermock.LedgerOptionFunc) *ledgermock.Ledger {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mock := ledgermock.New(test.ContractID(3), opts...)
	mock.Start()
	t.Cleanup(mock.Close)
	return mock
}

func newClient(
	t *testing.T,
	mock *ledgermock.Ledger,
	opts ...zklicense.ClientOptionFunc,
) *zklicense.Client {
	t.Helper()
	httpClient, closeIdle := test.NewHTTPClient()
	t.Cleanup(closeIdle)
	client, err := zklicense.NewClient(
		append(
			[]zklicense.ClientOptionFunc{
				zklicense.WithHTTPEndpoint(mock.URL()),
				zklicense.WithContract(mock.Contract()),
				zklicense.WithHTTPClient(httpClient),
				zklicense.WithConfirmation(5*time.Millisecond, 20),
				zklicense.WithScanWindow(2),
				zklicense.WithProver(echoProof{}),
				zklicense.WithVerifier(echoProof{}),
			},
			opts...,
		)...,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClientRequiresEndpointAndContract(t *testing.T) {
	_, err := zklicense.NewClient(zklicense.WithContract(test.ContractID(1)))
	assert.ErrorIs(t, err, protocol.ErrValidation)
	_, err = zklicense.NewClient(zklicense.WithHTTPEndpoint("http://node"))
	assert.ErrorIs(t, err, protocol.ErrValidation)
	_, err = zklicense.NewClient(
		zklicense.WithHTTPEndpoint("ftp://node"),
		zklicense.WithContract(test.ContractID(1)),
	)
	assert.ErrorIs(t, err, protocol.ErrValidation)
	_, err = zklicense.NewClient(
		zklicense.WithHTTPEndpoint("http://node"),
		zklicense.WithWebSocketEndpoint("http://node/ws"),
		zklicense.WithContract(test.ContractID(1)),
	)
	assert.ErrorIs(t, err, protocol.ErrValidation)
}

func TestClientLifecycle(t *testing.T) {
	mock := newMock(t, ledgermock.WithProofVerifier(echoProof{}.Verify))
	registry := prometheus.NewRegistry()
	m, err := metrics.New("zklicense", registry)
	require.NoError(t, err)
	client := newClient(
		t,
		mock,
		zklicense.WithWebSocketEndpoint(mock.WebSocketURL()),
		zklicense.WithMetrics(m),
		zklicense.WithRateLimit(1000, 10),
	)
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))

	lpKey := newKey(t)
	lp, err := lpKey.Public()
	require.NoError(t, err)
	user, err := client.NewUser(newKey(t))
	require.NoError(t, err)
	provider, err := client.NewProvider(lpKey)
	require.NoError(t, err)
	service, err := client.NewService(newKey(t), lp)
	require.NoError(t, err)

	_, err = user.SubmitRequest(ctx, lp)
	require.NoError(t, err)
	mock.AdvanceHeight(3)
	_, err = provider.Scan(ctx)
	require.NoError(t, err)
	issued, err := provider.IssueLicense(ctx, nil, zk.ElementFromUint64(1))
	require.NoError(t, err)
	hash := issued.Hash()
	owned, err := user.ObtainLicense(ctx, &hash)
	require.NoError(t, err)
	challenge, err := service.NewChallenge()
	require.NoError(t, err)
	cookie, err := user.ComputeProof(ctx, owned, challenge)
	require.NoError(t, err)
	_, err = user.UseLicense(ctx, cookie)
	require.NoError(t, err)
	_, err = user.RequestService(ctx, service, cookie)
	require.NoError(t, err)
	assert.Equal(t, license.STATE_VERIFIED, service.State())

	info, err := user.ShowState(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Info{Requests: 1, Licenses: 1, Sessions: 1, TreeLength: 1, Root: info.Root}, *info)

	count, err := testutil.GatherAndCount(registry)
	require.NoError(t, err)
	assert.Positive(t, count)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}

func TestClientSubmitterNeedsKeyOrSigner(t *testing.T) {
	mock := newMock(t)
	client := newClient(t, mock)
	_, err := client.Submitter(nil)
	assert.ErrorIs(t, err, protocol.ErrValidation)
	_, err = client.NewUser(nil)
	assert.ErrorIs(t, err, protocol.ErrValidation)
	submitter, err := client.Submitter(newKey(t))
	require.NoError(t, err)
	assert.NotNil(t, submitter)
	assert.NotNil(t, client.Node())
	assert.NotNil(t, client.Query())
	assert.NotNil(t, client.Watcher())
	assert.Equal(t, mock.Contract(), client.Contract().Contract())
}
