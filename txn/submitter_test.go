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

package txn_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/blinklabs-io/zklicense/internal/test"
	"github.com/blinklabs-io/zklicense/internal/test/ledgermock"
	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/rpc"
	"github.com/blinklabs-io/zklicense/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// countingBroadcaster records broadcasts without sending them anywhere
type countingBroadcaster struct {
	txs [][]byte
}

func (b *countingBroadcaster) Broadcast(ctx context.Context, tx []byte) (ledger.TxID, error) {
	b.txs = append(b.txs, tx)
	return ledger.TxID{1}, nil
}

func newSubmitter(t *testing.T, mockOpts ...ledgermock.LedgerOptionFunc) (*ledgermock.Ledger, *txn.Submitter) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mock := ledgermock.New(test.ContractID(1), mockOpts...)
	mock.Start()
	t.Cleanup(mock.Close)
	httpClient, closeIdle := test.NewHTTPClient()
	t.Cleanup(closeIdle)
	node, err := rpc.NewHTTPClient(mock.URL(), rpc.WithHTTPClient(httpClient))
	require.NoError(t, err)
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	watcher := txn.NewWatcher(
		node,
		txn.NewWatcherConfig(txn.WithInterval(5*time.Millisecond), txn.WithAttempts(10)),
	)
	return mock, txn.NewSubmitter(node, txn.NewSigner(sk), txn.WithWatcher(watcher))
}

func newTestRequest(t *testing.T) *ledger.Request {
	t.Helper()
	var pks []keys.PublicKey
	for range 2 {
		sk, err := keys.GenerateKey(rand.Reader)
		require.NoError(t, err)
		pk, err := sk.Public()
		require.NoError(t, err)
		pks = append(pks, pk)
	}
	req, err := ledger.NewRequest(pks[0], pks[1], rand.Reader)
	require.NoError(t, err)
	return req
}

func TestSubmitAndWait(t *testing.T) {
	mock, submitter := newSubmitter(t, ledgermock.WithConfirmationDelay(2))
	id, err := submitter.SubmitAndWait(
		context.Background(),
		newTestRequest(t),
		mock.Contract(),
		protocol.MethodRequestLicense,
		txn.DefaultGas,
	)
	require.NoError(t, err)
	assert.NotEqual(t, ledger.TxID{}, id)
	assert.Equal(t, uint64(1), mock.Info().Requests)
}

func TestSubmitAndWaitFailedExecution(t *testing.T) {
	_, submitter := newSubmitter(t)
	// The contract does not exist, so execution fails
	_, err := submitter.SubmitAndWait(
		context.Background(),
		newTestRequest(t),
		test.ContractID(9),
		protocol.MethodRequestLicense,
		txn.DefaultGas,
	)
	assert.ErrorIs(t, err, protocol.ErrProtocol)
}

func TestSubmitDistinctNonces(t *testing.T) {
	mock, submitter := newSubmitter(t)
	req := newTestRequest(t)
	first, err := submitter.Submit(context.Background(), req, mock.Contract(), protocol.MethodRequestLicense, txn.DefaultGas)
	require.NoError(t, err)
	second, err := submitter.Submit(context.Background(), req, mock.Contract(), protocol.MethodRequestLicense, txn.DefaultGas)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSubmitRejectsOversizedPayload(t *testing.T) {
	broadcaster := &countingBroadcaster{}
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	submitter := txn.NewSubmitter(broadcaster, txn.NewSigner(sk))
	_, err = submitter.Submit(
		context.Background(),
		make([]byte, protocol.MaxCallSize),
		test.ContractID(1),
		protocol.MethodRequestLicense,
		txn.DefaultGas,
	)
	assert.ErrorIs(t, err, protocol.ErrValidation)
	assert.Empty(t, broadcaster.txs)
}

func TestSubmitSignsCall(t *testing.T) {
	broadcaster := &countingBroadcaster{}
	sk, err := keys.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer := txn.NewSigner(sk)
	submitter := txn.NewSubmitter(broadcaster, signer)
	_, err = submitter.Submit(context.Background(), uint64(5), test.ContractID(1), protocol.MethodGetInfo, txn.DefaultGas)
	require.NoError(t, err)
	require.Len(t, broadcaster.txs, 1)
	tx, err := ledger.DecodeSignedTransaction(broadcaster.txs[0])
	require.NoError(t, err)
	require.NoError(t, tx.Verify())
	assert.Equal(t, signer.PublicKey(), tx.Signer)
	assert.Equal(t, []byte{0x05}, tx.Call.Args)
	assert.Equal(t, txn.DefaultGas, tx.Call.Gas)

	_, err = submitter.SubmitAndWait(context.Background(), uint64(5), test.ContractID(1), protocol.MethodGetInfo, txn.DefaultGas)
	assert.Error(t, err)
}
