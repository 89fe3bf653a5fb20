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

package query_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/zklicense/internal/test"
	"github.com/blinklabs-io/zklicense/internal/test/ledgermock"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/query"
	"github.com/blinklabs-io/zklicense/rpc"
	"github.com/blinklabs-io/zklicense/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeTransport answers every call with a fixed result
type fakeTransport struct {
	result []byte
	err    error
	calls  int
}

func (f *fakeTransport) Call(
	ctx context.Context,
	contract ledger.ContractID,
	method string,
	args []byte,
) ([]byte, error) {
	f.calls++
	return f.result, f.err
}

func newMockContract(t *testing.T, ws bool) (*ledgermock.Ledger, *query.LicenseContract) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	mock := ledgermock.New(test.ContractID(1), ledgermock.WithChunkSize(7))
	mock.Start()
	t.Cleanup(mock.Close)
	var transport rpc.Transport
	if ws {
		client, err := rpc.NewWebSocketClient(mock.WebSocketURL())
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		transport = client
	} else {
		httpClient, closeIdle := test.NewHTTPClient()
		t.Cleanup(closeIdle)
		client, err := rpc.NewHTTPClient(mock.URL(), rpc.WithHTTPClient(httpClient))
		require.NoError(t, err)
		transport = client
	}
	return mock, query.NewLicenseContract(query.NewClient(transport), mock.Contract())
}

func TestLicenseContractQueries(t *testing.T) {
	for _, ws := range []bool{false, true} {
		name := "http"
		if ws {
			name = "websocket"
		}
		t.Run(name, func(t *testing.T) {
			_, contract := newMockContract(t, ws)
			ctx := context.Background()

			info, err := contract.GetInfo(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), info.TreeLength)
			assert.Equal(t, zk.NewTree().Root(), info.Root)

			_, err = contract.GetMerkleOpening(ctx, 0)
			assert.ErrorIs(t, err, protocol.ErrNotFound)

			_, err = contract.GetSession(ctx, zk.ElementFromUint64(1))
			assert.ErrorIs(t, err, protocol.ErrNotFound)

			stream, err := contract.GetLicenses(ctx, 0, 100)
			require.NoError(t, err)
			entries, err := stream.CollectAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestQueryRejectsOversizedArgs(t *testing.T) {
	transport := &fakeTransport{}
	client := query.NewClient(transport)
	_, err := query.Query[[]byte, uint64](
		context.Background(),
		client,
		test.ContractID(1),
		protocol.MethodGetInfo,
		make([]byte, protocol.MaxCallSize),
	)
	assert.ErrorIs(t, err, protocol.ErrValidation)
	assert.Equal(t, 0, transport.calls)
}

func TestQueryMalformedResult(t *testing.T) {
	testDefs := []struct {
		name   string
		result []byte
	}{
		{"truncated", []byte{0x82, 0x01}},
		{"trailing", []byte{0x01, 0x02}},
		{"wrong type", []byte{0x61, 0x61}},
		{"empty", []byte{}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			client := query.NewClient(&fakeTransport{result: testDef.result})
			_, err := query.Query[uint64, uint64](
				context.Background(),
				client,
				test.ContractID(1),
				protocol.MethodGetInfo,
				1,
			)
			assert.ErrorIs(t, err, protocol.ErrEncoding)
		})
	}
}

func TestQueryOptionalNull(t *testing.T) {
	client := query.NewClient(&fakeTransport{result: []byte{0xf6}})
	_, err := query.QueryOptional[uint64, ledger.Opening](
		context.Background(),
		client,
		test.ContractID(1),
		protocol.MethodGetMerkleOpening,
		3,
	)
	assert.ErrorIs(t, err, protocol.ErrNotFound)
}

func TestQueryPassesTransportErrors(t *testing.T) {
	client := query.NewClient(&fakeTransport{err: &protocol.NotFoundError{Op: "call"}})
	_, err := query.Query[uint64, uint64](
		context.Background(),
		client,
		test.ContractID(1),
		protocol.MethodGetInfo,
		1,
	)
	assert.ErrorIs(t, err, protocol.ErrNotFound)
}

func TestStreamWithoutStreamTransport(t *testing.T) {
	// A transport without streaming reads the whole result and decodes it the same way
	client := query.NewClient(&fakeTransport{result: encodeItems(4, 5)})
	d, err := query.Stream(
		context.Background(),
		client,
		test.ContractID(1),
		"numbers",
		uint64(0),
		testItemSize,
		decodeUint32,
	)
	require.NoError(t, err)
	items, err := d.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 5}, items)
}
