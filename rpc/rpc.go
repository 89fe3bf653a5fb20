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

// Package rpc implements the transports used to reach the ledger: a synchronous HTTP
// client, which also serves the node endpoints and byte streams, and a persistent
// WebSocket client for low-latency contract queries.
package rpc

import (
	"context"
	"io"

	"github.com/blinklabs-io/zklicense/ledger"
)

// Transport performs a single contract query and returns the raw result bytes
type Transport interface {
	Call(
		ctx context.Context,
		contract ledger.ContractID,
		method string,
		args []byte,
	) ([]byte, error)
}

// StreamTransport performs a contract query whose result is read as a byte stream.
// The caller must close the returned reader
type StreamTransport interface {
	Stream(
		ctx context.Context,
		contract ledger.ContractID,
		method string,
		args []byte,
	) (io.ReadCloser, error)
}

// Node exposes the ledger node endpoints
type Node interface {
	TopHeight(ctx context.Context) (uint64, error)
	Transactions(ctx context.Context, from uint64, to uint64) (*ledger.TxWindow, error)
	TxStatus(ctx context.Context, id ledger.TxID) (*ledger.TxStatus, error)
	Broadcast(ctx context.Context, tx []byte) (ledger.TxID, error)
}

// Paths served by a ledger node
const (
	PathContracts    = "/contracts"
	PathStatus       = "/status"
	PathTransactions = "/transactions"
	// TopHeightKey is the status key that reports the node's top height
	TopHeightKey = "-1"
)

// TopHeightResponse is the body of a top height request
type TopHeightResponse struct {
	Height uint64 `json:"height"`
}

// BroadcastResponse is the body of a broadcast request
type BroadcastResponse struct {
	ID ledger.TxID `json:"id"`
}

// WSRequest is the envelope of a WebSocket contract query
type WSRequest struct {
	RequestID *uint64           `json:"request_id,omitempty"`
	Contract  ledger.ContractID `json:"contract"`
	Method    string            `json:"fn_name"`
	Args      ledger.HexBytes   `json:"fn_args"`
}

// WSResponse is the envelope of a WebSocket contract query result
type WSResponse struct {
	RequestID *uint64         `json:"request_id,omitempty"`
	Data      ledger.HexBytes `json:"data"`
	Error     string          `json:"error,omitempty"`
}
