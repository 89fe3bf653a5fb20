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

// Package query implements the contract query client: typed calls encoded with the
// canonical codec, optional results, and decoding of fixed-size item streams.
package query

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/rpc"
)

// Client sends contract queries over a transport
type Client struct {
	transport rpc.Transport
	streams   rpc.StreamTransport
	metrics   *metrics.Metrics
	logger    *slog.Logger
	chunkSize int
}

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithStreamTransport specifies the transport used for streamed results. Without one,
// streamed results are read in full through the query transport
func WithStreamTransport(streams rpc.StreamTransport) ClientOptionFunc {
	return func(c *Client) {
		c.streams = streams
	}
}

// WithMetrics specifies the metrics collectors
func WithMetrics(m *metrics.Metrics) ClientOptionFunc {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithChunkSize specifies the read size used by stream decoders
func WithChunkSize(size int) ClientOptionFunc {
	return func(c *Client) {
		c.chunkSize = size
	}
}

// NewClient returns a query client using the provided transport
func NewClient(transport rpc.Transport, opts ...ClientOptionFunc) *Client {
	c := &Client{
		transport: transport,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.streams == nil {
		if streams, ok := transport.(rpc.StreamTransport); ok {
			c.streams = streams
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Raw sends already encoded arguments and returns the result bytes
func (c *Client) Raw(
	ctx context.Context,
	contract ledger.ContractID,
	method string,
	args []byte,
) ([]byte, error) {
	if err := protocol.CheckSize("query "+method, protocol.PayloadCall, args); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := c.transport.Call(ctx, contract, method, args)
	c.metrics.Query(method, start, err)
	if err != nil {
		return nil, err
	}
	c.logger.Debug(
		"query complete",
		"component", "query",
		"method", method,
		"bytes", len(data),
	)
	return data, nil
}

// Query calls a contract method with encoded args and strictly decodes the result
func Query[A any, R any](
	ctx context.Context,
	c *Client,
	contract ledger.ContractID,
	method string,
	args A,
) (R, error) {
	var ret R
	data, err := call(ctx, c, contract, method, args)
	if err != nil {
		return ret, err
	}
	if err := cbor.DecodeExact(data, &ret); err != nil {
		return ret, protocol.NewEncodingError("decode "+method+" result", err)
	}
	return ret, nil
}

// QueryOptional is Query for methods whose result may be absent. An absent result is
// reported as a NotFoundError
func QueryOptional[A any, R any](
	ctx context.Context,
	c *Client,
	contract ledger.ContractID,
	method string,
	args A,
) (*R, error) {
	data, err := call(ctx, c, contract, method, args)
	if err != nil {
		return nil, err
	}
	if cbor.IsNull(data) {
		return nil, &protocol.NotFoundError{Op: "query " + method}
	}
	var ret R
	if err := cbor.DecodeExact(data, &ret); err != nil {
		return nil, protocol.NewEncodingError("decode "+method+" result", err)
	}
	return &ret, nil
}

// Stream calls a contract method whose result is a sequence of itemSize-byte items
func Stream[A any, T any](
	ctx context.Context,
	c *Client,
	contract ledger.ContractID,
	method string,
	args A,
	itemSize int,
	decode func([]byte) (T, error),
) (*StreamDecoder[T], error) {
	encoded, err := encodeArgs(method, args)
	if err != nil {
		return nil, err
	}
	var body io.ReadCloser
	if c.streams != nil {
		start := time.Now()
		body, err = c.streams.Stream(ctx, contract, method, encoded)
		c.metrics.Query(method, start, err)
		if err != nil {
			return nil, err
		}
	} else {
		data, err := c.Raw(ctx, contract, method, encoded)
		if err != nil {
			return nil, err
		}
		body = io.NopCloser(bytes.NewReader(data))
	}
	return NewStreamDecoder(body, itemSize, decode, WithStreamChunkSize(c.chunkSize)), nil
}

func call[A any](
	ctx context.Context,
	c *Client,
	contract ledger.ContractID,
	method string,
	args A,
) ([]byte, error) {
	encoded, err := encodeArgs(method, args)
	if err != nil {
		return nil, err
	}
	data, err := c.Raw(ctx, contract, method, encoded)
	if err != nil {
		return nil, err
	}
	if err := cbor.Wellformed(data); err != nil {
		return nil, protocol.NewEncodingError("decode "+method+" result", err)
	}
	return data, nil
}

func encodeArgs[A any](method string, args A) ([]byte, error) {
	encoded, err := cbor.Encode(args)
	if err != nil {
		return nil, protocol.NewEncodingError("encode "+method+" args", err)
	}
	if err := protocol.CheckSize("query "+method, protocol.PayloadCall, encoded); err != nil {
		return nil, err
	}
	return encoded, nil
}
