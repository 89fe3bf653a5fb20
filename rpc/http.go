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

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"golang.org/x/time/rate"
)

const (
	DefaultHTTPTimeout = 30 * time.Second

	// Upper bound for buffered (non-streamed) responses
	maxResponseSize = 4 * 1024 * 1024
	// Upper bound for error bodies carried into a ProtocolError
	maxErrorBodySize = 4096
)

// HTTPClient talks to a ledger node over HTTP
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// HTTPOptionFunc is a type that represents functions that modify the HTTPClient config
type HTTPOptionFunc func(*HTTPClient)

// WithHTTPClient specifies the underlying http.Client. A client with DefaultHTTPTimeout
// is used by default
func WithHTTPClient(client *http.Client) HTTPOptionFunc {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithRateLimiter throttles outgoing requests. Requests are not throttled by default
func WithRateLimiter(limiter *rate.Limiter) HTTPOptionFunc {
	return func(c *HTTPClient) {
		c.limiter = limiter
	}
}

// WithHTTPLogger specifies the logger
func WithHTTPLogger(logger *slog.Logger) HTTPOptionFunc {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient returns a client for the node at baseURL
func NewHTTPClient(baseURL string, opts ...HTTPOptionFunc) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, protocol.NewValidationError("parse endpoint", "%s", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, protocol.NewValidationError(
			"parse endpoint",
			"unsupported scheme %q",
			u.Scheme,
		)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	c := &HTTPClient{
		baseURL: u,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Call performs a synchronous contract query
func (c *HTTPClient) Call(
	ctx context.Context,
	contract ledger.ContractID,
	method string,
	args []byte,
) ([]byte, error) {
	op := "call " + method
	resp, err := c.do(
		ctx,
		op,
		http.MethodPost,
		contractPath(contract, method),
		nil,
		args,
		contract.String()+"/"+method,
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, &protocol.TransportError{Op: op, Err: err}
	}
	if len(data) > maxResponseSize {
		return nil, &protocol.ProtocolError{
			Op:     op,
			Reason: fmt.Sprintf("response exceeds %d bytes", maxResponseSize),
		}
	}
	return data, nil
}

// Stream performs a contract query and returns the response body unread
func (c *HTTPClient) Stream(
	ctx context.Context,
	contract ledger.ContractID,
	method string,
	args []byte,
) (io.ReadCloser, error) {
	resp, err := c.do(
		ctx,
		"stream "+method,
		http.MethodPost,
		contractPath(contract, method),
		nil,
		args,
		contract.String()+"/"+method,
	)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// TopHeight returns the node's current top height
func (c *HTTPClient) TopHeight(ctx context.Context) (uint64, error) {
	var ret TopHeightResponse
	err := c.getJSON(
		ctx,
		"get top height",
		PathStatus+"/"+TopHeightKey,
		nil,
		&ret,
	)
	if err != nil {
		return 0, err
	}
	return ret.Height, nil
}

// Transactions returns the transactions with heights in [from, to), along with the top
// height the node reported at the time
func (c *HTTPClient) Transactions(
	ctx context.Context,
	from uint64,
	to uint64,
) (*ledger.TxWindow, error) {
	query := url.Values{}
	query.Set("from", strconv.FormatUint(from, 10))
	query.Set("to", strconv.FormatUint(to, 10))
	var ret ledger.TxWindow
	if err := c.getJSON(ctx, "get transactions", PathTransactions, query, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// TxStatus returns the execution status of a transaction. Unknown transactions return
// a NotFoundError
func (c *HTTPClient) TxStatus(
	ctx context.Context,
	id ledger.TxID,
) (*ledger.TxStatus, error) {
	var ret ledger.TxStatus
	if err := c.getJSON(ctx, "get tx status", PathStatus+"/"+id.String(), nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Broadcast submits a signed transaction and returns its ID. It is sent exactly once
func (c *HTTPClient) Broadcast(ctx context.Context, tx []byte) (ledger.TxID, error) {
	op := "broadcast"
	resp, err := c.do(ctx, op, http.MethodPost, PathTransactions, nil, tx, "")
	if err != nil {
		return ledger.TxID{}, err
	}
	defer resp.Body.Close()
	var ret BroadcastResponse
	if err := decodeJSON(op, resp.Body, &ret); err != nil {
		return ledger.TxID{}, err
	}
	return ret.ID, nil
}

func (c *HTTPClient) getJSON(
	ctx context.Context,
	op string,
	path string,
	query url.Values,
	dest any,
) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, query, nil, strings.TrimPrefix(path, PathStatus+"/"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(op, resp.Body, dest)
}

// do sends the request and maps the response status onto the error taxonomy. The caller
// owns the body of a successful response
func (c *HTTPClient) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	query url.Values,
	body []byte,
	key string,
) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &protocol.TransportError{Op: op, Err: err}
		}
	}
	u := *c.baseURL
	u.Path += path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, &protocol.TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	c.logger.Debug(
		"sending request",
		"component", "rpc",
		"method", method,
		"url", u.String(),
	)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &protocol.TransportError{Op: op, Err: err}
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, &protocol.NotFoundError{Op: op, Key: key}
	default:
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &protocol.ProtocolError{
			Op: op,
			Reason: fmt.Sprintf(
				"status %d: %s",
				resp.StatusCode,
				strings.TrimSpace(string(errBody)),
			),
		}
	}
}

func decodeJSON(op string, r io.Reader, dest any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseSize))
	if err != nil {
		return &protocol.TransportError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return protocol.NewEncodingError(op, err)
	}
	return nil
}

func contractPath(contract ledger.ContractID, method string) string {
	return PathContracts + "/" + contract.String() + "/" + url.PathEscape(method)
}
